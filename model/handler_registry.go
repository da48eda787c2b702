package model

import (
	"fmt"
	"sync"
)

// HandlerFunc is the signature for tool execution functions.
// The tenant ID is bound by the dispatcher from the authenticated caller;
// it never comes from model-supplied arguments.
type HandlerFunc func(tenantID int64, args map[string]any) (any, error)

// HandlerRegistry manages the mapping between tool names and their Go functions.
// This registry must be populated at application startup with all available handlers.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register registers a handler for a tool name
func (hr *HandlerRegistry) Register(toolName string, fn HandlerFunc) error {
	if toolName == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("handler cannot be nil for tool: %s", toolName)
	}

	hr.mu.Lock()
	defer hr.mu.Unlock()

	if _, exists := hr.handlers[toolName]; exists {
		return fmt.Errorf("handler already registered for tool: %s", toolName)
	}

	hr.handlers[toolName] = fn
	return nil
}

// MustRegister registers a handler and panics if there's an error
func (hr *HandlerRegistry) MustRegister(toolName string, fn HandlerFunc) {
	if err := hr.Register(toolName, fn); err != nil {
		panic(fmt.Sprintf("failed to register tool handler %s: %v", toolName, err))
	}
}

// Get retrieves a handler for a tool name
func (hr *HandlerRegistry) Get(toolName string) (HandlerFunc, bool) {
	hr.mu.RLock()
	defer hr.mu.RUnlock()

	fn, ok := hr.handlers[toolName]
	return fn, ok
}

// Has checks if a handler is registered for a tool name
func (hr *HandlerRegistry) Has(toolName string) bool {
	hr.mu.RLock()
	defer hr.mu.RUnlock()

	_, ok := hr.handlers[toolName]
	return ok
}

// Names returns all registered tool names
func (hr *HandlerRegistry) Names() []string {
	hr.mu.RLock()
	defer hr.mu.RUnlock()

	names := make([]string, 0, len(hr.handlers))
	for name := range hr.handlers {
		names = append(names, name)
	}
	return names
}

// ValidateCatalog checks that every tool in the catalog has a handler and
// every handler has a catalog entry. The published schema set and the
// dispatchable set must match exactly.
func (hr *HandlerRegistry) ValidateCatalog(catalog *Catalog) error {
	hr.mu.RLock()
	defer hr.mu.RUnlock()

	var missing []string
	for _, name := range catalog.Names() {
		if _, ok := hr.handlers[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingHandlersError{MissingTools: missing}
	}

	var undeclared []string
	for name := range hr.handlers {
		if !catalog.Has(name) {
			undeclared = append(undeclared, name)
		}
	}
	if len(undeclared) > 0 {
		return &UndeclaredHandlersError{Handlers: undeclared}
	}

	return nil
}

// HandlerNotFoundError is returned when no handler exists for a tool
type HandlerNotFoundError struct {
	ToolName string
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("handler not found for tool: %s", e.ToolName)
}

// MissingHandlersError is returned when catalog tools are missing their handlers
type MissingHandlersError struct {
	MissingTools []string
}

func (e *MissingHandlersError) Error() string {
	return fmt.Sprintf("missing handlers for tools: %v", e.MissingTools)
}

// UndeclaredHandlersError is returned when handlers exist without catalog entries
type UndeclaredHandlersError struct {
	Handlers []string
}

func (e *UndeclaredHandlersError) Error() string {
	return fmt.Sprintf("handlers registered without catalog declarations: %v", e.Handlers)
}
