package model

// Tool describes one callable function published to the LLM.
// The Parameters schema must stay in lockstep with the registered handler:
// a renamed field or changed required flag here is a breaking change the
// model cannot route around.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Catalog is the fixed set of tools available to the agent. It is built once
// at process start and injected where needed; it never changes afterwards.
type Catalog struct {
	tools []Tool
	index map[string]Tool
}

// NewCatalog creates a catalog from the given tools, preserving order.
func NewCatalog(tools []Tool) (*Catalog, error) {
	c := &Catalog{
		tools: make([]Tool, 0, len(tools)),
		index: make(map[string]Tool, len(tools)),
	}
	for _, tool := range tools {
		if tool.Name == "" {
			return nil, &InvalidToolError{Reason: "tool name cannot be empty"}
		}
		if _, exists := c.index[tool.Name]; exists {
			return nil, &ToolConflictError{ToolName: tool.Name}
		}
		c.tools = append(c.tools, tool)
		c.index[tool.Name] = tool
	}
	return c, nil
}

// Tools returns all tools in registration order.
func (c *Catalog) Tools() []Tool {
	out := make([]Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

// Get returns a tool by name.
func (c *Catalog) Get(name string) (Tool, bool) {
	tool, ok := c.index[name]
	return tool, ok
}

// Has checks whether a tool with the given name exists.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Names returns all tool names in registration order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tools))
	for _, tool := range c.tools {
		names = append(names, tool.Name)
	}
	return names
}

// ToolConflictError is returned when two tools share a name
type ToolConflictError struct {
	ToolName string
}

func (e *ToolConflictError) Error() string {
	return "tool name conflict: " + e.ToolName
}

// InvalidToolError is returned when a tool definition is malformed
type InvalidToolError struct {
	Reason string
}

func (e *InvalidToolError) Error() string {
	return "invalid tool: " + e.Reason
}

// SalesTools returns the tool declarations published to the LLM for the
// sales assistant. Tenant identity is deliberately absent from every schema;
// it is bound server-side when a call is dispatched.
func SalesTools() []Tool {
	return []Tool{
		{
			Name:        "get_customers",
			Description: "Get all customers in the database",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "search_customers",
			Description: "Search for customers by name, company, or notes",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "The search query"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "get_urgent_follow_ups",
			Description: "Get customers who need a follow-up soon",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "get_customer_details",
			Description: "Get detailed information about a specific customer",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"customer_id": map[string]any{"type": "integer", "description": "The customer ID"},
				},
				"required": []string{"customer_id"},
			},
		},
		{
			Name:        "add_to_knowledge_base",
			Description: "Add a new fact or piece of information to the knowledge base",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"entity_name":     map[string]any{"type": "string", "description": "The subject"},
					"relation":        map[string]any{"type": "string", "description": "The relationship"},
					"target_entity":   map[string]any{"type": "string", "description": "The object"},
					"additional_info": map[string]any{"type": "string", "description": "Extra context"},
				},
				"required": []string{"entity_name", "relation", "target_entity"},
			},
		},
		{
			Name:        "query_knowledge_base",
			Description: "Search for specific facts in the knowledge base",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "The search term"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "add_customer",
			Description: "Add a new customer to the database",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":    map[string]any{"type": "string", "description": "Customer name"},
					"email":   map[string]any{"type": "string", "description": "Customer email"},
					"company": map[string]any{"type": "string", "description": "Company name"},
					"status": map[string]any{
						"type":        "string",
						"description": "Status (lead, active, churned)",
						"enum":        []string{CustomerStatusLead, CustomerStatusActive, CustomerStatusChurned},
					},
					"notes":          map[string]any{"type": "string", "description": "Initial notes about the customer"},
					"next_follow_up": map[string]any{"type": "string", "description": "ISO date for next follow up (optional)"},
				},
				"required": []string{"name", "email"},
			},
		},
	}
}
