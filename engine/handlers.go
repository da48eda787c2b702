package engine

import (
	"fmt"
	"time"

	"github.com/leiwu2020/salesagents/model"
	"github.com/leiwu2020/salesagents/store"
)

// followUpWindow is how far ahead get_urgent_follow_ups looks.
const followUpWindow = 48 * time.Hour

// SalesData is the data access surface the tool handlers need.
// Satisfied by store.SalesStore.
type SalesData interface {
	ListCustomers(userID int64) ([]model.Customer, error)
	SearchCustomers(userID int64, query string) ([]model.Customer, error)
	UrgentFollowUps(userID int64, until time.Time) ([]model.Customer, error)
	GetCustomer(userID, customerID int64) (*model.Customer, error)
	AddCustomer(userID int64, customer model.Customer) (int64, error)
	AddKnowledgeFact(userID int64, fact model.KnowledgeFact) (int64, error)
	SearchKnowledgeFacts(userID int64, query string) ([]model.KnowledgeFact, error)
}

// RegisterSalesHandlers registers the handler for every tool in
// model.SalesTools against the given data layer. The tenant ID parameter of
// each handler comes from the dispatcher, never from model arguments.
func RegisterSalesHandlers(registry *model.HandlerRegistry, data SalesData) {
	registry.MustRegister("get_customers", func(tenantID int64, args map[string]any) (any, error) {
		customers, err := data.ListCustomers(tenantID)
		if err != nil {
			return nil, err
		}
		return nonNilCustomers(customers), nil
	})

	registry.MustRegister("search_customers", func(tenantID int64, args map[string]any) (any, error) {
		query, err := requireString(args, "query")
		if err != nil {
			return nil, err
		}
		customers, err := data.SearchCustomers(tenantID, query)
		if err != nil {
			return nil, err
		}
		return nonNilCustomers(customers), nil
	})

	registry.MustRegister("get_urgent_follow_ups", func(tenantID int64, args map[string]any) (any, error) {
		customers, err := data.UrgentFollowUps(tenantID, time.Now().Add(followUpWindow))
		if err != nil {
			return nil, err
		}
		return nonNilCustomers(customers), nil
	})

	registry.MustRegister("get_customer_details", func(tenantID int64, args map[string]any) (any, error) {
		customerID, err := requireInt(args, "customer_id")
		if err != nil {
			return nil, err
		}
		customer, err := data.GetCustomer(tenantID, customerID)
		if err == store.ErrNotFound {
			// The model gets an explicit null rather than a hard failure
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return customer, nil
	})

	registry.MustRegister("add_to_knowledge_base", func(tenantID int64, args map[string]any) (any, error) {
		entityName, err := requireString(args, "entity_name")
		if err != nil {
			return nil, err
		}
		relation, err := requireString(args, "relation")
		if err != nil {
			return nil, err
		}
		targetEntity, err := requireString(args, "target_entity")
		if err != nil {
			return nil, err
		}

		id, err := data.AddKnowledgeFact(tenantID, model.KnowledgeFact{
			EntityName:     entityName,
			Relation:       relation,
			TargetEntity:   targetEntity,
			AdditionalInfo: optionalString(args, "additional_info", ""),
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "success", "id": id}, nil
	})

	registry.MustRegister("query_knowledge_base", func(tenantID int64, args map[string]any) (any, error) {
		query, err := requireString(args, "query")
		if err != nil {
			return nil, err
		}
		facts, err := data.SearchKnowledgeFacts(tenantID, query)
		if err != nil {
			return nil, err
		}
		if facts == nil {
			facts = []model.KnowledgeFact{}
		}
		return facts, nil
	})

	registry.MustRegister("add_customer", func(tenantID int64, args map[string]any) (any, error) {
		name, err := requireString(args, "name")
		if err != nil {
			return nil, err
		}
		email, err := requireString(args, "email")
		if err != nil {
			return nil, err
		}

		id, err := data.AddCustomer(tenantID, model.Customer{
			Name:            name,
			Email:           email,
			Company:         optionalString(args, "company", ""),
			Status:          optionalString(args, "status", model.CustomerStatusLead),
			Notes:           optionalString(args, "notes", ""),
			NextFollowUp:    optionalString(args, "next_follow_up", ""),
			LastInteraction: time.Now().Format(store.TimeLayout),
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"status":  "success",
			"id":      id,
			"message": fmt.Sprintf("Customer %s added successfully.", name),
		}, nil
	})
}

// NewSalesRegistry builds the full handler registry for the sales tools and
// verifies it stays in lockstep with the published catalog.
func NewSalesRegistry(catalog *model.Catalog, data SalesData) (*model.HandlerRegistry, error) {
	registry := model.NewHandlerRegistry()
	RegisterSalesHandlers(registry, data)
	if err := registry.ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	return registry, nil
}

// requireString extracts a mandatory string argument
func requireString(args map[string]any, key string) (string, error) {
	value, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument: %s", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string", key)
	}
	return s, nil
}

// optionalString extracts an optional string argument with a default
func optionalString(args map[string]any, key, defaultValue string) string {
	if value, ok := args[key]; ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return defaultValue
}

// requireInt extracts a mandatory integer argument. JSON numbers decode as
// float64, so both forms are accepted.
func requireInt(args map[string]any, key string) (int64, error) {
	value, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing required argument: %s", key)
	}
	switch n := value.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("argument %s must be an integer", key)
	}
}

// nonNilCustomers keeps empty results serializing as [] instead of null
func nonNilCustomers(customers []model.Customer) []model.Customer {
	if customers == nil {
		return []model.Customer{}
	}
	return customers
}
