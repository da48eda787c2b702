package store

import (
	"errors"
	"time"

	"github.com/leiwu2020/salesagents/model"
)

// TimeLayout is the timestamp format stored in customer and knowledge rows.
// Lexicographic comparison of values in this layout matches chronological order.
const TimeLayout = "2006-01-02T15:04:05"

// ErrNotFound is returned when a requested row does not exist for the tenant.
var ErrNotFound = errors.New("record not found")

// SalesStore is the tenant-scoped data access layer for users, customers and
// knowledge facts. Every customer and knowledge operation takes the owning
// user ID and must never return rows belonging to another user.
// Implemented by SQLiteStore and MongoDBStore.
type SalesStore interface {
	// Users
	CreateUser(username, hashedPassword string) (int64, error)
	GetUserByUsername(username string) (*model.User, error)
	ApproveUser(username string) error
	CountUsers() (int64, error)

	// Customers
	ListCustomers(userID int64) ([]model.Customer, error)
	SearchCustomers(userID int64, query string) ([]model.Customer, error)
	UrgentFollowUps(userID int64, until time.Time) ([]model.Customer, error)
	GetCustomer(userID, customerID int64) (*model.Customer, error)
	AddCustomer(userID int64, customer model.Customer) (int64, error)
	CustomersByStatus(userID int64) (map[string]int, error)

	// Knowledge base
	AddKnowledgeFact(userID int64, fact model.KnowledgeFact) (int64, error)
	SearchKnowledgeFacts(userID int64, query string) ([]model.KnowledgeFact, error)

	Close() error
}
