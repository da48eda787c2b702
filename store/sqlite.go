package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/leiwu2020/salesagents/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of SalesStore.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// NewSQLiteStore creates a new SQLite sales store.
// If dbPath is empty, it uses ":memory:" for an in-memory database.
// For file-based storage, use a path like "./data/sales.db".
// The function automatically creates the directory if it doesn't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory for database: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:   db,
		path: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		is_approved INTEGER NOT NULL DEFAULT 0,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		company TEXT DEFAULT '',
		status TEXT DEFAULT '',
		last_interaction TEXT DEFAULT '',
		next_follow_up TEXT,
		notes TEXT DEFAULT '',
		tags TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_customers_user_id ON customers(user_id);
	CREATE INDEX IF NOT EXISTS idx_customers_next_follow_up ON customers(user_id, next_follow_up);

	CREATE TABLE IF NOT EXISTS knowledge_base (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		entity_name TEXT NOT NULL,
		relation TEXT NOT NULL,
		target_entity TEXT NOT NULL,
		additional_info TEXT DEFAULT '',
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_knowledge_base_user_id ON knowledge_base(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateUser inserts a new, unapproved user and returns its ID
func (s *SQLiteStore) CreateUser(username, hashedPassword string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(
		`INSERT INTO users (username, hashed_password, is_approved) VALUES (?, ?, 0)`,
		username, hashedPassword,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return result.LastInsertId()
}

// GetUserByUsername returns the user with the given username
func (s *SQLiteStore) GetUserByUsername(username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var user model.User
	var approved int
	err := s.db.QueryRow(
		`SELECT id, username, hashed_password, is_approved FROM users WHERE username = ?`,
		username,
	).Scan(&user.ID, &user.Username, &user.HashedPassword, &approved)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	user.IsApproved = approved != 0
	return &user, nil
}

// ApproveUser marks a user as approved so they can log in
func (s *SQLiteStore) ApproveUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`UPDATE users SET is_approved = 1 WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to approve user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the total number of users
func (s *SQLiteStore) CountUsers() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

const customerColumns = `id, user_id, name, email, company, status, last_interaction, next_follow_up, notes, tags`

// ListCustomers returns all customers owned by the user
func (s *SQLiteStore) ListCustomers(userID int64) ([]model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT `+customerColumns+` FROM customers WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	return scanCustomers(rows)
}

// SearchCustomers returns the user's customers matching the query in name,
// company or notes (substring match)
func (s *SQLiteStore) SearchCustomers(userID int64, query string) ([]model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + query + "%"
	rows, err := s.db.Query(
		`SELECT `+customerColumns+` FROM customers
		 WHERE user_id = ? AND (name LIKE ? OR company LIKE ? OR notes LIKE ?)
		 ORDER BY id`,
		userID, pattern, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	defer rows.Close()

	return scanCustomers(rows)
}

// UrgentFollowUps returns the user's customers whose next follow-up is set
// and not later than the given cutoff
func (s *SQLiteStore) UrgentFollowUps(userID int64, until time.Time) ([]model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT `+customerColumns+` FROM customers
		 WHERE user_id = ? AND next_follow_up IS NOT NULL AND next_follow_up != '' AND next_follow_up <= ?
		 ORDER BY next_follow_up`,
		userID, until.Format(TimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query follow-ups: %w", err)
	}
	defer rows.Close()

	return scanCustomers(rows)
}

// GetCustomer returns a single customer by ID, scoped to the user
func (s *SQLiteStore) GetCustomer(userID, customerID int64) (*model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT `+customerColumns+` FROM customers WHERE user_id = ? AND id = ?`,
		userID, customerID,
	)

	customer, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

// AddCustomer inserts a customer for the user and returns the new ID
func (s *SQLiteStore) AddCustomer(userID int64, customer model.Customer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var nextFollowUp any
	if customer.NextFollowUp != "" {
		nextFollowUp = customer.NextFollowUp
	}

	result, err := s.db.Exec(
		`INSERT INTO customers (user_id, name, email, company, status, last_interaction, next_follow_up, notes, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, customer.Name, customer.Email, customer.Company, customer.Status,
		customer.LastInteraction, nextFollowUp, customer.Notes, customer.Tags,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add customer: %w", err)
	}
	return result.LastInsertId()
}

// CustomersByStatus returns a count of the user's customers per status value
func (s *SQLiteStore) CustomersByStatus(userID int64) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT status, COUNT(*) FROM customers WHERE user_id = ? GROUP BY status`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// AddKnowledgeFact inserts a knowledge fact for the user and returns the new ID
func (s *SQLiteStore) AddKnowledgeFact(userID int64, fact model.KnowledgeFact) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := fact.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().Format(TimeLayout)
	}

	result, err := s.db.Exec(
		`INSERT INTO knowledge_base (user_id, entity_name, relation, target_entity, additional_info, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, fact.EntityName, fact.Relation, fact.TargetEntity, fact.AdditionalInfo, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add knowledge fact: %w", err)
	}
	return result.LastInsertId()
}

// SearchKnowledgeFacts returns the user's facts matching the query in any of
// the entity, relation, target or note fields (substring match)
func (s *SQLiteStore) SearchKnowledgeFacts(userID int64, query string) ([]model.KnowledgeFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + query + "%"
	rows, err := s.db.Query(
		`SELECT id, user_id, entity_name, relation, target_entity, additional_info, created_at
		 FROM knowledge_base
		 WHERE user_id = ? AND (entity_name LIKE ? OR relation LIKE ? OR target_entity LIKE ? OR additional_info LIKE ?)
		 ORDER BY id`,
		userID, pattern, pattern, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}
	defer rows.Close()

	var facts []model.KnowledgeFact
	for rows.Next() {
		var fact model.KnowledgeFact
		if err := rows.Scan(
			&fact.ID, &fact.UserID, &fact.EntityName, &fact.Relation,
			&fact.TargetEntity, &fact.AdditionalInfo, &fact.CreatedAt,
		); err != nil {
			return nil, err
		}
		facts = append(facts, fact)
	}
	return facts, rows.Err()
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner abstracts *sql.Row and *sql.Rows for customer scanning
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*model.Customer, error) {
	var customer model.Customer
	var nextFollowUp sql.NullString
	err := row.Scan(
		&customer.ID, &customer.UserID, &customer.Name, &customer.Email,
		&customer.Company, &customer.Status, &customer.LastInteraction,
		&nextFollowUp, &customer.Notes, &customer.Tags,
	)
	if err != nil {
		return nil, err
	}
	customer.NextFollowUp = nextFollowUp.String
	return &customer, nil
}

func scanCustomers(rows *sql.Rows) ([]model.Customer, error) {
	var customers []model.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *customer)
	}
	return customers, rows.Err()
}
