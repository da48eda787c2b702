package store

import (
	"testing"
	"time"

	"github.com/leiwu2020/salesagents/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser("alice", "hashed-secret")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero user ID")
	}

	user, err := s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if user.IsApproved {
		t.Error("new users must not be approved")
	}
	if user.HashedPassword != "hashed-secret" {
		t.Errorf("hashed password not stored: %q", user.HashedPassword)
	}

	if err := s.ApproveUser("alice"); err != nil {
		t.Fatalf("ApproveUser failed: %v", err)
	}
	user, err = s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername after approve failed: %v", err)
	}
	if !user.IsApproved {
		t.Error("user not approved after ApproveUser")
	}

	if _, err := s.GetUserByUsername("nobody"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
	if err := s.ApproveUser("nobody"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound approving missing user, got %v", err)
	}

	count, err := s.CountUsers()
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateUser("alice", "h1"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := s.CreateUser("alice", "h2"); err == nil {
		t.Error("expected error for duplicate username")
	}
}

func TestSearchCustomers_TenantIsolation(t *testing.T) {
	s := newTestStore(t)

	// Matching data under two different tenants
	if _, err := s.AddCustomer(1, model.Customer{Name: "Acme Lead", Email: "a@acme.com", Company: "Acme"}); err != nil {
		t.Fatalf("AddCustomer failed: %v", err)
	}
	if _, err := s.AddCustomer(2, model.Customer{Name: "Acme Contact", Email: "b@acme.com", Company: "Acme"}); err != nil {
		t.Fatalf("AddCustomer failed: %v", err)
	}

	results, err := s.SearchCustomers(1, "Acme")
	if err != nil {
		t.Fatalf("SearchCustomers failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result for tenant 1, got %d", len(results))
	}
	if results[0].Name != "Acme Lead" {
		t.Errorf("tenant 1 got tenant 2's row: %+v", results[0])
	}

	listed, err := s.ListCustomers(2)
	if err != nil {
		t.Fatalf("ListCustomers failed: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Acme Contact" {
		t.Errorf("tenant 2 listing wrong: %+v", listed)
	}
}

func TestSearchCustomers_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddCustomer(1, model.Customer{Name: "Alice Johnson", Email: "a@x.com", Company: "TechCorp"}); err != nil {
		t.Fatalf("AddCustomer failed: %v", err)
	}

	results, err := s.SearchCustomers(1, "techcorp")
	if err != nil {
		t.Fatalf("SearchCustomers failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected case-insensitive match, got %d results", len(results))
	}
}

func TestGetCustomer_ScopedToTenant(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddCustomer(1, model.Customer{Name: "Alice", Email: "alice@x.com"})
	if err != nil {
		t.Fatalf("AddCustomer failed: %v", err)
	}

	customer, err := s.GetCustomer(1, id)
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if customer.Name != "Alice" {
		t.Errorf("unexpected customer: %+v", customer)
	}

	// Another tenant must not see the row even with the right ID
	if _, err := s.GetCustomer(2, id); err != ErrNotFound {
		t.Errorf("expected ErrNotFound across tenants, got %v", err)
	}
}

func TestUrgentFollowUps(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)

	soon := now.Add(24 * time.Hour).Format(TimeLayout)
	far := now.Add(96 * time.Hour).Format(TimeLayout)

	if _, err := s.AddCustomer(1, model.Customer{Name: "Due Soon", Email: "a@x.com", NextFollowUp: soon}); err != nil {
		t.Fatalf("AddCustomer failed: %v", err)
	}
	if _, err := s.AddCustomer(1, model.Customer{Name: "Due Later", Email: "b@x.com", NextFollowUp: far}); err != nil {
		t.Fatalf("AddCustomer failed: %v", err)
	}
	if _, err := s.AddCustomer(1, model.Customer{Name: "No Follow Up", Email: "c@x.com"}); err != nil {
		t.Fatalf("AddCustomer failed: %v", err)
	}

	urgent, err := s.UrgentFollowUps(1, now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("UrgentFollowUps failed: %v", err)
	}
	if len(urgent) != 1 {
		t.Fatalf("expected 1 urgent follow-up, got %d", len(urgent))
	}
	if urgent[0].Name != "Due Soon" {
		t.Errorf("wrong customer flagged urgent: %+v", urgent[0])
	}
}

func TestKnowledgeFact_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	fact := model.KnowledgeFact{
		EntityName:     "TechCorp",
		Relation:       "uses",
		TargetEntity:   "Salesforce CRM",
		AdditionalInfo: "Integrating via API",
	}
	id, err := s.AddKnowledgeFact(1, fact)
	if err != nil {
		t.Fatalf("AddKnowledgeFact failed: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero fact ID")
	}

	// A substring of any of the four fields finds the record intact
	for _, query := range []string{"TechCorp", "uses", "Salesforce", "API"} {
		results, err := s.SearchKnowledgeFacts(1, query)
		if err != nil {
			t.Fatalf("SearchKnowledgeFacts(%q) failed: %v", query, err)
		}
		if len(results) != 1 {
			t.Fatalf("query %q: expected 1 result, got %d", query, len(results))
		}
		got := results[0]
		if got.EntityName != fact.EntityName || got.Relation != fact.Relation ||
			got.TargetEntity != fact.TargetEntity || got.AdditionalInfo != fact.AdditionalInfo {
			t.Errorf("query %q: fields not preserved: %+v", query, got)
		}
		if got.CreatedAt == "" {
			t.Errorf("query %q: created_at not set", query)
		}
	}
}

func TestSearchKnowledgeFacts_TenantIsolation(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddKnowledgeFact(1, model.KnowledgeFact{
		EntityName: "Alice", Relation: "prefers", TargetEntity: "email",
	}); err != nil {
		t.Fatalf("AddKnowledgeFact failed: %v", err)
	}

	mine, err := s.SearchKnowledgeFacts(1, "prefers")
	if err != nil {
		t.Fatalf("SearchKnowledgeFacts failed: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 fact for tenant 1, got %d", len(mine))
	}

	theirs, err := s.SearchKnowledgeFacts(2, "prefers")
	if err != nil {
		t.Fatalf("SearchKnowledgeFacts failed: %v", err)
	}
	if len(theirs) != 0 {
		t.Errorf("tenant 2 sees tenant 1's facts: %+v", theirs)
	}
}

func TestCustomersByStatus(t *testing.T) {
	s := newTestStore(t)

	for _, status := range []string{"lead", "lead", "active", "churned"} {
		if _, err := s.AddCustomer(1, model.Customer{Name: "c", Email: "c@x.com", Status: status}); err != nil {
			t.Fatalf("AddCustomer failed: %v", err)
		}
	}
	// Another tenant's customers must not be counted
	if _, err := s.AddCustomer(2, model.Customer{Name: "d", Email: "d@x.com", Status: "lead"}); err != nil {
		t.Fatalf("AddCustomer failed: %v", err)
	}

	counts, err := s.CustomersByStatus(1)
	if err != nil {
		t.Fatalf("CustomersByStatus failed: %v", err)
	}
	if counts["lead"] != 2 || counts["active"] != 1 || counts["churned"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
