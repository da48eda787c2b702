package model

// User represents an account that owns customers and knowledge facts.
// All tenant scoping is keyed on the user ID.
type User struct {
	ID             int64  `json:"id" bson:"id"`
	Username       string `json:"username" bson:"username"`
	HashedPassword string `json:"-" bson:"hashed_password"`
	IsApproved     bool   `json:"is_approved" bson:"is_approved"`
}

// Customer is a tenant-scoped customer record. Field contents are passed
// through to the LLM as JSON, so the JSON tags are part of the tool contract.
type Customer struct {
	ID              int64  `json:"id" bson:"id"`
	UserID          int64  `json:"-" bson:"user_id"`
	Name            string `json:"name" bson:"name"`
	Email           string `json:"email" bson:"email"`
	Company         string `json:"company" bson:"company"`
	Status          string `json:"status" bson:"status"`
	LastInteraction string `json:"last_interaction" bson:"last_interaction"`
	NextFollowUp    string `json:"next_follow_up,omitempty" bson:"next_follow_up"`
	Notes           string `json:"notes" bson:"notes"`
	Tags            string `json:"tags" bson:"tags"`
}

// Customer status values accepted by the add_customer tool.
const (
	CustomerStatusLead    = "lead"
	CustomerStatusActive  = "active"
	CustomerStatusChurned = "churned"
)

// KnowledgeFact is one subject-relation-object tuple with an optional note.
// The knowledge base is a flat per-tenant collection of these, not a graph.
type KnowledgeFact struct {
	ID             int64  `json:"id" bson:"id"`
	UserID         int64  `json:"-" bson:"user_id"`
	EntityName     string `json:"entity_name" bson:"entity_name"`
	Relation       string `json:"relation" bson:"relation"`
	TargetEntity   string `json:"target_entity" bson:"target_entity"`
	AdditionalInfo string `json:"additional_info" bson:"additional_info"`
	CreatedAt      string `json:"created_at" bson:"created_at"`
}
