package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/leiwu2020/salesagents/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBStore is a MongoDB implementation of SalesStore.
// Records keep the same integer IDs as the SQLite backend; a counters
// collection hands out sequence values per collection.
type MongoDBStore struct {
	client    *mongo.Client
	database  *mongo.Database
	users     *mongo.Collection
	customers *mongo.Collection
	knowledge *mongo.Collection
	counters  *mongo.Collection
}

// MongoDBStoreConfig holds configuration for MongoDBStore
type MongoDBStoreConfig struct {
	URI      string // MongoDB connection URI (e.g., "mongodb://localhost:27017")
	Database string // Database name (default: "salesagent")
}

// DefaultMongoDBStoreConfig returns default configuration
func DefaultMongoDBStoreConfig() MongoDBStoreConfig {
	return MongoDBStoreConfig{
		URI:      "mongodb://localhost:27017",
		Database: "salesagent",
	}
}

// NewMongoDBStore creates a new MongoDB sales store
func NewMongoDBStore(config MongoDBStoreConfig) (*MongoDBStore, error) {
	if config.URI == "" {
		config.URI = "mongodb://localhost:27017"
	}
	if config.Database == "" {
		config.Database = "salesagent"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(config.Database)
	store := &MongoDBStore{
		client:    client,
		database:  database,
		users:     database.Collection("users"),
		customers: database.Collection("customers"),
		knowledge: database.Collection("knowledge_base"),
		counters:  database.Collection("counters"),
	}

	if err := store.initIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return store, nil
}

// initIndexes creates the necessary indexes
func (s *MongoDBStore) initIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create username index: %w", err)
	}

	_, err = s.customers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create customers user_id index: %w", err)
	}

	_, err = s.knowledge.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create knowledge user_id index: %w", err)
	}

	return nil
}

// nextID returns the next sequence value for the named collection
func (s *MongoDBStore) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate ID for %s: %w", name, err)
	}
	return counter.Seq, nil
}

func (s *MongoDBStore) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// substringFilter builds a case-insensitive substring match, mirroring the
// LIKE '%q%' semantics of the SQLite backend
func substringFilter(query string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
}

// CreateUser inserts a new, unapproved user and returns its ID
func (s *MongoDBStore) CreateUser(username, hashedPassword string) (int64, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	id, err := s.nextID(ctx, "users")
	if err != nil {
		return 0, err
	}

	_, err = s.users.InsertOne(ctx, model.User{
		ID:             id,
		Username:       username,
		HashedPassword: hashedPassword,
		IsApproved:     false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUserByUsername returns the user with the given username
func (s *MongoDBStore) GetUserByUsername(username string) (*model.User, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	var user model.User
	err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// ApproveUser marks a user as approved so they can log in
func (s *MongoDBStore) ApproveUser(username string) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	result, err := s.users.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"is_approved": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to approve user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the total number of users
func (s *MongoDBStore) CountUsers() (int64, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	count, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// ListCustomers returns all customers owned by the user
func (s *MongoDBStore) ListCustomers(userID int64) ([]model.Customer, error) {
	return s.findCustomers(bson.M{"user_id": userID})
}

// SearchCustomers returns the user's customers matching the query in name,
// company or notes
func (s *MongoDBStore) SearchCustomers(userID int64, query string) ([]model.Customer, error) {
	pattern := substringFilter(query)
	return s.findCustomers(bson.M{
		"user_id": userID,
		"$or": bson.A{
			bson.M{"name": pattern},
			bson.M{"company": pattern},
			bson.M{"notes": pattern},
		},
	})
}

// UrgentFollowUps returns the user's customers whose next follow-up is set
// and not later than the given cutoff
func (s *MongoDBStore) UrgentFollowUps(userID int64, until time.Time) ([]model.Customer, error) {
	return s.findCustomers(bson.M{
		"user_id": userID,
		"next_follow_up": bson.M{
			"$gt":  "",
			"$lte": until.Format(TimeLayout),
		},
	})
}

// GetCustomer returns a single customer by ID, scoped to the user
func (s *MongoDBStore) GetCustomer(userID, customerID int64) (*model.Customer, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	var customer model.Customer
	err := s.customers.FindOne(ctx, bson.M{"user_id": userID, "id": customerID}).Decode(&customer)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}

// AddCustomer inserts a customer for the user and returns the new ID
func (s *MongoDBStore) AddCustomer(userID int64, customer model.Customer) (int64, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	id, err := s.nextID(ctx, "customers")
	if err != nil {
		return 0, err
	}

	customer.ID = id
	customer.UserID = userID
	if _, err := s.customers.InsertOne(ctx, customer); err != nil {
		return 0, fmt.Errorf("failed to add customer: %w", err)
	}
	return id, nil
}

// CustomersByStatus returns a count of the user's customers per status value
func (s *MongoDBStore) CustomersByStatus(userID int64) (map[string]int, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	cursor, err := s.customers.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count customers by status: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int)
	for cursor.Next(ctx) {
		var result struct {
			Status string `bson:"_id"`
			Count  int    `bson:"count"`
		}
		if err := cursor.Decode(&result); err != nil {
			return nil, err
		}
		counts[result.Status] = result.Count
	}
	return counts, cursor.Err()
}

// AddKnowledgeFact inserts a knowledge fact for the user and returns the new ID
func (s *MongoDBStore) AddKnowledgeFact(userID int64, fact model.KnowledgeFact) (int64, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	id, err := s.nextID(ctx, "knowledge_base")
	if err != nil {
		return 0, err
	}

	fact.ID = id
	fact.UserID = userID
	if fact.CreatedAt == "" {
		fact.CreatedAt = time.Now().Format(TimeLayout)
	}
	if _, err := s.knowledge.InsertOne(ctx, fact); err != nil {
		return 0, fmt.Errorf("failed to add knowledge fact: %w", err)
	}
	return id, nil
}

// SearchKnowledgeFacts returns the user's facts matching the query in any of
// the entity, relation, target or note fields
func (s *MongoDBStore) SearchKnowledgeFacts(userID int64, query string) ([]model.KnowledgeFact, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	pattern := substringFilter(query)
	cursor, err := s.knowledge.Find(ctx, bson.M{
		"user_id": userID,
		"$or": bson.A{
			bson.M{"entity_name": pattern},
			bson.M{"relation": pattern},
			bson.M{"target_entity": pattern},
			bson.M{"additional_info": pattern},
		},
	}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}
	defer cursor.Close(ctx)

	var facts []model.KnowledgeFact
	if err := cursor.All(ctx, &facts); err != nil {
		return nil, err
	}
	return facts, nil
}

// Close disconnects the MongoDB client
func (s *MongoDBStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// findCustomers runs a customer query and decodes all results
func (s *MongoDBStore) findCustomers(filter bson.M) ([]model.Customer, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	cursor, err := s.customers.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer cursor.Close(ctx)

	var customers []model.Customer
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}
