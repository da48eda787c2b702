package store

import (
	_ "embed"
	"fmt"

	"github.com/leiwu2020/salesagents/model"
	"gopkg.in/yaml.v3"
)

//go:embed seed_data.yaml
var seedData []byte

// seedDocument is the YAML structure of the bundled demo data
type seedDocument struct {
	Customers []struct {
		Name            string `yaml:"name"`
		Email           string `yaml:"email"`
		Company         string `yaml:"company"`
		Status          string `yaml:"status"`
		LastInteraction string `yaml:"last_interaction"`
		NextFollowUp    string `yaml:"next_follow_up"`
		Notes           string `yaml:"notes"`
		Tags            string `yaml:"tags"`
	} `yaml:"customers"`
	Knowledge []struct {
		EntityName     string `yaml:"entity_name"`
		Relation       string `yaml:"relation"`
		TargetEntity   string `yaml:"target_entity"`
		AdditionalInfo string `yaml:"additional_info"`
	} `yaml:"knowledge"`
}

// Seed populates an empty store with a demo user and the bundled demo data.
// It is a no-op when the store already has users. The demo user is created
// pre-approved with the given credentials.
func Seed(s SalesStore, username, hashedPassword string) error {
	count, err := s.CountUsers()
	if err != nil {
		return fmt.Errorf("failed to check for existing users: %w", err)
	}
	if count > 0 {
		return nil
	}

	var doc seedDocument
	if err := yaml.Unmarshal(seedData, &doc); err != nil {
		return fmt.Errorf("failed to parse seed data: %w", err)
	}

	userID, err := s.CreateUser(username, hashedPassword)
	if err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}
	if err := s.ApproveUser(username); err != nil {
		return fmt.Errorf("failed to approve demo user: %w", err)
	}

	for _, c := range doc.Customers {
		_, err := s.AddCustomer(userID, model.Customer{
			Name:            c.Name,
			Email:           c.Email,
			Company:         c.Company,
			Status:          c.Status,
			LastInteraction: c.LastInteraction,
			NextFollowUp:    c.NextFollowUp,
			Notes:           c.Notes,
			Tags:            c.Tags,
		})
		if err != nil {
			return fmt.Errorf("failed to seed customer %q: %w", c.Name, err)
		}
	}

	for _, k := range doc.Knowledge {
		_, err := s.AddKnowledgeFact(userID, model.KnowledgeFact{
			EntityName:     k.EntityName,
			Relation:       k.Relation,
			TargetEntity:   k.TargetEntity,
			AdditionalInfo: k.AdditionalInfo,
		})
		if err != nil {
			return fmt.Errorf("failed to seed knowledge fact %q: %w", k.EntityName, err)
		}
	}

	return nil
}
