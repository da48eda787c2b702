package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/leiwu2020/salesagents/auth"
	"github.com/leiwu2020/salesagents/config"
	"github.com/leiwu2020/salesagents/engine"
	"github.com/leiwu2020/salesagents/log"
	"github.com/leiwu2020/salesagents/model"
	"github.com/leiwu2020/salesagents/server"
	"github.com/leiwu2020/salesagents/store"
)

const (
	demoUsername = "demo"
	demoPassword = "demo"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Log.Debugf("loaded configuration from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Log.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}

	salesStore, err := openStore(cfg)
	if err != nil {
		log.Log.Errorf("failed to open store: %v", err)
		os.Exit(1)
	}
	defer salesStore.Close()

	if cfg.Store.Seed {
		hashed, err := auth.HashPassword(demoPassword)
		if err != nil {
			log.Log.Errorf("failed to hash demo password: %v", err)
			os.Exit(1)
		}
		if err := store.Seed(salesStore, demoUsername, hashed); err != nil {
			log.Log.Errorf("failed to seed store: %v", err)
			os.Exit(1)
		}
	}

	catalog, err := model.NewCatalog(model.SalesTools())
	if err != nil {
		log.Log.Errorf("failed to build tool catalog: %v", err)
		os.Exit(1)
	}

	registry, err := engine.NewSalesRegistry(catalog, salesStore)
	if err != nil {
		log.Log.Errorf("tool catalog and handlers out of sync: %v", err)
		os.Exit(1)
	}

	eng := engine.NewEngine(
		engine.NewCompletionClient(engine.LLMConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		}),
		cfg.LLM.Model,
		catalog,
		engine.NewDispatcher(registry),
		&engine.PromptBuilder{ProactiveKnowledgeCapture: cfg.Agent.ProactiveKnowledgeCapture},
	)

	srv := server.NewServer(cfg, eng, salesStore)
	if err := srv.Run(); err != nil {
		log.Log.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}

// openStore constructs the configured storage backend
func openStore(cfg *config.Config) (store.SalesStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMongoDB:
		log.Log.Infof("using MongoDB store at %s", cfg.Store.MongoURI)
		return store.NewMongoDBStore(store.MongoDBStoreConfig{
			URI:      cfg.Store.MongoURI,
			Database: cfg.Store.MongoDB,
		})
	default:
		log.Log.Infof("using SQLite store at %s", cfg.Store.SQLitePath)
		return store.NewSQLiteStore(cfg.Store.SQLitePath)
	}
}
