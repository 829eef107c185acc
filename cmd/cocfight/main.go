package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/vohyz/cocFightAgent/internal/api"
	"github.com/vohyz/cocFightAgent/internal/config"
	"github.com/vohyz/cocFightAgent/internal/constants"
	"github.com/vohyz/cocFightAgent/internal/engine"
	"github.com/vohyz/cocFightAgent/internal/logging"
	"github.com/vohyz/cocFightAgent/internal/narrative"
	"github.com/vohyz/cocFightAgent/internal/service"
	"github.com/vohyz/cocFightAgent/internal/storage"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	// Scenario configuration file (required). Path may be provided via
	// COCFIGHT_CONFIG or defaults to ./cocfight_config.json in the current
	// working directory.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = "./cocfight_config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Fatal("Missing or invalid scenario configuration", err, logging.Fields{
			"config_path": configPath,
			"hint":        "create a cocfight_config.json with 'scenario_name', a 'participants' array (id,name,faction,stats) and an optional 'map'",
		})
	}
	applyPromptTemplates(cfg)

	ctx := context.Background()
	keeper, err := narrative.New(ctx)
	if err != nil {
		logging.Fatal("Failed to initialize narrative backend", err, logging.Fields{
			"hint": "set OPENAI_API_KEY or GEMINI_API_KEY",
		})
	}

	// Allow the DB path to be configured via COCFIGHT_DB. Default to a
	// data/ directory for local development.
	dbPath := os.Getenv(constants.EnvDBPath)
	if dbPath == "" {
		dbPath = "./data/cocfight.db"
	}
	db, err := storage.OpenAndMigrate(dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	repo := storage.NewSQLiteRepository(db)

	seq := engine.New(keeper, rand.New(rand.NewSource(time.Now().UnixNano())))
	svc := service.NewEncounterService(repo, seq, keeper, cfg)
	handler := api.NewEncounterHandler(svc)

	// Background sweep: expire encounters that have been idle longer than
	// the configured TTL so abandoned sessions stop accepting input.
	if cfg.EncounterTTL > 0 {
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				if _, err := svc.ExpireStaleEncounters(cfg.EncounterTTL); err != nil {
					logging.Error("stale encounter sweep failed", err, nil)
				}
			}
		}()
	}

	router := gin.Default()
	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.POST(constants.RouteEncounters, handler.CreateEncounter)
		apiRoutes.GET(constants.RouteEncounterByID, handler.GetEncounter)
		apiRoutes.POST(constants.RouteEncounterInput, handler.SubmitInput)
		apiRoutes.POST(constants.RouteDiceRoll, handler.RollDice)
		apiRoutes.GET(constants.RouteVersion, api.Version)
	}
	router.GET(constants.RouteHealth, api.Health)

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}

func applyPromptTemplates(cfg *config.LoadedConfig) {
	if cfg.TriagePromptTemplate != "" {
		narrative.SetTriagePromptTemplate(cfg.TriagePromptTemplate)
	}
	if cfg.MonsterPromptTemplate != "" {
		narrative.SetMonsterPromptTemplate(cfg.MonsterPromptTemplate)
	}
	if cfg.ActionPromptTemplate != "" {
		narrative.SetActionPromptTemplate(cfg.ActionPromptTemplate)
	}
	if cfg.QueryPromptTemplate != "" {
		narrative.SetQueryPromptTemplate(cfg.QueryPromptTemplate)
	}
	if cfg.OOCPromptTemplate != "" {
		narrative.SetOOCPromptTemplate(cfg.OOCPromptTemplate)
	}
	if cfg.NarratorPromptTemplate != "" {
		narrative.SetNarratorPromptTemplate(cfg.NarratorPromptTemplate)
	}
	if cfg.ScenePromptTemplate != "" {
		narrative.SetScenePromptTemplate(cfg.ScenePromptTemplate)
	}
}
