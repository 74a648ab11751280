package main

import (
	"context"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"boopstake/observability/logging"
	"boopstake/observability/otel"
	"boopstake/services/stake-gateway/auth"
	"boopstake/services/stake-gateway/config"
	"boopstake/services/stake-gateway/leaderboard"
	"boopstake/services/stake-gateway/models"
	"boopstake/services/stake-gateway/server"
	"boopstake/services/stake-gateway/staking"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.Setup("stake-gateway", cfg.Environment)

	if cfg.Telemetry.Traces || cfg.Telemetry.Metrics {
		shutdown, err := otel.Init(context.Background(), cfg.Telemetry)
		if err != nil {
			log.Fatalf("telemetry init error: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	params, err := cfg.LoadParams()
	if err != nil {
		log.Fatalf("reward params error: %v", err)
	}

	engine, err := staking.New(staking.Config{DB: db, Params: params, Log: logger})
	if err != nil {
		log.Fatalf("staking engine error: %v", err)
	}

	verifier, err := auth.NewVerifier(auth.Options{
		Secret:         []byte(cfg.Auth.Secret),
		Issuer:         cfg.Auth.Issuer,
		Audience:       cfg.Auth.Audience,
		MaxSkewSeconds: cfg.Auth.MaxSkewSeconds,
	})
	if err != nil {
		log.Fatalf("auth error: %v", err)
	}

	srv := server.New(server.Config{
		DB:          db,
		Staking:     engine,
		Leaderboard: leaderboard.New(db, cfg.LeaderboardTTL, logger),
		Verifier:    verifier,
		Log:         logger,
	})

	addr := ":" + cfg.Port
	logger.Info("stake gateway listening", "addr", addr)
	if err := srv.ListenAndServe(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
