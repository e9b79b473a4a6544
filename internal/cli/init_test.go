package cli

import (
	"context"
	"log/slog"
	"testing"

	"tourney/internal/cache"
	"tourney/internal/config"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", "test")
	if logger.Component() != "test" {
		t.Errorf("component = %q, want test", logger.Component())
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("default logger should accept debug records")
	}
}

func TestInitGenerationsWithoutRedis(t *testing.T) {
	logger := SetupLogger("error", "test")
	gens, closer := InitGenerations(context.Background(), logger, &config.Config{})
	if _, ok := gens.(*cache.MemoryGenerations); !ok {
		t.Errorf("expected memory generations, got %T", gens)
	}
	if closer != nil {
		t.Error("memory generations need no closer")
	}
}

func TestInitGenerationsFallsBackWhenRedisDown(t *testing.T) {
	logger := SetupLogger("error", "test")
	gens, closer := InitGenerations(context.Background(), logger, &config.Config{RedisAddr: "127.0.0.1:1"})
	if _, ok := gens.(*cache.MemoryGenerations); !ok {
		t.Errorf("expected fallback to memory generations, got %T", gens)
	}
	if closer != nil {
		t.Error("fallback should not return a closer")
	}
}

func TestInitAMQPDisabled(t *testing.T) {
	logger := SetupLogger("error", "test")
	if client := InitAMQP(logger, &config.Config{}); client != nil {
		t.Error("expected nil client without AMQP_URL")
	}
}
