package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskforge-ai/taskforge/internal/agent"
	"github.com/taskforge-ai/taskforge/internal/classifier"
	"github.com/taskforge-ai/taskforge/internal/config"
	"github.com/taskforge-ai/taskforge/internal/eventbus"
	executionrepo "github.com/taskforge-ai/taskforge/internal/execution/repositoryimpl"
	"github.com/taskforge-ai/taskforge/internal/llm"
	"github.com/taskforge-ai/taskforge/internal/orchestrator"
	"github.com/taskforge-ai/taskforge/internal/strategy"
	taskrepo "github.com/taskforge-ai/taskforge/internal/task/repositoryimpl"
	"github.com/taskforge-ai/taskforge/internal/validator"
	"github.com/taskforge-ai/taskforge/pkg/clog"
	"github.com/taskforge-ai/taskforge/pkg/storage"

	server "github.com/taskforge-ai/taskforge/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	taskRepo := taskrepo.NewYAMLRepository(store)
	executionRepo := executionrepo.NewYAMLRepository(store)

	// Setup classifier. The remote classifier is optional; without a URL the
	// local heuristic handles everything and the resilience wrapper just
	// guards against pathological inputs.
	var cls classifier.Client
	if env.ClassifierEnv.URL != "" {
		cls = classifier.NewHTTPClient(env.ClassifierEnv.URL)
	} else {
		cls = classifier.NewHeuristicClassifier()
	}
	resilient := classifier.NewResilient(cls, classifier.ResilientConfigFromEnv(&env.ClassifierEnv))

	// Setup agents and strategies
	llmClient := llm.NewRetry(llm.NewHTTPClient(&env.LLMEnv), env.LLMEnv.MaxAttempts, env.LLMEnv.RetryInterval)
	coder := agent.NewCoder(llmClient)
	planner := agent.NewPlanner(llmClient)
	reviewer := agent.NewReviewer(llmClient)
	structural := validator.NewStructural()

	registry := strategy.NewRegistry(
		strategy.NewSingleShot(coder, structural),
		strategy.NewIterative(coder, structural, env.OrchestratorEnv.MaxIterations),
		strategy.NewMultiAgent(planner, coder, reviewer, structural,
			env.OrchestratorEnv.MaxParallelSubagents, env.OrchestratorEnv.MaxReviewCycles),
	)
	selector := strategy.NewSelector(strategy.Type(env.OrchestratorEnv.DefaultStrategy), env.OrchestratorEnv.ConfidenceThreshold)

	// Setup orchestrator
	orch := orchestrator.NewService(taskRepo, executionRepo, resilient, selector, registry, bus, orchestrator.Config{
		DefaultStrategy:      strategy.Type(env.OrchestratorEnv.DefaultStrategy),
		MaxIterations:        env.OrchestratorEnv.MaxIterations,
		MaxReviewCycles:      env.OrchestratorEnv.MaxReviewCycles,
		MaxParallelSubagents: env.OrchestratorEnv.MaxParallelSubagents,
		ExecutionTimeout:     env.OrchestratorEnv.ExecutionTimeout,
		ConfidenceThreshold:  env.OrchestratorEnv.ConfidenceThreshold,
		EnableEscalation:     env.OrchestratorEnv.EnableEscalation,
		Model:                env.LLMEnv.Model,
	})

	srv := server.NewServer(env, orch)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	orch.Shutdown()
}
