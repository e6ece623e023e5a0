package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aniketthapawork/ai-tutor/internal/activity"
	"github.com/aniketthapawork/ai-tutor/internal/attempt"
	"github.com/aniketthapawork/ai-tutor/internal/catalog"
	"github.com/aniketthapawork/ai-tutor/internal/dashboard"
	"github.com/aniketthapawork/ai-tutor/internal/feedback"
	"github.com/aniketthapawork/ai-tutor/internal/llm"
	"github.com/aniketthapawork/ai-tutor/internal/logging"
	"github.com/aniketthapawork/ai-tutor/internal/metrics"
	"github.com/aniketthapawork/ai-tutor/internal/server"
	"github.com/aniketthapawork/ai-tutor/internal/store"
	"github.com/aniketthapawork/ai-tutor/internal/streak"
	"github.com/aniketthapawork/ai-tutor/internal/testgen"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// runServe opens the store, builds dependencies, and serves until
// interrupted.
func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := store.Open(cfg.Database.Store(), log.Named("store"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Learning.Seed {
		res, err := st.Seed(ctx)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if res.Modules > 0 || res.Tests > 0 {
			log.Info("seeded content", zap.Int("modules", res.Modules), zap.Int("tests", res.Tests))
		}
	}

	loc, err := cfg.Learning.Location()
	if err != nil {
		return err
	}
	engine := streak.NewEngine(loc)
	m := metrics.New()

	llmCfg := cfg.LLM.Resolved()
	provider, err := llm.NewProvider(ctx, llmCfg, llm.Deps{
		Recorder: st,
		Observer: m,
		Logger:   log.Named("llm"),
	})
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}
	if llmCfg.Provider == llm.ProviderMock {
		log.Warn("no LLM provider configured; test generation and AI feedback are unavailable")
	}
	log.Info("llm provider ready", zap.String("provider", llmCfg.Provider), zap.String("model", provider.ModelID()))

	rec := activity.NewRecorder(st, engine, log.Named("activity"))
	srv := server.New(server.Deps{
		Store:   st,
		Catalog: catalog.NewService(st, testgen.New(provider, testgen.DefaultConfig()), m, log.Named("catalog")),
		Attempts: attempt.NewService(st, rec, feedback.NewAssessor(provider, feedback.DefaultConfig()), attempt.Options{
			FeedbackTimeout: cfg.Learning.FeedbackTimeout,
			Metrics:         m,
			Logger:          log.Named("attempt"),
		}),
		Dashboard: dashboard.NewService(st, engine),
		Recorder:  rec,
		Metrics:   m,
		Auth:      server.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.DevHeader, st, log.Named("auth")),
		Logger:    log.Named("http"),
	})

	gin.SetMode(cfg.Server.Mode)
	return srv.Run(ctx, cfg.Server.Addr(), cfg.Server.ShutdownTimeout)
}
