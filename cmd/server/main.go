package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mborders/logmatic"
	"golang.org/x/sync/errgroup"

	"github.com/agentkred/kred/internal/auth"
	"github.com/agentkred/kred/internal/cache"
	"github.com/agentkred/kred/internal/config"
	"github.com/agentkred/kred/internal/database"
	"github.com/agentkred/kred/internal/logger"
	"github.com/agentkred/kred/internal/proof"
	"github.com/agentkred/kred/internal/repository"
	"github.com/agentkred/kred/internal/repository/memory"
	postgresrepo "github.com/agentkred/kred/internal/repository/postgres"
	"github.com/agentkred/kred/internal/service"
	"github.com/agentkred/kred/internal/transport/http/handlers"
	"github.com/agentkred/kred/internal/transport/ws"
)

const shutdownTimeout = 10 * time.Second

type stores struct {
	tx            repository.Transactor
	agents        repository.AgentRepository
	reviews       repository.ReviewRepository
	verifications repository.VerificationRepository
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server: %v", err)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logmatic.Logger) error {
	// Store
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	// Services
	validator := proof.Default(proof.NewFetcher(cfg.ProofTimeout), proof.Options{
		OEmbedURL: cfg.TwitterOEmbedURL,
		GistHosts: cfg.GistHosts,
	}, log)
	agentService := service.NewAgentService(st.tx, st.agents, st.reviews, st.verifications)
	reviewService := service.NewReviewService(st.tx)
	verificationService := service.NewVerificationService(st.tx, validator)
	stakeService := service.NewStakeService(st.tx)

	// WebSocket hub
	hub := ws.NewHub(log)
	notifier := ws.NewHubNotifier(hub)
	agentService.SetNotifier(notifier)
	reviewService.SetNotifier(notifier)
	verificationService.SetNotifier(notifier)
	stakeService.SetNotifier(notifier)

	// Leaderboard cache
	if cfg.RedisURL != "" {
		rdb, err := cache.Open(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, leaderboard cache disabled: %v", err)
		} else {
			defer rdb.Close()
			lb := cache.NewLeaderboard(rdb, cfg.LeaderboardTTL, log)
			agentService.SetLeaderboardCache(lb)
			reviewService.SetLeaderboardCache(lb)
			verificationService.SetLeaderboardCache(lb)
			stakeService.SetLeaderboardCache(lb)
			log.Info("leaderboard cache enabled")
		}
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Agents:        agentService,
		Reviews:       reviewService,
		Verifications: verificationService,
		Stakes:        stakeService,
		Verifier:      auth.NewVerifier(auth.KeysFromAgents(st.agents), cfg.ReplayWindow),
		Feed:          ws.ServeWS(hub),
		MaxBodySize:   cfg.MaxRequestBodySize,
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting server on %s (store=%s)", srv.Addr, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config, log *logmatic.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		m := memory.New()
		return &stores{tx: m, agents: m, reviews: m, verifications: m, close: func() {}}, nil
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("connected to database")

	return &stores{
		tx:            postgresrepo.NewTransactor(pool),
		agents:        postgresrepo.NewAgentRepo(pool),
		reviews:       postgresrepo.NewReviewRepo(pool),
		verifications: postgresrepo.NewVerificationRepo(pool),
		close:         pool.Close,
	}, nil
}
