package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/thanhnp/insight-apis/internal/addressbook"
	"github.com/thanhnp/insight-apis/internal/addrset"
	"github.com/thanhnp/insight-apis/internal/aggregator"
	"github.com/thanhnp/insight-apis/internal/api"
	"github.com/thanhnp/insight-apis/internal/api/handlers"
	"github.com/thanhnp/insight-apis/internal/config"
	"github.com/thanhnp/insight-apis/internal/infra/redis"
	"github.com/thanhnp/insight-apis/internal/logger"
	"github.com/thanhnp/insight-apis/internal/metrics"
	"github.com/thanhnp/insight-apis/internal/multichain"
	"github.com/thanhnp/insight-apis/internal/rpc"
	"github.com/thanhnp/insight-apis/internal/storage"
	"github.com/thanhnp/insight-apis/internal/sync"
	"github.com/thanhnp/insight-apis/internal/txdb"
)

// serve wires every enabled chain and runs until interrupted
func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(logger.WithLevel(cfg.Log.Level)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting insight-apis", "version", version)

	m := metrics.NewMetrics(nil)

	var cache addressbook.Cache
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		cache = redis.NewAddressCache(client, cfg.Redis.TTL)
		logger.Info(ctx, "address cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	chains := multichain.New[*handlers.Chain]()
	var (
		syncers     []*sync.Syncer
		chainStores []*storage.ChainStores
		nodes       []rpc.NodeClient
	)
	defer func() {
		for _, s := range syncers {
			s.Stop()
		}
		for _, n := range nodes {
			n.Close()
		}
		for _, cs := range chainStores {
			if err := cs.Close(); err != nil {
				logger.Error(ctx, "failed to close chain database", "error", err)
			}
		}
	}()

	aggCfg := aggregator.Config{
		MaxBatchSize:              cfg.Aggregator.MaxBatchSize,
		FetchConcurrency:          cfg.Aggregator.FetchConcurrency,
		DepositAddressConcurrency: cfg.Aggregator.DepositAddressConcurrency,
		DepositTxConcurrency:      cfg.Aggregator.DepositTxConcurrency,
	}

	for chain, chainCfg := range cfg.Chains() {
		dbPath := filepath.Join(cfg.Pebble.Path, chain)
		logger.Info(ctx, "opening pebble database", "chain", chain, "path", dbPath)
		db, err := storage.NewPebbleDB(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open %s database: %w", chain, err)
		}
		stores := storage.NewChainStores(db)
		chainStores = append(chainStores, stores)

		resolver, err := addrset.New(chain, chainCfg.Network)
		if err != nil {
			return err
		}

		var bookOpts []addressbook.Option
		if cache != nil {
			bookOpts = append(bookOpts, addressbook.WithCache(cache))
		}
		book := addressbook.New(chain, stores, bookOpts...)
		svc := aggregator.New(chain, aggCfg, book, txdb.New(chain, stores))

		node, err := rpc.NewClient(chain, chainCfg, m)
		if err != nil {
			return fmt.Errorf("failed to create %s node client: %w", chain, err)
		}
		nodes = append(nodes, node)

		syncer := sync.NewSyncer(node, stores, sync.Options{
			StartHeight:  chainCfg.StartHeight,
			PollInterval: chainCfg.PollInterval,
		}, m)
		if err := syncer.Start(ctx); err != nil {
			logger.Warn(ctx, "failed to start syncer", "chain", chain, "error", err)
		} else {
			syncers = append(syncers, syncer)
			logger.Info(ctx, "syncer started", "chain", chain)
		}

		chains.RegisterChain(chain, &handlers.Chain{
			Resolver: resolver,
			Service:  svc,
			Sync:     syncer,
		})
	}

	if len(chains.Chains()) == 0 {
		return errors.New("no chain enabled")
	}

	router := api.NewRouter(chains, m)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Engine(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown error", "error", err)
	}

	logger.Info(ctx, "server stopped")
	return nil
}
