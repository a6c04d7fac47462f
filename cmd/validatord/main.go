// Copyright 2025 Certen Protocol

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	cometcfg "github.com/cometbft/cometbft/config"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/touba73/aleo-lambda-blockchain/pkg/auxindex"
	"github.com/touba73/aleo-lambda-blockchain/pkg/config"
	"github.com/touba73/aleo-lambda-blockchain/pkg/height"
	"github.com/touba73/aleo-lambda-blockchain/pkg/kvstore"
	"github.com/touba73/aleo-lambda-blockchain/pkg/metrics"
	"github.com/touba73/aleo-lambda-blockchain/pkg/node"
	"github.com/touba73/aleo-lambda-blockchain/pkg/orchestrator"
	"github.com/touba73/aleo-lambda-blockchain/pkg/programstore"
	"github.com/touba73/aleo-lambda-blockchain/pkg/proofengine"
	"github.com/touba73/aleo-lambda-blockchain/pkg/recordstore"
	"github.com/touba73/aleo-lambda-blockchain/pkg/validatorset"
)

const httpShutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to validatord.yaml; missing file falls back to defaults and env overrides")
	flag.Parse()

	logger := log.New(os.Stdout, "[validatord] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	records, programs, vs, heightF, err := openStores(cfg)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}

	app := orchestrator.New(records, programs, vs, heightF, proofengine.NewGnarkEngine())

	metricsReg, promReg := metrics.NewRegistry()
	app.SetMetrics(metricsReg)

	if cfg.AuxIndex.Enabled {
		idx, err := auxindex.Open(cfg.AuxIndex.DSN)
		if err != nil {
			return fmt.Errorf("open aux index: %w", err)
		}
		defer idx.Close()
		app.SetAuxIndex(idx)
	}

	cometCfg := cometcfg.DefaultConfig()
	cometCfg.SetRoot(cfg.CometHome)
	cmtLogger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout)).With("module", "cometbft")

	engine, err := node.Start(cometCfg, app, cmtLogger)
	if err != nil {
		return fmt.Errorf("start consensus node: %w", err)
	}
	defer engine.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler(promReg))
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("http server: %v", err)
		}
	}()

	logger.Printf("validatord running: chain=%s data_dir=%s listen=%s", cfg.ChainID, cfg.DataDir, cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Printf("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

func openStores(cfg *config.Config) (*recordstore.Store, *programstore.Store, *validatorset.Set, *height.File, error) {
	recordsDB, err := dbm.NewGoLevelDB("records", cfg.DataDir)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open records db: %w", err)
	}
	programsDB, err := dbm.NewGoLevelDB("programs", cfg.DataDir)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open programs db: %w", err)
	}
	validatorsDB, err := dbm.NewGoLevelDB("validators", cfg.DataDir)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open validators db: %w", err)
	}
	heightDB, err := dbm.NewGoLevelDB("height", cfg.DataDir)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open height db: %w", err)
	}

	records, err := recordstore.Open(kvstore.NewDBAdapter(recordsDB))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open record store: %w", err)
	}
	programs, err := programstore.Open(kvstore.NewDBAdapter(programsDB))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open program store: %w", err)
	}
	vs, err := validatorset.Open(kvstore.NewDBAdapter(validatorsDB))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open validator set: %w", err)
	}
	heightF := height.Open(kvstore.NewDBAdapter(heightDB))

	return records, programs, vs, heightF, nil
}
