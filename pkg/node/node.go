// Copyright 2025 Certen Protocol
//
// Package node boots the in-process CometBFT consensus engine against an
// abcitypes.Application, using the node's standard on-disk layout for its
// private validator key, node key and genesis document.

package node

import (
	"fmt"
	"os"
	"path/filepath"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	dbm "github.com/cometbft/cometbft-db"
	"github.com/cometbft/cometbft/config"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
)

// Engine wraps a running CometBFT node.
type Engine struct {
	node *node.Node
}

// Start loads the private validator, node key and genesis document from
// cometCfg.RootDir's standard layout, wires app in as the ABCI application
// over an in-process client creator, and starts the node.
func Start(cometCfg *config.Config, app abcitypes.Application, logger cmtlog.Logger) (*Engine, error) {
	if cometCfg == nil {
		return nil, fmt.Errorf("node: cometCfg must not be nil")
	}
	if app == nil {
		return nil, fmt.Errorf("node: abci app must not be nil")
	}

	if _, err := os.Stat(cometCfg.NodeKeyFile()); err != nil {
		return nil, fmt.Errorf("node: node key not found at %s: %w", cometCfg.NodeKeyFile(), err)
	}

	dbProvider := config.DBProvider(func(ctx *config.DBContext) (dbm.DB, error) {
		return dbm.NewDB(ctx.ID, dbm.BackendType(cometCfg.DBBackend), filepath.Join(cometCfg.RootDir, "data"))
	})

	pv := privval.LoadFilePV(cometCfg.PrivValidatorKeyFile(), cometCfg.PrivValidatorStateFile())

	nodeKey, err := p2p.LoadNodeKey(cometCfg.NodeKeyFile())
	if err != nil {
		return nil, fmt.Errorf("node: load node key: %w", err)
	}

	n, err := node.NewNode(
		cometCfg,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(app),
		node.DefaultGenesisDocProviderFunc(cometCfg),
		dbProvider,
		node.DefaultMetricsProvider(cometCfg.Instrumentation),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("node: create cometbft node: %w", err)
	}

	if err := n.Start(); err != nil {
		return nil, fmt.Errorf("node: start cometbft node: %w", err)
	}

	return &Engine{node: n}, nil
}

// Stop gracefully shuts the node down.
func (e *Engine) Stop() error {
	if e.node == nil || !e.node.IsRunning() {
		return nil
	}
	return e.node.Stop()
}
