// Package node wires the registry components into a runnable daemon
// that can be embedded in any binary.
package node

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/laqirace/collectibled/config"
	"github.com/laqirace/collectibled/internal/auth"
	"github.com/laqirace/collectibled/internal/collectible"
	"github.com/laqirace/collectibled/internal/events"
	"github.com/laqirace/collectibled/internal/ledger"
	klog "github.com/laqirace/collectibled/internal/log"
	"github.com/laqirace/collectibled/internal/payment"
	"github.com/laqirace/collectibled/internal/rpc"
	"github.com/laqirace/collectibled/internal/storage"
	"github.com/laqirace/collectibled/internal/wallet"
	"github.com/laqirace/collectibled/pkg/types"
	"github.com/rs/zerolog"
)

// Node is a fully-initialized registry daemon.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	// Core
	db        storage.DB
	authority *auth.Authority
	bus       *events.Bus
	payments  *payment.Ledger
	instances *ledger.Store
	registry  *collectible.Registry
	engine    *collectible.Engine

	// RPC
	rpcServer *rpc.Server

	// Operator wallet (nil until UnlockWallet).
	keystore *wallet.Keystore
	operator *wallet.Operator

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates and initializes a new Node. It performs all setup steps
// (logger, storage, principals, registry, engine, RPC) but does NOT
// start background goroutines. Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	cfg.DataDir = expandHome(cfg.DataDir)

	// ── 1. Set address HRP ──────────────────────────────────────────
	types.SetAddressHRP(cfg.AddressHRP())

	// ── 2. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = logsDir + "/collectibled.log"
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("datadir", cfg.DataDir).
		Msg("Starting Collectibled Node")

	// ── 3. Registry principals ──────────────────────────────────────
	owner, minter, feeRecipient, err := cfg.Principals()
	if err != nil {
		return nil, fmt.Errorf("resolve principals: %w", err)
	}
	authority := auth.New(owner, minter, feeRecipient)
	logger.Info().
		Str("owner", owner.String()).
		Str("minter", minter.String()).
		Str("fee_recipient", feeRecipient.String()).
		Msg("Registry principals resolved")

	// ── 4. Open storage ─────────────────────────────────────────────
	if err := os.MkdirAll(cfg.RegistryDir(), 0755); err != nil {
		return nil, fmt.Errorf("creating registry dir: %w", err)
	}
	db, err := storage.NewBadger(cfg.RegistryDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.RegistryDir(), err)
	}
	logger.Info().Str("path", cfg.RegistryDir()).Msg("Database opened")

	// ── 5. Core components ──────────────────────────────────────────
	bus := events.NewBus()
	payments := payment.NewLedger(db, authority)
	instances := ledger.NewStore(db)
	registry := collectible.NewRegistry(db, authority, bus)
	engine := collectible.NewEngine(db, authority, bus, instances, payments)

	// ── 6. Keystore ─────────────────────────────────────────────────
	var ks *wallet.Keystore
	if cfg.Wallet.Enabled {
		ks, err = wallet.NewKeystore(cfg.KeystoreDir())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open keystore: %w", err)
		}
	}

	// ── 7. RPC server ───────────────────────────────────────────────
	var rpcServer *rpc.Server
	if cfg.RPC.Enabled {
		rpcServer = rpc.New(rpcListenAddr(cfg), string(cfg.Network),
			registry, engine, payments, instances, authority, cfg.RPC)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Node{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		authority: authority,
		bus:       bus,
		payments:  payments,
		instances: instances,
		registry:  registry,
		engine:    engine,
		rpcServer: rpcServer,
		keystore:  ks,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start launches the RPC server and the event audit loop.
func (n *Node) Start() error {
	n.wg.Add(1)
	go n.auditEvents()

	if n.rpcServer != nil {
		if err := n.rpcServer.Start(); err != nil {
			return fmt.Errorf("start rpc: %w", err)
		}
		n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server listening")
	}

	return nil
}

// Stop shuts down the RPC server, background loops and the database.
func (n *Node) Stop() {
	n.logger.Info().Msg("Shutting down")

	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}

	n.cancel()
	n.wg.Wait()

	if err := n.db.Close(); err != nil {
		n.logger.Error().Err(err).Msg("Failed to close database")
	}
	n.logger.Info().Msg("Shutdown complete")
}

// auditEvents logs every committed registry event. Buffer is sized so
// slow log sinks do not make the bus drop under normal load.
func (n *Node) auditEvents() {
	defer n.wg.Done()

	ch, unsubscribe := n.bus.Subscribe(256)
	defer unsubscribe()

	for {
		select {
		case <-n.ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			n.logEvent(e)
		}
	}
}

func (n *Node) logEvent(e events.Event) {
	switch ev := e.(type) {
	case events.ImportCollectible:
		n.logger.Info().Str("name", ev.Name).Str("signature", ev.Signature.String()).
			Msg("Event: collectible imported")
	case events.UpdateCollectible:
		n.logger.Info().Str("name", ev.Name).Str("signature", ev.Signature.String()).
			Msg("Event: collectible updated")
	case events.RemoveCollectible:
		n.logger.Info().Str("signature", ev.Signature.String()).
			Msg("Event: collectible removed")
	case events.RequestForMinting:
		n.logger.Info().Str("requester", ev.Requester.String()).
			Str("collectible", ev.Collectible.String()).
			Uint64("sequence_num", ev.SequenceNum).
			Msg("Event: mint requested")
	case events.RechargeRequest:
		n.logger.Info().Uint64("instance_id", ev.InstanceID).
			Str("requester", ev.Requester.String()).
			Uint64("units", ev.Units).
			Str("total_paid", ev.TotalPaid.String()).
			Msg("Event: recharge requested")
	default:
		n.logger.Debug().Str("kind", string(e.Kind())).Msg("Event")
	}
}

// UnlockWallet loads the configured operator wallet from the keystore.
// The password slice is consumed by the keystore and not retained.
func (n *Node) UnlockWallet(password []byte) error {
	if n.keystore == nil {
		return fmt.Errorf("wallet is not enabled")
	}
	op, err := wallet.LoadOperator(n.keystore, n.cfg.Wallet.Name, password, 0, 0)
	if err != nil {
		return fmt.Errorf("unlock wallet %q: %w", n.cfg.Wallet.Name, err)
	}
	n.operator = op
	n.logger.Info().
		Str("wallet", op.Name()).
		Str("address", op.Address().String()).
		Msg("Operator wallet unlocked")
	return nil
}

// Operator returns the unlocked operator wallet, or nil.
func (n *Node) Operator() *wallet.Operator { return n.operator }

// Keystore returns the node keystore, or nil when the wallet is disabled.
func (n *Node) Keystore() *wallet.Keystore { return n.keystore }

// Registry returns the template registry.
func (n *Node) Registry() *collectible.Registry { return n.registry }

// Engine returns the issuance engine.
func (n *Node) Engine() *collectible.Engine { return n.engine }

// Payments returns the payment ledger.
func (n *Node) Payments() *payment.Ledger { return n.payments }

// Instances returns the instance store.
func (n *Node) Instances() *ledger.Store { return n.instances }

// Bus returns the event bus.
func (n *Node) Bus() *events.Bus { return n.bus }

// RPCAddr returns the bound RPC address, or "" when RPC is disabled.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}
