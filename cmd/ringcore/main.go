package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sudo696/ring/internal/config"
	"github.com/sudo696/ring/internal/devnet"
	"github.com/sudo696/ring/internal/node"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.DefaultConfig()

	flag.StringVar(&cfg.Network, "network", cfg.Network, "network (mainnet, regtest)")
	flag.BoolVar(&cfg.EnablePoW, "enable-pow", cfg.EnablePoW, "run the PoW nonce-search miner")
	flag.BoolVar(&cfg.EnableHive, "enable-hive", cfg.EnableHive, "run the Hive dwarf-lottery engine")
	flag.BoolVar(&cfg.AllowSolo, "allow-solo", cfg.AllowSolo, "skip the peer/IBD gate (regtest-equivalent escape hatch)")
	flag.Func("block-max-weight", fmt.Sprintf("block assembly weight limit (default %d)", cfg.BlockMaxWeight), func(s string) error {
		var v uint32
		_, err := fmt.Sscanf(s, "%d", &v)
		cfg.BlockMaxWeight = v
		return err
	})
	flag.Int64Var(&cfg.BlockMinTxFee, "block-min-tx-fee", cfg.BlockMinTxFee, "minimum satoshis/kvB once package selection runs out of high-priority entries")
	flag.DurationVar(&cfg.HiveCheckDelay, "hive-check-delay", cfg.HiveCheckDelay, "minimum spacing between dwarf-lottery draw attempts")
	flag.IntVar(&cfg.HiveCheckThreads, "hive-check-threads", cfg.HiveCheckThreads, "worker goroutines binning and checking dwarf draws")
	flag.BoolVar(&cfg.HiveEarlyAbort, "hive-early-abort", cfg.HiveEarlyAbort, "watch the chain tip during a dwarf-lottery draw and stop the bin workers when it moves")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for persistent data")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ringcore - PoW/Hive block production and proof-validation core\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  ringcore [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs against an in-memory devnet chain; point a real full node's\n")
		fmt.Fprintf(os.Stderr, "ChainReader/WalletFacade/PeerView/BlockSubmitter at node.New for\n")
		fmt.Fprintf(os.Stderr, "production use.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if v := os.Getenv("RINGCORE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting ringcore",
		zap.String("network", cfg.Network),
		zap.Bool("enable_pow", cfg.EnablePoW),
		zap.Bool("enable_hive", cfg.EnableHive),
	)

	if cfg.Network != "mainnet" {
		logger.Warn("not running on mainnet", zap.String("network", cfg.Network))
	}

	params := cfg.Params()

	chain := devnet.NewChain(params.PowLimit)
	wallet, err := devnet.NewWallet()
	if err != nil {
		return fmt.Errorf("devnet wallet: %w", err)
	}

	n, err := node.New(node.Options{
		Chain:      chain,
		Wallet:     wallet,
		Peers:      devnet.Peers{},
		Submitter:  &devnet.Submitter{Chain: chain, Logger: logger},
		Params:     params,
		DataDir:    cfg.DataDir,
		Logger:     logger,
		EnablePoW:  cfg.EnablePoW,
		EnableHive: cfg.EnableHive,
		AllowSolo:  cfg.AllowSolo,
	})
	if err != nil {
		return fmt.Errorf("construct node: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- n.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		n.Stop()
		select {
		case <-runErrCh:
		case <-time.After(5 * time.Second):
			logger.Warn("node did not shut down within the grace period")
		}
		return nil
	case err := <-runErrCh:
		if err != nil && err != context.Canceled {
			return fmt.Errorf("node exited: %w", err)
		}
		return nil
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return cfg.Build()
}
