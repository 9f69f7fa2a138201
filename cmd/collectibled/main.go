// Collectibled registry daemon.
//
// Usage:
//
//	collectibled [--testnet --rpc-port=...] Run node
//	collectibled --help                     Show help
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/laqirace/collectibled/config"
	"github.com/laqirace/collectibled/internal/node"
	"golang.org/x/term"
)

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	n, err := node.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Wallet.Enabled {
		if err := unlockWallet(n); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			n.Stop()
			os.Exit(1)
		}
	}

	if err := n.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		n.Stop()
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	n.Stop()
}

func unlockWallet(n *node.Node) error {
	fmt.Fprint(os.Stderr, "Wallet password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	return n.UnlockWallet(password)
}
