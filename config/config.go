// Package config handles application configuration.
//
// Everything here is node-operational: network selection, data
// directories, RPC exposure, registry principals and logging. The
// registry's on-disk state lives under the data directory and is
// independent of these settings.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds node-specific runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// RPC server
	RPC RPCConfig

	// Registry principals
	Registry RegistryConfig

	// Operator wallet
	Wallet WalletConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// RegistryConfig names the principals gating registry operations.
// Addresses are bech32 strings; Minter defaults to Owner when empty.
type RegistryConfig struct {
	Owner        string `conf:"registry.owner"`
	Minter       string `conf:"registry.minter"`
	FeeRecipient string `conf:"registry.fee_recipient"`
}

// WalletConfig holds operator wallet settings.
type WalletConfig struct {
	Enabled bool   `conf:"wallet.enabled"`
	Name    string `conf:"wallet.name"` // Keystore wallet name.
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.collectibled
//	macOS:   ~/Library/Application Support/Collectibled
//	Windows: %APPDATA%\Collectibled
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".collectibled"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Collectibled")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Collectibled")
		}
		return filepath.Join(home, "AppData", "Roaming", "Collectibled")
	default:
		return filepath.Join(home, ".collectibled")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// RegistryDir returns the registry database directory.
func (c *Config) RegistryDir() string {
	return filepath.Join(c.NetworkDataDir(), "registry")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "collectibled.conf")
}
