package config

import (
	"fmt"

	"github.com/laqirace/collectibled/pkg/types"
)

// Validate checks runtime node config for obvious operator mistakes.
// The registry principals are parsed under the network's address HRP,
// so the active HRP must be set before calling.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}

	if cfg.Registry.Owner == "" {
		return fmt.Errorf("registry.owner is required")
	}
	if cfg.Registry.FeeRecipient == "" {
		return fmt.Errorf("registry.fee_recipient is required")
	}
	if cfg.Registry.Minter == "" {
		cfg.Registry.Minter = cfg.Registry.Owner
	}
	if _, _, _, err := cfg.Principals(); err != nil {
		return err
	}

	if cfg.Wallet.Enabled && cfg.Wallet.Name == "" {
		return fmt.Errorf("wallet.name is required when the wallet is enabled")
	}
	return nil
}

// AddressHRP returns the bech32 HRP for the configured network.
func (c *Config) AddressHRP() string {
	if c.Network == Testnet {
		return types.TestnetHRP
	}
	return types.MainnetHRP
}

// Principals parses the configured owner, minter and fee recipient
// addresses.
func (c *Config) Principals() (owner, minter, feeRecipient types.Address, err error) {
	if owner, err = types.ParseAddress(c.Registry.Owner); err != nil {
		err = fmt.Errorf("registry.owner: %w", err)
		return
	}
	minterStr := c.Registry.Minter
	if minterStr == "" {
		minterStr = c.Registry.Owner
	}
	if minter, err = types.ParseAddress(minterStr); err != nil {
		err = fmt.Errorf("registry.minter: %w", err)
		return
	}
	if feeRecipient, err = types.ParseAddress(c.Registry.FeeRecipient); err != nil {
		err = fmt.Errorf("registry.fee_recipient: %w", err)
		return
	}
	return
}
