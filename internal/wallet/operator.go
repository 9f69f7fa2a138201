package wallet

import (
	"fmt"

	"github.com/laqirace/collectibled/pkg/crypto"
	"github.com/laqirace/collectibled/pkg/types"
)

// Operator is an unlocked identity used to call gated registry
// operations (owner or minter). It wraps the key derived at
// m/44'/coin'/account'/0/index from an encrypted keystore wallet.
type Operator struct {
	name string
	key  *HDKey
}

// LoadOperator decrypts a keystore wallet and derives its operator key.
func LoadOperator(ks *Keystore, walletName string, password []byte, account, index uint32) (*Operator, error) {
	seed, err := ks.Load(walletName, password)
	if err != nil {
		return nil, fmt.Errorf("load wallet %q: %w", walletName, err)
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	key, err := master.DeriveAddress(account, ChangeExternal, index)
	if err != nil {
		return nil, err
	}
	return &Operator{name: walletName, key: key}, nil
}

// Name returns the keystore wallet name the operator was loaded from.
func (o *Operator) Name() string { return o.name }

// Address returns the operator's principal address.
func (o *Operator) Address() types.Address { return o.key.Address() }

// Signer returns the operator's signing key.
func (o *Operator) Signer() (*crypto.PrivateKey, error) {
	return o.key.Signer()
}
