package collectible

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/laqirace/collectibled/internal/auth"
	"github.com/laqirace/collectibled/internal/events"
	klog "github.com/laqirace/collectibled/internal/log"
	"github.com/laqirace/collectibled/internal/storage"
	"github.com/laqirace/collectibled/pkg/types"
	"github.com/rs/zerolog"
)

// Key prefixes for the registry.
var (
	prefixTemplate = []byte("c/")  // c/<sig(32)> -> Collectible JSON
	prefixName     = []byte("cn/") // cn/<name> -> sig(32)
	prefixSale     = []byte("ss/") // ss/<sig(32)> -> SaleStatus JSON
	keySignatures  = []byte("cs")  // JSON array of live signatures, import order
)

// Registry is the collectible template store. All mutators are
// owner-gated and commit atomically; events are published only after
// the transaction commits.
type Registry struct {
	db     storage.DB
	auth   *auth.Authority
	bus    *events.Bus
	logger zerolog.Logger
}

// NewRegistry creates a template registry.
func NewRegistry(db storage.DB, authority *auth.Authority, bus *events.Bus) *Registry {
	return &Registry{db: db, auth: authority, bus: bus, logger: klog.Registry}
}

func templateKey(sig types.Signature) []byte {
	key := make([]byte, len(prefixTemplate)+len(sig))
	copy(key, prefixTemplate)
	copy(key[len(prefixTemplate):], sig[:])
	return key
}

func nameKey(name string) []byte {
	key := make([]byte, len(prefixName)+len(name))
	copy(key, prefixName)
	copy(key[len(prefixName):], name)
	return key
}

// getIn reads a live template, ErrNotFound if the signature is not live.
func getIn(tx storage.Txn, sig types.Signature) (Collectible, error) {
	data, err := tx.Get(templateKey(sig))
	if storage.IsNotFound(err) {
		return Collectible{}, ErrNotFound
	}
	if err != nil {
		return Collectible{}, fmt.Errorf("template get: %w", err)
	}
	var c Collectible
	if err := json.Unmarshal(data, &c); err != nil {
		return Collectible{}, fmt.Errorf("template unmarshal: %w", err)
	}
	return c, nil
}

func putIn(tx storage.Txn, sig types.Signature, c Collectible) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("template marshal: %w", err)
	}
	return tx.Put(templateKey(sig), data)
}

// signaturesIn reads the ordered live-signature list.
func signaturesIn(tx storage.Txn) ([]types.Signature, error) {
	data, err := tx.Get(keySignatures)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("signature list get: %w", err)
	}
	var sigs []types.Signature
	if err := json.Unmarshal(data, &sigs); err != nil {
		return nil, fmt.Errorf("signature list unmarshal: %w", err)
	}
	return sigs, nil
}

func putSignaturesIn(tx storage.Txn, sigs []types.Signature) error {
	data, err := json.Marshal(sigs)
	if err != nil {
		return fmt.Errorf("signature list marshal: %w", err)
	}
	return tx.Put(keySignatures, data)
}

// Import registers a new collectible template. The template's content
// signature becomes its registry key; a live template with the same
// signature or the same name rejects the import.
func (r *Registry) Import(caller types.Address, c Collectible) (types.Signature, error) {
	if err := r.auth.RequireOwner(caller); err != nil {
		return types.Signature{}, err
	}
	sig := c.Signature()

	err := r.db.Update(func(tx storage.Txn) error {
		if ok, err := tx.Has(templateKey(sig)); err != nil {
			return err
		} else if ok {
			return ErrAlreadyExists
		}
		if ok, err := tx.Has(nameKey(c.Name)); err != nil {
			return err
		} else if ok {
			return ErrAlreadyExists
		}
		if err := putIn(tx, sig, c); err != nil {
			return err
		}
		if err := tx.Put(nameKey(c.Name), sig[:]); err != nil {
			return err
		}
		sigs, err := signaturesIn(tx)
		if err != nil {
			return err
		}
		return putSignaturesIn(tx, append(sigs, sig))
	})
	if err != nil {
		return types.Signature{}, err
	}

	r.logger.Info().Str("name", c.Name).Str("signature", sig.String()).
		Msg("Collectible imported")
	r.bus.Publish(events.ImportCollectible{
		Name:      c.Name,
		MediaRef:  c.MediaRef,
		Price:     c.Price,
		UsageCost: c.UsageCost,
		MaxUsage:  c.MaxUsage,
		Signature: sig,
	})
	return sig, nil
}

// Update replaces the attributes of a live template. The template is
// re-keyed under the signature derived from the new attributes; its sale
// record moves with it and the old signature leaves the live set. The
// new signature is returned.
func (r *Registry) Update(caller types.Address, oldSig types.Signature, c Collectible) (types.Signature, error) {
	if err := r.auth.RequireOwner(caller); err != nil {
		return types.Signature{}, err
	}
	newSig := c.Signature()

	err := r.db.Update(func(tx storage.Txn) error {
		old, err := getIn(tx, oldSig)
		if err != nil {
			return err
		}
		if newSig == oldSig {
			return nil // Attributes unchanged.
		}
		if ok, err := tx.Has(templateKey(newSig)); err != nil {
			return err
		} else if ok {
			return ErrAlreadyExists
		}
		if c.Name != old.Name {
			if ok, err := tx.Has(nameKey(c.Name)); err != nil {
				return err
			} else if ok {
				return ErrAlreadyExists
			}
		}

		if err := tx.Delete(templateKey(oldSig)); err != nil {
			return err
		}
		if err := tx.Delete(nameKey(old.Name)); err != nil {
			return err
		}
		if err := putIn(tx, newSig, c); err != nil {
			return err
		}
		if err := tx.Put(nameKey(c.Name), newSig[:]); err != nil {
			return err
		}

		// Sale record and accumulated supply follow the template.
		sale, err := saleIn(tx, oldSig)
		if err != nil {
			return err
		}
		if err := tx.Delete(saleKey(oldSig)); err != nil {
			return err
		}
		if err := putSaleIn(tx, newSig, sale); err != nil {
			return err
		}

		sigs, err := signaturesIn(tx)
		if err != nil {
			return err
		}
		for i, s := range sigs {
			if s == oldSig {
				sigs[i] = newSig
				break
			}
		}
		return putSignaturesIn(tx, sigs)
	})
	if err != nil {
		return types.Signature{}, err
	}

	r.logger.Info().Str("name", c.Name).
		Str("old_signature", oldSig.String()).Str("signature", newSig.String()).
		Msg("Collectible updated")
	r.bus.Publish(events.UpdateCollectible{
		Name:      c.Name,
		MediaRef:  c.MediaRef,
		Price:     c.Price,
		UsageCost: c.UsageCost,
		MaxUsage:  c.MaxUsage,
		Signature: newSig,
	})
	return newSig, nil
}

// Remove deletes a live template. Its sale record and any issued
// instances are left behind as historical records; only the template
// data, name mapping and live-set entry go away.
func (r *Registry) Remove(caller types.Address, sig types.Signature) error {
	if err := r.auth.RequireOwner(caller); err != nil {
		return err
	}
	err := r.db.Update(func(tx storage.Txn) error {
		c, err := getIn(tx, sig)
		if err != nil {
			return err
		}
		if err := tx.Delete(templateKey(sig)); err != nil {
			return err
		}
		if err := tx.Delete(nameKey(c.Name)); err != nil {
			return err
		}
		sigs, err := signaturesIn(tx)
		if err != nil {
			return err
		}
		for i, s := range sigs {
			if s == sig {
				sigs = append(sigs[:i], sigs[i+1:]...)
				break
			}
		}
		return putSignaturesIn(tx, sigs)
	})
	if err != nil {
		return err
	}

	r.logger.Info().Str("signature", sig.String()).Msg("Collectible removed")
	r.bus.Publish(events.RemoveCollectible{Signature: sig})
	return nil
}

// SetSaleStatus overwrites the issuance policy for a live template.
// The accumulated supply is preserved across policy changes.
func (r *Registry) SetSaleStatus(caller types.Address, sig types.Signature, maxSupply uint64, permit, preSale, byRequest bool) error {
	if err := r.auth.RequireOwner(caller); err != nil {
		return err
	}
	err := r.db.Update(func(tx storage.Txn) error {
		if ok, err := tx.Has(templateKey(sig)); err != nil {
			return err
		} else if !ok {
			return ErrNotFound
		}
		sale, err := saleIn(tx, sig)
		if err != nil {
			return err
		}
		sale.MaxSupply = maxSupply
		sale.SalePermit = permit
		sale.PreSale = preSale
		sale.SaleByRequest = byRequest
		return putSaleIn(tx, sig, sale)
	})
	if err != nil {
		return err
	}
	r.logger.Info().Str("signature", sig.String()).
		Uint64("max_supply", maxSupply).Bool("permit", permit).
		Bool("presale", preSale).Bool("by_request", byRequest).
		Msg("Sale status set")
	return nil
}

// Data returns the attributes of a template, zero-valued if the
// signature is not live.
func (r *Registry) Data(sig types.Signature) (Collectible, error) {
	var c Collectible
	err := r.db.View(func(tx storage.Txn) error {
		got, err := getIn(tx, sig)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		c = got
		return nil
	})
	return c, err
}

// SignatureByName resolves a template name to its live signature.
func (r *Registry) SignatureByName(name string) (types.Signature, error) {
	var sig types.Signature
	err := r.db.View(func(tx storage.Txn) error {
		data, err := tx.Get(nameKey(name))
		if storage.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if len(data) != len(sig) {
			return fmt.Errorf("name index corrupt: %d bytes", len(data))
		}
		copy(sig[:], data)
		return nil
	})
	return sig, err
}

// Signatures returns the live signatures in import order.
func (r *Registry) Signatures() ([]types.Signature, error) {
	var sigs []types.Signature
	err := r.db.View(func(tx storage.Txn) error {
		var err error
		sigs, err = signaturesIn(tx)
		return err
	})
	return sigs, err
}

// SaleData returns the sale record for a signature, zero-valued if none
// was ever set. Removed templates keep reporting their last record.
func (r *Registry) SaleData(sig types.Signature) (SaleStatus, error) {
	var sale SaleStatus
	err := r.db.View(func(tx storage.Txn) error {
		var err error
		sale, err = saleIn(tx, sig)
		return err
	})
	return sale, err
}
