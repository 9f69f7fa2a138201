package collectible

import (
	"errors"

	"github.com/laqirace/collectibled/internal/events"
	"github.com/laqirace/collectibled/internal/payment"
	"github.com/laqirace/collectibled/internal/storage"
	"github.com/laqirace/collectibled/pkg/types"
)

// RequestCharge buys usage units for an issued instance. The instance's
// template is looked up by the signature recorded at mint time; if the
// template was removed since, its max usage reads as zero and any
// positive unit count is rejected. Payment goes to the fee recipient;
// usage consumption itself is tracked off-process by whoever consumes
// the RechargeRequest event. Returns the total charged.
func (e *Engine) RequestCharge(caller types.Address, instanceID, units uint64, payToken types.Address) (types.Amount, error) {
	var total types.Amount
	err := e.db.Update(func(tx storage.Txn) error {
		inst, err := e.instances.GetIn(tx, instanceID)
		if storage.IsNotFound(err) {
			return ErrInstanceNotFound
		}
		if err != nil {
			return err
		}

		var maxUsage uint64
		var usageCost types.Amount
		c, err := getIn(tx, inst.Collectible)
		if err == nil {
			maxUsage = c.MaxUsage
			usageCost = c.UsageCost
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if units > maxUsage {
			return ErrTooManyUnits
		}

		if ok, err := e.payments.IsAcceptedIn(tx, payToken); err != nil {
			return err
		} else if !ok {
			return payment.ErrUnsupportedToken
		}
		total = usageCost.MulUint64(units)
		return e.payments.Spend(tx, payToken, caller, e.auth.FeeRecipient(), total)
	})
	if err != nil {
		return types.Amount{}, err
	}

	e.logger.Info().Uint64("instance", instanceID).Uint64("units", units).
		Str("requester", caller.String()).Str("total", total.String()).
		Msg("Recharge requested")
	e.bus.Publish(events.RechargeRequest{
		InstanceID: instanceID,
		Requester:  caller,
		Units:      units,
		TotalPaid:  total,
		PayToken:   payToken,
	})
	return total, nil
}
