package collectible

import (
	"errors"
	"testing"

	"github.com/laqirace/collectibled/internal/events"
	"github.com/laqirace/collectibled/internal/payment"
)

func TestEngine_RequestCharge(t *testing.T) {
	env := newTestEnv(t)
	sig := importLaqira(t, env)
	setSale(t, env, sig, 10, true, false, false)
	id, err := env.engine.Mint(alice, sig, quote)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	ch, cancel := env.bus.Subscribe(4)
	defer cancel()

	feeBefore := feeBalance(t, env)
	total, err := env.engine.RequestCharge(alice, id, 3, quote)
	if err != nil {
		t.Fatalf("RequestCharge failed: %v", err)
	}
	want := laqira(t).UsageCost.MulUint64(3) // 30e18
	if total.Cmp(want) != 0 {
		t.Errorf("total charged = %s, want %s", total, want)
	}
	if got := feeBalance(t, env); got.Cmp(feeBefore.Add(want)) != 0 {
		t.Errorf("fee balance = %s, want %s", got, feeBefore.Add(want))
	}

	select {
	case e := <-ch:
		rc, ok := e.(events.RechargeRequest)
		if !ok {
			t.Fatalf("event type = %T, want RechargeRequest", e)
		}
		if rc.InstanceID != id || rc.Requester != alice || rc.Units != 3 {
			t.Errorf("event = %+v", rc)
		}
		if rc.TotalPaid.Cmp(want) != 0 {
			t.Errorf("event total = %s, want %s", rc.TotalPaid, want)
		}
		if rc.PayToken != quote {
			t.Errorf("event token = %s, want %s", rc.PayToken, quote)
		}
	default:
		t.Fatal("no event published")
	}
}

func TestEngine_RequestChargeGuards(t *testing.T) {
	env := newTestEnv(t)
	sig := importLaqira(t, env)
	setSale(t, env, sig, 10, true, false, false)
	id, err := env.engine.Mint(alice, sig, quote)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if _, err := env.engine.RequestCharge(alice, 99, 1, quote); !errors.Is(err, ErrInstanceNotFound) {
		t.Errorf("charge of unknown instance error = %v, want %v", err, ErrInstanceNotFound)
	}
	// MaxUsage is 5.
	if _, err := env.engine.RequestCharge(alice, id, 6, quote); !errors.Is(err, ErrTooManyUnits) {
		t.Errorf("over-limit charge error = %v, want %v", err, ErrTooManyUnits)
	}
	if _, err := env.engine.RequestCharge(alice, id, 1, testAddr(0x77)); !errors.Is(err, payment.ErrUnsupportedToken) {
		t.Errorf("charge with bad token error = %v, want %v", err, payment.ErrUnsupportedToken)
	}
}

func TestEngine_RequestChargeRemovedTemplate(t *testing.T) {
	env := newTestEnv(t)
	sig := importLaqira(t, env)
	setSale(t, env, sig, 10, true, false, false)
	id, err := env.engine.Mint(alice, sig, quote)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if err := env.registry.Remove(owner, sig); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	// The instance outlives its template, but with the template gone its
	// max usage reads as zero, so no units can be bought.
	if _, err := env.engine.RequestCharge(alice, id, 1, quote); !errors.Is(err, ErrTooManyUnits) {
		t.Errorf("charge on removed template error = %v, want %v", err, ErrTooManyUnits)
	}
}

func TestEngine_RequestChargeInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	sig := importLaqira(t, env)
	setSale(t, env, sig, 10, true, false, false)
	id, err := env.engine.Mint(alice, sig, quote)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	pauper := testAddr(0x99)
	feeBefore := feeBalance(t, env)
	if _, err := env.engine.RequestCharge(pauper, id, 1, quote); !errors.Is(err, payment.ErrInsufficientAllowance) {
		t.Errorf("unfunded charge error = %v, want %v", err, payment.ErrInsufficientAllowance)
	}
	if got := feeBalance(t, env); got.Cmp(feeBefore) != 0 {
		t.Errorf("fee balance changed on failed charge: %s vs %s", got, feeBefore)
	}
}
