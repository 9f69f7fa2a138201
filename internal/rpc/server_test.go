package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/laqirace/collectibled/config"
	"github.com/laqirace/collectibled/internal/auth"
	"github.com/laqirace/collectibled/internal/collectible"
	"github.com/laqirace/collectibled/internal/events"
	"github.com/laqirace/collectibled/internal/ledger"
	klog "github.com/laqirace/collectibled/internal/log"
	"github.com/laqirace/collectibled/internal/payment"
	"github.com/laqirace/collectibled/internal/storage"
	"github.com/laqirace/collectibled/pkg/types"
)

const (
	testPrice     = "2000000000000000000"    // 2e18
	testUsageCost = "10000000000000000000"   // 10e18
	testFunding   = "1000000000000000000000" // 1000e18
)

// testEnv holds all components for an RPC test.
type testEnv struct {
	server    *Server
	registry  *collectible.Registry
	engine    *collectible.Engine
	payments  *payment.Ledger
	instances *ledger.Store
	db        storage.DB
	url       string

	owner  types.Address
	minter types.Address
	feeRcv types.Address
	alice  types.Address
	bob    types.Address
	quote  types.Address
}

func rpcTestAddr(b byte) types.Address {
	var a types.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func setupTestEnv(t *testing.T, rpcCfg ...config.RPCConfig) *testEnv {
	t.Helper()
	klog.Init("error", false, "")

	env := &testEnv{
		owner:  rpcTestAddr(0x01),
		minter: rpcTestAddr(0x02),
		feeRcv: rpcTestAddr(0x03),
		alice:  rpcTestAddr(0xa1),
		bob:    rpcTestAddr(0xb2),
		quote:  rpcTestAddr(0xee),
	}

	env.db = storage.NewMemory()
	authority := auth.New(env.owner, env.minter, env.feeRcv)
	bus := events.NewBus()
	env.payments = payment.NewLedger(env.db, authority)
	env.instances = ledger.NewStore(env.db)
	env.registry = collectible.NewRegistry(env.db, authority, bus)
	env.engine = collectible.NewEngine(env.db, authority, bus, env.instances, env.payments)

	// Fund the test buyers through the quote token.
	if err := env.payments.AddQuoteToken(env.owner, env.quote); err != nil {
		t.Fatalf("add quote token: %v", err)
	}
	funding, err := types.ParseAmount(testFunding)
	if err != nil {
		t.Fatalf("parse funding: %v", err)
	}
	for _, holder := range []types.Address{env.alice, env.bob} {
		if err := env.payments.Credit(env.owner, env.quote, holder, funding); err != nil {
			t.Fatalf("credit: %v", err)
		}
		if err := env.payments.Approve(holder, env.quote, funding); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}

	env.server = New("127.0.0.1:0", "testnet",
		env.registry, env.engine, env.payments, env.instances, authority, rpcCfg...)
	if err := env.server.Start(); err != nil {
		t.Fatalf("start rpc: %v", err)
	}
	t.Cleanup(func() { env.server.Stop() })

	env.url = fmt.Sprintf("http://%s/", env.server.Addr())
	return env
}

func rpcCall(t *testing.T, url, method string, params interface{}) Response {
	t.Helper()
	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", method, err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rpcResp
}

// mustResult asserts a successful call and decodes the result into target.
func mustResult(t *testing.T, resp Response, target interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected error: [%d] %s", resp.Error.Code, resp.Error.Message)
	}
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
}

func mustErrorCode(t *testing.T, resp Response, code int) {
	t.Helper()
	if resp.Error == nil {
		t.Fatalf("expected error with code %d, got result %v", code, resp.Result)
	}
	if resp.Error.Code != code {
		t.Fatalf("error code = %d (%s), want %d", resp.Error.Code, resp.Error.Message, code)
	}
}

func testCollectibleParam() CollectibleParam {
	return CollectibleParam{
		Name:      "Laqira",
		MediaRef:  "ipfs://QmLaqiraCar",
		Price:     testPrice,
		UsageCost: testUsageCost,
		MaxUsage:  5,
	}
}

// importCollectible imports the standard test template and returns its
// signature.
func importCollectible(t *testing.T, env *testEnv) string {
	t.Helper()
	var result SignatureResult
	mustResult(t, rpcCall(t, env.url, "registry_import", testCollectibleParam()), &result)
	if result.Signature == "" {
		t.Fatal("empty signature from import")
	}
	return result.Signature
}

func setSale(t *testing.T, env *testEnv, sig string, maxSupply uint64, permit, preSale, byRequest bool) {
	t.Helper()
	resp := rpcCall(t, env.url, "sale_setStatus", SaleStatusParam{
		Signature:     sig,
		MaxSupply:     maxSupply,
		SalePermit:    permit,
		PreSale:       preSale,
		SaleByRequest: byRequest,
	})
	if resp.Error != nil {
		t.Fatalf("sale_setStatus: %s", resp.Error.Message)
	}
}

// ── Registry ────────────────────────────────────────────────────────────

func TestRPC_RegistryImportAndGet(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)

	var got CollectibleResult
	mustResult(t, rpcCall(t, env.url, "registry_getCollectible", SignatureParam{Signature: sig}), &got)
	if got.Name != "Laqira" || got.MediaRef != "ipfs://QmLaqiraCar" {
		t.Errorf("attributes = %q/%q", got.Name, got.MediaRef)
	}
	if got.Price != testPrice || got.UsageCost != testUsageCost || got.MaxUsage != 5 {
		t.Errorf("economics = %s/%s/%d", got.Price, got.UsageCost, got.MaxUsage)
	}

	var byName SignatureResult
	mustResult(t, rpcCall(t, env.url, "registry_getSignature", NameParam{Name: "Laqira"}), &byName)
	if byName.Signature != sig {
		t.Errorf("signature by name = %s, want %s", byName.Signature, sig)
	}

	var list []string
	mustResult(t, rpcCall(t, env.url, "registry_list", nil), &list)
	if len(list) != 1 || list[0] != sig {
		t.Errorf("list = %v, want [%s]", list, sig)
	}
}

func TestRPC_RegistryImportDuplicate(t *testing.T) {
	env := setupTestEnv(t)
	importCollectible(t, env)

	resp := rpcCall(t, env.url, "registry_import", testCollectibleParam())
	mustErrorCode(t, resp, CodeRejected)
}

func TestRPC_RegistryUpdate(t *testing.T) {
	env := setupTestEnv(t)
	oldSig := importCollectible(t, env)

	updated := testCollectibleParam()
	updated.Name = "Laqira GT"
	updated.Price = "3000000000000000000"

	var result SignatureResult
	mustResult(t, rpcCall(t, env.url, "registry_update", UpdateParam{
		Signature:        oldSig,
		CollectibleParam: updated,
	}), &result)
	if result.Signature == oldSig {
		t.Fatal("update did not re-key the template")
	}

	// Old name is gone, new one resolves to the new signature.
	mustErrorCode(t, rpcCall(t, env.url, "registry_getSignature", NameParam{Name: "Laqira"}), CodeNotFound)
	var byName SignatureResult
	mustResult(t, rpcCall(t, env.url, "registry_getSignature", NameParam{Name: "Laqira GT"}), &byName)
	if byName.Signature != result.Signature {
		t.Errorf("signature by name = %s, want %s", byName.Signature, result.Signature)
	}

	var list []string
	mustResult(t, rpcCall(t, env.url, "registry_list", nil), &list)
	if len(list) != 1 || list[0] != result.Signature {
		t.Errorf("list = %v, want [%s]", list, result.Signature)
	}
}

func TestRPC_RegistryUpdateNotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "registry_update", UpdateParam{
		Signature:        types.Signature{}.String(),
		CollectibleParam: testCollectibleParam(),
	})
	mustErrorCode(t, resp, CodeNotFound)
}

func TestRPC_RegistryRemove(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)

	var ok bool
	mustResult(t, rpcCall(t, env.url, "registry_remove", SignatureParam{Signature: sig}), &ok)
	if !ok {
		t.Fatal("remove returned false")
	}

	mustErrorCode(t, rpcCall(t, env.url, "registry_getSignature", NameParam{Name: "Laqira"}), CodeNotFound)
	mustErrorCode(t, rpcCall(t, env.url, "registry_remove", SignatureParam{Signature: sig}), CodeNotFound)
}

// ── Sale policy ─────────────────────────────────────────────────────────

func TestRPC_SaleStatusRoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)
	setSale(t, env, sig, 100, true, true, false)

	var status SaleStatusResult
	mustResult(t, rpcCall(t, env.url, "sale_getStatus", SignatureParam{Signature: sig}), &status)
	if status.MaxSupply != 100 || !status.SalePermit || !status.PreSale || status.SaleByRequest {
		t.Errorf("status = %+v", status)
	}
	if status.TotalSupply != 0 {
		t.Errorf("total_supply = %d, want 0", status.TotalSupply)
	}
}

func TestRPC_SaleSetStatusUnknown(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "sale_setStatus", SaleStatusParam{
		Signature:  types.Signature{}.String(),
		SalePermit: true,
	})
	mustErrorCode(t, resp, CodeNotFound)
}

// ── Minting ─────────────────────────────────────────────────────────────

func TestRPC_MintCollectible(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)
	setSale(t, env, sig, 10, true, false, false)

	var minted MintResult
	mustResult(t, rpcCall(t, env.url, "mint_collectible", MintParam{
		Buyer:     env.alice.String(),
		Signature: sig,
		PayToken:  env.quote.String(),
	}), &minted)
	if minted.InstanceID != 1 {
		t.Errorf("instance_id = %d, want 1", minted.InstanceID)
	}

	var status SaleStatusResult
	mustResult(t, rpcCall(t, env.url, "sale_getStatus", SignatureParam{Signature: sig}), &status)
	if status.TotalSupply != 1 {
		t.Errorf("total_supply = %d, want 1", status.TotalSupply)
	}

	var owner OwnerResult
	mustResult(t, rpcCall(t, env.url, "ledger_getOwner", InstanceParam{InstanceID: 1}), &owner)
	if owner.Owner != env.alice.String() {
		t.Errorf("owner = %s, want %s", owner.Owner, env.alice.String())
	}

	// The purchase price landed with the fee recipient.
	var fee AmountResult
	mustResult(t, rpcCall(t, env.url, "payment_getBalance", BalanceParam{
		Token:  env.quote.String(),
		Holder: env.feeRcv.String(),
	}), &fee)
	if fee.Amount != testPrice {
		t.Errorf("fee balance = %s, want %s", fee.Amount, testPrice)
	}
}

func TestRPC_MintWithoutPermit(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)

	resp := rpcCall(t, env.url, "mint_collectible", MintParam{
		Buyer:     env.alice.String(),
		Signature: sig,
		PayToken:  env.quote.String(),
	})
	mustErrorCode(t, resp, CodeRejected)
}

func TestRPC_MintUnknownSignature(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "mint_collectible", MintParam{
		Buyer:     env.alice.String(),
		Signature: types.Signature{}.String(),
		PayToken:  env.quote.String(),
	})
	mustErrorCode(t, resp, CodeNotFound)
}

func TestRPC_MintPresale(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)
	setSale(t, env, sig, 10, true, true, false)

	var minted MintResult
	mustResult(t, rpcCall(t, env.url, "mint_presale", MintParam{
		Buyer:     env.alice.String(),
		Signature: sig,
		PayToken:  env.quote.String(),
	}), &minted)
	if minted.InstanceID != 1 {
		t.Errorf("instance_id = %d, want 1", minted.InstanceID)
	}

	// One presale claim per buyer per template name.
	resp := rpcCall(t, env.url, "mint_presale", MintParam{
		Buyer:     env.alice.String(),
		Signature: sig,
		PayToken:  env.quote.String(),
	})
	mustErrorCode(t, resp, CodeRejected)
}

func TestRPC_MintRequestAndFulfill(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)
	setSale(t, env, sig, 10, true, true, true)

	var reserved RequestResult
	mustResult(t, rpcCall(t, env.url, "mint_request", MintParam{
		Buyer:     env.alice.String(),
		Signature: sig,
		PayToken:  env.quote.String(),
	}), &reserved)
	if reserved.SequenceNum != 1 {
		t.Errorf("sequence_num = %d, want 1", reserved.SequenceNum)
	}

	var pending []PendingRequestResult
	mustResult(t, rpcCall(t, env.url, "request_list", AddressParam{Address: env.alice.String()}), &pending)
	if len(pending) != 1 || pending[0].Collectible != sig || pending[0].SequenceNum != 1 {
		t.Fatalf("pending = %+v", pending)
	}

	var requesters []string
	mustResult(t, rpcCall(t, env.url, "request_requesters", nil), &requesters)
	if len(requesters) != 1 || requesters[0] != env.alice.String() {
		t.Errorf("requesters = %v", requesters)
	}

	var minted MintResult
	mustResult(t, rpcCall(t, env.url, "mint_forRequest", MintForRequestParam{
		Requester:   env.alice.String(),
		Signature:   sig,
		SequenceNum: 1,
	}), &minted)
	if minted.InstanceID != 1 {
		t.Errorf("instance_id = %d, want 1", minted.InstanceID)
	}

	mustResult(t, rpcCall(t, env.url, "request_list", AddressParam{Address: env.alice.String()}), &pending)
	if len(pending) != 0 {
		t.Errorf("pending after fulfill = %+v", pending)
	}
}

func TestRPC_MintForRequestNotFound(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)

	resp := rpcCall(t, env.url, "mint_forRequest", MintForRequestParam{
		Requester:   env.alice.String(),
		Signature:   sig,
		SequenceNum: 7,
	})
	mustErrorCode(t, resp, CodeNotFound)
}

func TestRPC_MintTo(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)

	// No sale flags and no payment needed for an owner grant.
	var minted MintResult
	mustResult(t, rpcCall(t, env.url, "mint_to", MintToParam{
		Recipient: env.bob.String(),
		Signature: sig,
	}), &minted)
	if minted.InstanceID != 1 {
		t.Errorf("instance_id = %d, want 1", minted.InstanceID)
	}

	var count CountResult
	mustResult(t, rpcCall(t, env.url, "ledger_balanceOf", AddressParam{Address: env.bob.String()}), &count)
	if count.Count != 1 {
		t.Errorf("balance = %d, want 1", count.Count)
	}
}

// ── Recharge ────────────────────────────────────────────────────────────

func TestRPC_RechargeRequest(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)

	var minted MintResult
	mustResult(t, rpcCall(t, env.url, "mint_to", MintToParam{
		Recipient: env.alice.String(),
		Signature: sig,
	}), &minted)

	var charged RechargeResult
	mustResult(t, rpcCall(t, env.url, "recharge_request", RechargeParam{
		Requester:  env.alice.String(),
		InstanceID: minted.InstanceID,
		Units:      3,
		PayToken:   env.quote.String(),
	}), &charged)
	if charged.TotalPaid != "30000000000000000000" { // 3 * 10e18
		t.Errorf("total_paid = %s", charged.TotalPaid)
	}

	// Units above the template cap are rejected.
	resp := rpcCall(t, env.url, "recharge_request", RechargeParam{
		Requester:  env.alice.String(),
		InstanceID: minted.InstanceID,
		Units:      6,
		PayToken:   env.quote.String(),
	})
	mustErrorCode(t, resp, CodeRejected)
}

func TestRPC_RechargeUnknownInstance(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "recharge_request", RechargeParam{
		Requester:  env.alice.String(),
		InstanceID: 42,
		Units:      1,
		PayToken:   env.quote.String(),
	})
	mustErrorCode(t, resp, CodeNotFound)
}

// ── Payments ────────────────────────────────────────────────────────────

func TestRPC_PaymentQuoteTokens(t *testing.T) {
	env := setupTestEnv(t)

	var tokens []string
	mustResult(t, rpcCall(t, env.url, "payment_listQuoteTokens", nil), &tokens)
	if len(tokens) != 1 || tokens[0] != env.quote.String() {
		t.Fatalf("tokens = %v", tokens)
	}

	other := rpcTestAddr(0xef)
	var ok bool
	mustResult(t, rpcCall(t, env.url, "payment_addQuoteToken", TokenParam{Token: other.String()}), &ok)
	mustResult(t, rpcCall(t, env.url, "payment_listQuoteTokens", nil), &tokens)
	if len(tokens) != 2 {
		t.Fatalf("tokens after add = %v", tokens)
	}

	mustResult(t, rpcCall(t, env.url, "payment_removeQuoteToken", TokenParam{Token: other.String()}), &ok)
	mustResult(t, rpcCall(t, env.url, "payment_listQuoteTokens", nil), &tokens)
	if len(tokens) != 1 {
		t.Fatalf("tokens after remove = %v", tokens)
	}
}

func TestRPC_PaymentBalanceAndAllowance(t *testing.T) {
	env := setupTestEnv(t)

	var balance AmountResult
	mustResult(t, rpcCall(t, env.url, "payment_getBalance", BalanceParam{
		Token:  env.quote.String(),
		Holder: env.alice.String(),
	}), &balance)
	if balance.Amount != testFunding {
		t.Errorf("balance = %s, want %s", balance.Amount, testFunding)
	}

	var allowance AmountResult
	mustResult(t, rpcCall(t, env.url, "payment_getAllowance", BalanceParam{
		Token:  env.quote.String(),
		Holder: env.alice.String(),
	}), &allowance)
	if allowance.Amount != testFunding {
		t.Errorf("allowance = %s, want %s", allowance.Amount, testFunding)
	}
}

func TestRPC_PaymentCreditAndApprove(t *testing.T) {
	env := setupTestEnv(t)
	carol := rpcTestAddr(0xc3)

	var ok bool
	mustResult(t, rpcCall(t, env.url, "payment_credit", CreditParam{
		Token:  env.quote.String(),
		To:     carol.String(),
		Amount: testPrice,
	}), &ok)
	mustResult(t, rpcCall(t, env.url, "payment_approve", ApproveParam{
		Holder: carol.String(),
		Token:  env.quote.String(),
		Amount: testPrice,
	}), &ok)

	var balance AmountResult
	mustResult(t, rpcCall(t, env.url, "payment_getBalance", BalanceParam{
		Token:  env.quote.String(),
		Holder: carol.String(),
	}), &balance)
	if balance.Amount != testPrice {
		t.Errorf("balance = %s, want %s", balance.Amount, testPrice)
	}
}

// ── Ledger ──────────────────────────────────────────────────────────────

func TestRPC_LedgerQueries(t *testing.T) {
	env := setupTestEnv(t)
	sig := importCollectible(t, env)

	for i := 0; i < 3; i++ {
		resp := rpcCall(t, env.url, "mint_to", MintToParam{
			Recipient: env.alice.String(),
			Signature: sig,
		})
		if resp.Error != nil {
			t.Fatalf("mint_to: %s", resp.Error.Message)
		}
	}

	var inst InstanceResult
	mustResult(t, rpcCall(t, env.url, "ledger_getInstance", InstanceParam{InstanceID: 2}), &inst)
	if inst.InstanceID != 2 || inst.Collectible != sig || inst.CollectibleNum != 2 {
		t.Errorf("instance = %+v", inst)
	}
	if inst.Owner != env.alice.String() {
		t.Errorf("owner = %s", inst.Owner)
	}

	var ids []uint64
	mustResult(t, rpcCall(t, env.url, "ledger_instancesOf", AddressParam{Address: env.alice.String()}), &ids)
	if len(ids) != 3 {
		t.Errorf("instances = %v", ids)
	}

	var total CountResult
	mustResult(t, rpcCall(t, env.url, "ledger_totalSupply", nil), &total)
	if total.Count != 3 {
		t.Errorf("total supply = %d, want 3", total.Count)
	}
}

func TestRPC_LedgerGetInstanceNotFound(t *testing.T) {
	env := setupTestEnv(t)

	mustErrorCode(t, rpcCall(t, env.url, "ledger_getInstance", InstanceParam{InstanceID: 99}), CodeNotFound)
}

// ── Node ────────────────────────────────────────────────────────────────

func TestRPC_NodeGetInfo(t *testing.T) {
	env := setupTestEnv(t)
	importCollectible(t, env)

	var info NodeInfoResult
	mustResult(t, rpcCall(t, env.url, "node_getInfo", nil), &info)
	if info.Version == "" {
		t.Error("version is empty")
	}
	if info.Network != "testnet" {
		t.Errorf("network = %q", info.Network)
	}
	if info.Owner != env.owner.String() || info.Minter != env.minter.String() {
		t.Errorf("principals = %s/%s", info.Owner, info.Minter)
	}
	if info.Collectibles != 1 {
		t.Errorf("collectibles = %d, want 1", info.Collectibles)
	}
	if info.Instances != 0 {
		t.Errorf("instances = %d, want 0", info.Instances)
	}
}

// ── Protocol-level behavior ─────────────────────────────────────────────

func TestRPC_MethodNotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "nonexistent_method", nil)
	mustErrorCode(t, resp, CodeMethodNotFound)
}

func TestRPC_InvalidParams(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "mint_collectible", nil)
	mustErrorCode(t, resp, CodeInvalidParams)
}

func TestRPC_InvalidAddress(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "ledger_balanceOf", AddressParam{Address: "xyz"})
	mustErrorCode(t, resp, CodeInvalidParams)
}

func TestRPC_InvalidSignature(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "registry_getCollectible", SignatureParam{Signature: "zz"})
	mustErrorCode(t, resp, CodeInvalidParams)
}

func TestRPC_InvalidJSON(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Post(env.url, "application/json", bytes.NewReader([]byte("not json")))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	json.NewDecoder(resp.Body).Decode(&rpcResp)

	if rpcResp.Error == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if rpcResp.Error.Code != CodeParseError {
		t.Errorf("error code = %d, want %d", rpcResp.Error.Code, CodeParseError)
	}
}

func TestRPC_GetMethodNotAllowed(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Get(env.url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	json.NewDecoder(resp.Body).Decode(&rpcResp)

	if rpcResp.Error == nil {
		t.Fatal("expected error for GET request")
	}
	if rpcResp.Error.Code != CodeInvalidRequest {
		t.Errorf("error code = %d, want %d", rpcResp.Error.Code, CodeInvalidRequest)
	}
}

func TestRPC_BodySizeLimit(t *testing.T) {
	env := setupTestEnv(t)

	bigPayload := make([]byte, (1<<20)+1024)
	for i := range bigPayload {
		bigPayload[i] = 'A'
	}

	resp, err := http.Post(env.url, "application/json", bytes.NewReader(bigPayload))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	json.NewDecoder(resp.Body).Decode(&rpcResp)

	if rpcResp.Error == nil {
		t.Fatal("expected error for oversized request body")
	}
	if rpcResp.Error.Code != CodeInvalidRequest {
		t.Errorf("error code = %d, want %d", rpcResp.Error.Code, CodeInvalidRequest)
	}
}

// ── IP filtering ────────────────────────────────────────────────────────

func TestRPC_IPFilter_Allowed(t *testing.T) {
	env := setupTestEnv(t, config.RPCConfig{
		AllowedIPs: []string{"127.0.0.1"},
	})

	resp := rpcCall(t, env.url, "node_getInfo", nil)
	if resp.Error != nil {
		t.Errorf("expected success for 127.0.0.1, got error: %s", resp.Error.Message)
	}
}

func TestRPC_IPFilter_Blocked(t *testing.T) {
	env := setupTestEnv(t, config.RPCConfig{
		AllowedIPs: []string{"10.0.0.0/8"}, // Only allow 10.x.x.x.
	})

	req := Request{JSONRPC: "2.0", Method: "node_getInfo", ID: 1}
	body, _ := json.Marshal(req)
	resp, err := http.Post(env.url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
}

func TestRPC_IPFilter_Empty_AllowsAll(t *testing.T) {
	env := setupTestEnv(t, config.RPCConfig{
		AllowedIPs: nil, // Empty = allow all.
	})

	resp := rpcCall(t, env.url, "node_getInfo", nil)
	if resp.Error != nil {
		t.Errorf("empty AllowedIPs should allow all: %s", resp.Error.Message)
	}
}

// ── CORS ────────────────────────────────────────────────────────────────

func TestRPC_CORS_WildcardOrigin(t *testing.T) {
	env := setupTestEnv(t, config.RPCConfig{
		CORSOrigins: []string{"*"},
	})

	req := Request{JSONRPC: "2.0", Method: "node_getInfo", ID: 1}
	body, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest("POST", env.url, bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Origin", "http://example.com")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	origin := resp.Header.Get("Access-Control-Allow-Origin")
	if origin != "*" {
		t.Errorf("CORS origin = %q, want %q", origin, "*")
	}
}

func TestRPC_CORS_SpecificOrigin(t *testing.T) {
	env := setupTestEnv(t, config.RPCConfig{
		CORSOrigins: []string{"http://myapp.com"},
	})

	req := Request{JSONRPC: "2.0", Method: "node_getInfo", ID: 1}
	body, _ := json.Marshal(req)

	// Allowed origin is echoed back.
	httpReq, _ := http.NewRequest("POST", env.url, bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Origin", "http://myapp.com")
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://myapp.com" {
		t.Errorf("CORS origin = %q, want %q", got, "http://myapp.com")
	}

	// Unknown origin gets no CORS header.
	httpReq, _ = http.NewRequest("POST", env.url, bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Origin", "http://evil.com")
	resp, err = http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("CORS origin for unlisted origin = %q, want empty", got)
	}
}

func TestRPC_CORS_Preflight(t *testing.T) {
	env := setupTestEnv(t, config.RPCConfig{
		CORSOrigins: []string{"*"},
	})

	httpReq, _ := http.NewRequest("OPTIONS", env.url, nil)
	httpReq.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
}
