// collectible-cli is a command-line client for interacting with a
// collectibled node.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/laqirace/collectibled/config"
	"github.com/laqirace/collectibled/internal/rpc"
	"github.com/laqirace/collectibled/internal/rpcclient"
	"github.com/laqirace/collectibled/internal/wallet"
	"github.com/laqirace/collectibled/pkg/types"
	"golang.org/x/term"
)

// keystoreDir returns the keystore path matching collectibled's layout:
// <datadir>/<network>/keystore
func keystoreDir(dataDir, network string) string {
	return filepath.Join(dataDir, network, "keystore")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := ""
	dataDir := config.DefaultDataDir()
	network := "mainnet"

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		case args[0] == "--testnet":
			network = "testnet"
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if network == "testnet" {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	if rpcURL == "" {
		port := 8591
		if network == "testnet" {
			port = 8691
		}
		rpcURL = fmt.Sprintf("http://127.0.0.1:%d", port)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	ksDir := keystoreDir(dataDir, network)
	client := rpcclient.New(rpcURL)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "status":
		cmdStatus(client)
	case "registry":
		cmdRegistry(client, cmdArgs)
	case "sale":
		cmdSale(client, cmdArgs)
	case "mint":
		cmdMint(client, cmdArgs)
	case "requests":
		cmdRequests(client, cmdArgs)
	case "recharge":
		cmdRecharge(client, cmdArgs)
	case "token":
		cmdToken(client, cmdArgs)
	case "payment":
		cmdPayment(client, cmdArgs)
	case "instance":
		cmdInstance(client, cmdArgs)
	case "wallet":
		cmdWallet(cmdArgs, ksDir)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: collectible-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: http://127.0.0.1:8591)
  --datadir <path>    Data directory (default: ~/.collectibled)
  --network <net>     mainnet (default) or testnet
  --testnet           Shorthand for --network testnet

Commands:
  status                          Show node status

  registry import --name <n> --media <ref> --price <amt> --usage-cost <amt> --max-usage <n>
                                  Import a collectible template
  registry update --signature <sig> --name <n> --media <ref> --price <amt> --usage-cost <amt> --max-usage <n>
                                  Replace a template's attributes
  registry remove <sig>           Remove a template
  registry show <sig|name>        Show template attributes
  registry list                   List live template signatures

  sale set --signature <sig> [--max-supply <n>] [--permit] [--presale] [--by-request]
                                  Set a template's sale policy
  sale show <sig>                 Show a template's sale status

  mint buy --buyer <addr> --signature <sig> --token <addr>
                                  Buy and mint an instance
  mint presale --buyer <addr> --signature <sig> --token <addr>
                                  Claim a presale mint (one per buyer)
  mint request --buyer <addr> --signature <sig> --token <addr>
                                  Pay and queue a custom-mint request
  mint fulfill --requester <addr> --signature <sig> --num <seq>
                                  Fulfill a queued request (minter only)
  mint grant --to <addr> --signature <sig>
                                  Mint without payment (owner only)

  requests list <addr>            Show pending requests for an address
  requests requesters             Show all addresses with pending requests

  recharge --requester <addr> --instance <id> --units <n> --token <addr>
                                  Purchase usage units for an instance

  token add <addr>                Accept a quote token (owner only)
  token remove <addr>             Stop accepting a quote token
  token list                      List accepted quote tokens

  payment balance --token <addr> --holder <addr>
                                  Show a holder's balance
  payment allowance --token <addr> --holder <addr>
                                  Show a holder's platform allowance
  payment approve --holder <addr> --token <addr> --amount <amt>
                                  Approve platform spending
  payment credit --token <addr> --to <addr> --amount <amt>
                                  Credit a deposit (owner only)

  instance show <id>              Show a minted instance
  instance owner <id>             Show an instance's holder
  instance list <addr>            List instances held by an address
  instance supply                 Show total minted instances

  wallet create --name <n>        Create a new operator wallet
  wallet import --name <n> --mnemonic "..."
                                  Import wallet from mnemonic
  wallet list                     List wallets
  wallet address --wallet <w>     List wallet addresses
  wallet new-address --wallet <w> Generate a new address

Amounts are integer base units of the quote token (e.g. wei-style).
`)
}

// resolveSignature accepts either a 64-char hex signature or a template
// name, resolving names through the node.
func resolveSignature(client *rpcclient.Client, s string) string {
	if len(s) == 64 {
		if _, err := hex.DecodeString(s); err == nil {
			return s
		}
	}
	var result rpc.SignatureResult
	if err := client.Call("registry_getSignature", rpc.NameParam{Name: s}, &result); err != nil {
		fatal("resolve %q: %v", s, err)
	}
	return result.Signature
}

// ── status ──────────────────────────────────────────────────────────────

func cmdStatus(client *rpcclient.Client) {
	var info rpc.NodeInfoResult
	if err := client.Call("node_getInfo", nil, &info); err != nil {
		fatal("node_getInfo: %v", err)
	}

	fmt.Printf("Version:       %s\n", info.Version)
	fmt.Printf("Network:       %s\n", info.Network)
	fmt.Printf("Owner:         %s\n", info.Owner)
	fmt.Printf("Minter:        %s\n", info.Minter)
	fmt.Printf("Fee recipient: %s\n", info.FeeRecipient)
	fmt.Printf("Collectibles:  %d\n", info.Collectibles)
	fmt.Printf("Instances:     %d\n", info.Instances)
}

// ── registry ────────────────────────────────────────────────────────────

func cmdRegistry(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli registry <import|update|remove|show|list>")
	}
	switch args[0] {
	case "import":
		cmdRegistryImport(client, args[1:])
	case "update":
		cmdRegistryUpdate(client, args[1:])
	case "remove":
		cmdRegistryRemove(client, args[1:])
	case "show":
		cmdRegistryShow(client, args[1:])
	case "list":
		cmdRegistryList(client)
	default:
		fatal("unknown registry command: %s", args[0])
	}
}

func collectibleFlags(fs *flag.FlagSet) (name, media, price, usageCost *string, maxUsage *uint64) {
	name = fs.String("name", "", "Template name")
	media = fs.String("media", "", "Media reference (e.g. ipfs://...)")
	price = fs.String("price", "0", "Purchase price in base units")
	usageCost = fs.String("usage-cost", "0", "Per-unit recharge cost in base units")
	maxUsage = fs.Uint64("max-usage", 0, "Maximum rechargeable units")
	return
}

func cmdRegistryImport(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("registry import", flag.ExitOnError)
	name, media, price, usageCost, maxUsage := collectibleFlags(fs)
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: collectible-cli registry import --name <n> --media <ref> --price <amt> --usage-cost <amt> --max-usage <n>")
	}

	var result rpc.SignatureResult
	if err := client.Call("registry_import", rpc.CollectibleParam{
		Name:      *name,
		MediaRef:  *media,
		Price:     *price,
		UsageCost: *usageCost,
		MaxUsage:  *maxUsage,
	}, &result); err != nil {
		fatal("registry_import: %v", err)
	}
	fmt.Printf("Imported: %s\n", result.Signature)
}

func cmdRegistryUpdate(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("registry update", flag.ExitOnError)
	sig := fs.String("signature", "", "Current template signature")
	name, media, price, usageCost, maxUsage := collectibleFlags(fs)
	fs.Parse(args)

	if *sig == "" || *name == "" {
		fatal("Usage: collectible-cli registry update --signature <sig> --name <n> --media <ref> --price <amt> --usage-cost <amt> --max-usage <n>")
	}

	var result rpc.SignatureResult
	if err := client.Call("registry_update", rpc.UpdateParam{
		Signature: resolveSignature(client, *sig),
		CollectibleParam: rpc.CollectibleParam{
			Name:      *name,
			MediaRef:  *media,
			Price:     *price,
			UsageCost: *usageCost,
			MaxUsage:  *maxUsage,
		},
	}, &result); err != nil {
		fatal("registry_update: %v", err)
	}
	fmt.Printf("Updated: %s\n", result.Signature)
}

func cmdRegistryRemove(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli registry remove <sig>")
	}
	sig := resolveSignature(client, args[0])
	if err := client.Call("registry_remove", rpc.SignatureParam{Signature: sig}, nil); err != nil {
		fatal("registry_remove: %v", err)
	}
	fmt.Printf("Removed: %s\n", sig)
}

func cmdRegistryShow(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli registry show <sig|name>")
	}
	sig := resolveSignature(client, args[0])

	var c rpc.CollectibleResult
	if err := client.Call("registry_getCollectible", rpc.SignatureParam{Signature: sig}, &c); err != nil {
		fatal("registry_getCollectible: %v", err)
	}

	fmt.Printf("Signature:  %s\n", c.Signature)
	fmt.Printf("Name:       %s\n", c.Name)
	fmt.Printf("Media:      %s\n", c.MediaRef)
	fmt.Printf("Price:      %s\n", c.Price)
	fmt.Printf("Usage cost: %s\n", c.UsageCost)
	fmt.Printf("Max usage:  %d\n", c.MaxUsage)
}

func cmdRegistryList(client *rpcclient.Client) {
	var sigs []string
	if err := client.Call("registry_list", nil, &sigs); err != nil {
		fatal("registry_list: %v", err)
	}
	if len(sigs) == 0 {
		fmt.Println("No collectibles.")
		return
	}
	for i, sig := range sigs {
		fmt.Printf("  [%d] %s\n", i, sig)
	}
}

// ── sale ────────────────────────────────────────────────────────────────

func cmdSale(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli sale <set|show>")
	}
	switch args[0] {
	case "set":
		cmdSaleSet(client, args[1:])
	case "show":
		cmdSaleShow(client, args[1:])
	default:
		fatal("unknown sale command: %s", args[0])
	}
}

func cmdSaleSet(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("sale set", flag.ExitOnError)
	sig := fs.String("signature", "", "Template signature")
	maxSupply := fs.Uint64("max-supply", 0, "Supply cap (0 = uncapped)")
	permit := fs.Bool("permit", false, "Enable sales")
	preSale := fs.Bool("presale", false, "Enable presale claims")
	byRequest := fs.Bool("by-request", false, "Enable request-queue sales")
	fs.Parse(args)

	if *sig == "" {
		fatal("Usage: collectible-cli sale set --signature <sig> [--max-supply <n>] [--permit] [--presale] [--by-request]")
	}

	if err := client.Call("sale_setStatus", rpc.SaleStatusParam{
		Signature:     resolveSignature(client, *sig),
		MaxSupply:     *maxSupply,
		SalePermit:    *permit,
		PreSale:       *preSale,
		SaleByRequest: *byRequest,
	}, nil); err != nil {
		fatal("sale_setStatus: %v", err)
	}
	fmt.Println("Sale status set.")
}

func cmdSaleShow(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli sale show <sig>")
	}

	var status rpc.SaleStatusResult
	if err := client.Call("sale_getStatus", rpc.SignatureParam{
		Signature: resolveSignature(client, args[0]),
	}, &status); err != nil {
		fatal("sale_getStatus: %v", err)
	}

	fmt.Printf("Signature:    %s\n", status.Signature)
	if status.MaxSupply == 0 {
		fmt.Printf("Max supply:   unlimited\n")
	} else {
		fmt.Printf("Max supply:   %d\n", status.MaxSupply)
	}
	fmt.Printf("Total supply: %d\n", status.TotalSupply)
	fmt.Printf("Sale permit:  %v\n", status.SalePermit)
	fmt.Printf("Presale:      %v\n", status.PreSale)
	fmt.Printf("By request:   %v\n", status.SaleByRequest)
}

// ── mint ────────────────────────────────────────────────────────────────

func cmdMint(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli mint <buy|presale|request|fulfill|grant>")
	}
	switch args[0] {
	case "buy":
		cmdMintBuy(client, "mint_collectible", args[1:])
	case "presale":
		cmdMintBuy(client, "mint_presale", args[1:])
	case "request":
		cmdMintRequest(client, args[1:])
	case "fulfill":
		cmdMintFulfill(client, args[1:])
	case "grant":
		cmdMintGrant(client, args[1:])
	default:
		fatal("unknown mint command: %s", args[0])
	}
}

func mintFlags(fs *flag.FlagSet) (buyer, sig, token *string) {
	buyer = fs.String("buyer", "", "Buyer address")
	sig = fs.String("signature", "", "Template signature")
	token = fs.String("token", "", "Quote token address")
	return
}

func cmdMintBuy(client *rpcclient.Client, method string, args []string) {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	buyer, sig, token := mintFlags(fs)
	fs.Parse(args)

	if *buyer == "" || *sig == "" || *token == "" {
		fatal("Usage: collectible-cli mint <buy|presale> --buyer <addr> --signature <sig> --token <addr>")
	}

	var result rpc.MintResult
	if err := client.Call(method, rpc.MintParam{
		Buyer:     *buyer,
		Signature: resolveSignature(client, *sig),
		PayToken:  *token,
	}, &result); err != nil {
		fatal("%s: %v", method, err)
	}
	fmt.Printf("Minted instance: %d\n", result.InstanceID)
}

func cmdMintRequest(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("mint request", flag.ExitOnError)
	buyer, sig, token := mintFlags(fs)
	fs.Parse(args)

	if *buyer == "" || *sig == "" || *token == "" {
		fatal("Usage: collectible-cli mint request --buyer <addr> --signature <sig> --token <addr>")
	}

	var result rpc.RequestResult
	if err := client.Call("mint_request", rpc.MintParam{
		Buyer:     *buyer,
		Signature: resolveSignature(client, *sig),
		PayToken:  *token,
	}, &result); err != nil {
		fatal("mint_request: %v", err)
	}
	fmt.Printf("Request queued with sequence number %d\n", result.SequenceNum)
}

func cmdMintFulfill(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("mint fulfill", flag.ExitOnError)
	requester := fs.String("requester", "", "Requester address")
	sig := fs.String("signature", "", "Template signature")
	num := fs.Uint64("num", 0, "Reserved sequence number")
	fs.Parse(args)

	if *requester == "" || *sig == "" || *num == 0 {
		fatal("Usage: collectible-cli mint fulfill --requester <addr> --signature <sig> --num <seq>")
	}

	var result rpc.MintResult
	if err := client.Call("mint_forRequest", rpc.MintForRequestParam{
		Requester:   *requester,
		Signature:   resolveSignature(client, *sig),
		SequenceNum: *num,
	}, &result); err != nil {
		fatal("mint_forRequest: %v", err)
	}
	fmt.Printf("Minted instance: %d\n", result.InstanceID)
}

func cmdMintGrant(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("mint grant", flag.ExitOnError)
	to := fs.String("to", "", "Recipient address")
	sig := fs.String("signature", "", "Template signature")
	fs.Parse(args)

	if *to == "" || *sig == "" {
		fatal("Usage: collectible-cli mint grant --to <addr> --signature <sig>")
	}

	var result rpc.MintResult
	if err := client.Call("mint_to", rpc.MintToParam{
		Recipient: *to,
		Signature: resolveSignature(client, *sig),
	}, &result); err != nil {
		fatal("mint_to: %v", err)
	}
	fmt.Printf("Minted instance: %d\n", result.InstanceID)
}

// ── requests ────────────────────────────────────────────────────────────

func cmdRequests(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli requests <list|requesters>")
	}
	switch args[0] {
	case "list":
		if len(args) < 2 {
			fatal("Usage: collectible-cli requests list <addr>")
		}
		var pending []rpc.PendingRequestResult
		if err := client.Call("request_list", rpc.AddressParam{Address: args[1]}, &pending); err != nil {
			fatal("request_list: %v", err)
		}
		if len(pending) == 0 {
			fmt.Println("No pending requests.")
			return
		}
		for _, r := range pending {
			fmt.Printf("  seq %d  %s\n", r.SequenceNum, r.Collectible)
		}
	case "requesters":
		var addrs []string
		if err := client.Call("request_requesters", nil, &addrs); err != nil {
			fatal("request_requesters: %v", err)
		}
		if len(addrs) == 0 {
			fmt.Println("No requesters.")
			return
		}
		for _, a := range addrs {
			fmt.Printf("  %s\n", a)
		}
	default:
		fatal("unknown requests command: %s", args[0])
	}
}

// ── recharge ────────────────────────────────────────────────────────────

func cmdRecharge(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("recharge", flag.ExitOnError)
	requester := fs.String("requester", "", "Paying address")
	instance := fs.Uint64("instance", 0, "Instance ID")
	units := fs.Uint64("units", 0, "Usage units to purchase")
	token := fs.String("token", "", "Quote token address")
	fs.Parse(args)

	if *requester == "" || *instance == 0 || *units == 0 || *token == "" {
		fatal("Usage: collectible-cli recharge --requester <addr> --instance <id> --units <n> --token <addr>")
	}

	var result rpc.RechargeResult
	if err := client.Call("recharge_request", rpc.RechargeParam{
		Requester:  *requester,
		InstanceID: *instance,
		Units:      *units,
		PayToken:   *token,
	}, &result); err != nil {
		fatal("recharge_request: %v", err)
	}
	fmt.Printf("Recharged instance %d with %d units for %s\n",
		result.InstanceID, result.Units, result.TotalPaid)
}

// ── token ───────────────────────────────────────────────────────────────

func cmdToken(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli token <add|remove|list>")
	}
	switch args[0] {
	case "add":
		if len(args) < 2 {
			fatal("Usage: collectible-cli token add <addr>")
		}
		if err := client.Call("payment_addQuoteToken", rpc.TokenParam{Token: args[1]}, nil); err != nil {
			fatal("payment_addQuoteToken: %v", err)
		}
		fmt.Println("Quote token added.")
	case "remove":
		if len(args) < 2 {
			fatal("Usage: collectible-cli token remove <addr>")
		}
		if err := client.Call("payment_removeQuoteToken", rpc.TokenParam{Token: args[1]}, nil); err != nil {
			fatal("payment_removeQuoteToken: %v", err)
		}
		fmt.Println("Quote token removed.")
	case "list":
		var tokens []string
		if err := client.Call("payment_listQuoteTokens", nil, &tokens); err != nil {
			fatal("payment_listQuoteTokens: %v", err)
		}
		if len(tokens) == 0 {
			fmt.Println("No quote tokens.")
			return
		}
		for _, tok := range tokens {
			fmt.Printf("  %s\n", tok)
		}
	default:
		fatal("unknown token command: %s", args[0])
	}
}

// ── payment ─────────────────────────────────────────────────────────────

func cmdPayment(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli payment <balance|allowance|approve|credit>")
	}
	switch args[0] {
	case "balance":
		cmdPaymentQuery(client, "payment_getBalance", args[1:])
	case "allowance":
		cmdPaymentQuery(client, "payment_getAllowance", args[1:])
	case "approve":
		cmdPaymentApprove(client, args[1:])
	case "credit":
		cmdPaymentCredit(client, args[1:])
	default:
		fatal("unknown payment command: %s", args[0])
	}
}

func cmdPaymentQuery(client *rpcclient.Client, method string, args []string) {
	fs := flag.NewFlagSet("payment", flag.ExitOnError)
	token := fs.String("token", "", "Quote token address")
	holder := fs.String("holder", "", "Holder address")
	fs.Parse(args)

	if *token == "" || *holder == "" {
		fatal("Usage: collectible-cli payment <balance|allowance> --token <addr> --holder <addr>")
	}

	var result rpc.AmountResult
	if err := client.Call(method, rpc.BalanceParam{Token: *token, Holder: *holder}, &result); err != nil {
		fatal("%s: %v", method, err)
	}
	fmt.Println(result.Amount)
}

func cmdPaymentApprove(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("payment approve", flag.ExitOnError)
	holder := fs.String("holder", "", "Holder address")
	token := fs.String("token", "", "Quote token address")
	amount := fs.String("amount", "", "Allowance in base units")
	fs.Parse(args)

	if *holder == "" || *token == "" || *amount == "" {
		fatal("Usage: collectible-cli payment approve --holder <addr> --token <addr> --amount <amt>")
	}

	if err := client.Call("payment_approve", rpc.ApproveParam{
		Holder: *holder,
		Token:  *token,
		Amount: *amount,
	}, nil); err != nil {
		fatal("payment_approve: %v", err)
	}
	fmt.Println("Approved.")
}

func cmdPaymentCredit(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("payment credit", flag.ExitOnError)
	token := fs.String("token", "", "Quote token address")
	to := fs.String("to", "", "Recipient address")
	amount := fs.String("amount", "", "Amount in base units")
	fs.Parse(args)

	if *token == "" || *to == "" || *amount == "" {
		fatal("Usage: collectible-cli payment credit --token <addr> --to <addr> --amount <amt>")
	}

	if err := client.Call("payment_credit", rpc.CreditParam{
		Token:  *token,
		To:     *to,
		Amount: *amount,
	}, nil); err != nil {
		fatal("payment_credit: %v", err)
	}
	fmt.Println("Credited.")
}

// ── instance ────────────────────────────────────────────────────────────

func cmdInstance(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli instance <show|owner|list|supply>")
	}
	switch args[0] {
	case "show":
		if len(args) < 2 {
			fatal("Usage: collectible-cli instance show <id>")
		}
		id := parseID(args[1])
		var inst rpc.InstanceResult
		if err := client.Call("ledger_getInstance", rpc.InstanceParam{InstanceID: id}, &inst); err != nil {
			fatal("ledger_getInstance: %v", err)
		}
		fmt.Printf("Instance:    %d\n", inst.InstanceID)
		fmt.Printf("Collectible: %s\n", inst.Collectible)
		fmt.Printf("Number:      %d\n", inst.CollectibleNum)
		fmt.Printf("Owner:       %s\n", inst.Owner)
	case "owner":
		if len(args) < 2 {
			fatal("Usage: collectible-cli instance owner <id>")
		}
		id := parseID(args[1])
		var owner rpc.OwnerResult
		if err := client.Call("ledger_getOwner", rpc.InstanceParam{InstanceID: id}, &owner); err != nil {
			fatal("ledger_getOwner: %v", err)
		}
		fmt.Println(owner.Owner)
	case "list":
		if len(args) < 2 {
			fatal("Usage: collectible-cli instance list <addr>")
		}
		var ids []uint64
		if err := client.Call("ledger_instancesOf", rpc.AddressParam{Address: args[1]}, &ids); err != nil {
			fatal("ledger_instancesOf: %v", err)
		}
		if len(ids) == 0 {
			fmt.Println("No instances.")
			return
		}
		for _, id := range ids {
			fmt.Printf("  %d\n", id)
		}
	case "supply":
		var total rpc.CountResult
		if err := client.Call("ledger_totalSupply", nil, &total); err != nil {
			fatal("ledger_totalSupply: %v", err)
		}
		fmt.Println(total.Count)
	default:
		fatal("unknown instance command: %s", args[0])
	}
}

func parseID(s string) uint64 {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		fatal("invalid instance id %q", s)
	}
	return id
}

// ── wallet ──────────────────────────────────────────────────────────────

func cmdWallet(args []string, ksDir string) {
	if len(args) < 1 {
		fatal("Usage: collectible-cli wallet <create|import|list|address|new-address>")
	}
	switch args[0] {
	case "create":
		cmdWalletCreate(args[1:], ksDir)
	case "import":
		cmdWalletImport(args[1:], ksDir)
	case "list":
		cmdWalletList(ksDir)
	case "address":
		cmdWalletAddress(args[1:], ksDir)
	case "new-address":
		cmdWalletNewAddress(args[1:], ksDir)
	default:
		fatal("unknown wallet command: %s", args[0])
	}
}

func cmdWalletCreate(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: collectible-cli wallet create --name <name>")
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	createWalletFromMnemonic(*name, mnemonic, ksDir)
}

func cmdWalletImport(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	fs.Parse(args)

	if *name == "" || *mnemonic == "" {
		fatal("Usage: collectible-cli wallet import --name <name> --mnemonic \"...\"")
	}
	if !wallet.ValidateMnemonic(*mnemonic) {
		fatal("invalid mnemonic")
	}

	createWalletFromMnemonic(*name, *mnemonic, ksDir)
}

func createWalletFromMnemonic(name, mnemonic, ksDir string) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}

	// Derive account 0 address before encrypting.
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}
	hdKey, err := master.DeriveAddress(0, wallet.ChangeExternal, 0)
	if err != nil {
		fatal("derive address: %v", err)
	}
	addr := hdKey.Address()

	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("create keystore: %v", err)
	}
	if err := ks.Create(name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}

	for i := range seed {
		seed[i] = 0
	}

	if err := ks.AddAccount(name, wallet.AccountEntry{
		Index:   0,
		Name:    "Default",
		Address: addr.String(),
	}); err != nil {
		fatal("add account: %v", err)
	}

	fmt.Printf("\nWallet created: %s\n", name)
	fmt.Printf("Address: %s\n", addr.String())
}

func cmdWalletList(ksDir string) {
	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No wallets found.")
		return
	}
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
}

func cmdWalletAddress(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet address", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: collectible-cli wallet address --wallet <name>")
	}

	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	accounts, err := ks.ListAccounts(*walletName)
	if err != nil {
		fatal("list accounts: %v", err)
	}
	if len(accounts) == 0 {
		fmt.Println("No addresses found.")
		return
	}
	for _, acct := range accounts {
		fmt.Printf("  [%d] %s\n", acct.Index, acct.Address)
	}
}

func cmdWalletNewAddress(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet new-address", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: collectible-cli wallet new-address --wallet <name>")
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}

	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	seed, err := ks.Load(*walletName, password)
	if err != nil {
		fatal("load wallet: %v", err)
	}

	master, err := wallet.NewMasterKey(seed)
	for i := range seed {
		seed[i] = 0
	}
	if err != nil {
		fatal("derive master key: %v", err)
	}

	nextIdx, err := ks.GetExternalIndex(*walletName)
	if err != nil {
		fatal("get external index: %v", err)
	}
	// Index 0 is the default account, new addresses start at 1.
	if nextIdx == 0 {
		nextIdx = 1
	}

	hdKey, err := master.DeriveAddress(0, wallet.ChangeExternal, nextIdx)
	if err != nil {
		fatal("derive address: %v", err)
	}
	addr := hdKey.Address()

	if err := ks.AddAccount(*walletName, wallet.AccountEntry{
		Index:   nextIdx,
		Name:    fmt.Sprintf("Address %d", nextIdx),
		Address: addr.String(),
	}); err != nil {
		fatal("add account: %v", err)
	}
	if err := ks.IncrementExternalIndex(*walletName); err != nil {
		fatal("increment index: %v", err)
	}

	fmt.Printf("New address [%d]: %s\n", nextIdx, addr.String())
}

// ── helpers ─────────────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
