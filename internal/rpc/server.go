// Package rpc implements the JSON-RPC 2.0 API server.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/laqirace/collectibled/config"
	"github.com/laqirace/collectibled/internal/auth"
	"github.com/laqirace/collectibled/internal/collectible"
	"github.com/laqirace/collectibled/internal/ledger"
	klog "github.com/laqirace/collectibled/internal/log"
	"github.com/laqirace/collectibled/internal/payment"
	"github.com/rs/zerolog"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// Server is the JSON-RPC 2.0 HTTP server.
type Server struct {
	addr        string
	network     string
	registry    *collectible.Registry
	engine      *collectible.Engine
	payments    *payment.Ledger
	instances   *ledger.Store
	auth        *auth.Authority
	server      *http.Server
	logger      zerolog.Logger
	ln          net.Listener
	allowedNets []*net.IPNet // Empty = allow all.
	corsOrigins []string     // Empty = no CORS headers.
}

// New creates a new RPC server. The rpcCfg parameter controls IP
// filtering and CORS. A zero-value RPCConfig allows all IPs and
// disables CORS.
func New(addr, network string, registry *collectible.Registry, engine *collectible.Engine,
	payments *payment.Ledger, instances *ledger.Store, authority *auth.Authority,
	rpcCfg ...config.RPCConfig) *Server {

	s := &Server{
		addr:      addr,
		network:   network,
		registry:  registry,
		engine:    engine,
		payments:  payments,
		instances: instances,
		auth:      authority,
		logger:    klog.WithComponent("rpc"),
	}

	if len(rpcCfg) > 0 {
		s.allowedNets = parseAllowedIPs(rpcCfg[0].AllowedIPs)
		s.corsOrigins = rpcCfg[0].CORSOrigins
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// parseAllowedIPs converts string IP/CIDR entries into net.IPNet.
func parseAllowedIPs(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		_, ipNet, err := net.ParseCIDR(entry)
		if err == nil {
			nets = append(nets, ipNet)
			continue
		}
		// Try as a single IP (add /32 or /128).
		ip := net.ParseIP(entry)
		if ip == nil {
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Start begins listening and serving in a background goroutine.
// It returns immediately after the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("RPC server error")
		}
	}()

	return nil
}

// Addr returns the listener address (useful when bound to :0).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// handleRequest is the main HTTP handler for JSON-RPC requests.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	// IP filtering.
	if len(s.allowedNets) > 0 {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ip := net.ParseIP(host)
		if ip == nil || !s.isIPAllowed(ip) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	// CORS headers.
	s.setCORSHeaders(w, r)

	// Handle CORS preflight.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}

	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")
		return
	}

	result, rpcErr := s.dispatch(&req)
	if rpcErr != nil {
		writeJSON(w, Response{
			JSONRPC: "2.0",
			Error:   rpcErr,
			ID:      req.ID,
		})
		return
	}

	writeJSON(w, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      req.ID,
	})
}

// dispatch routes a request to the appropriate handler.
func (s *Server) dispatch(req *Request) (interface{}, *Error) {
	switch req.Method {
	case "registry_import":
		return s.handleRegistryImport(req)
	case "registry_update":
		return s.handleRegistryUpdate(req)
	case "registry_remove":
		return s.handleRegistryRemove(req)
	case "registry_getCollectible":
		return s.handleRegistryGetCollectible(req)
	case "registry_getSignature":
		return s.handleRegistryGetSignature(req)
	case "registry_list":
		return s.handleRegistryList(req)
	case "sale_setStatus":
		return s.handleSaleSetStatus(req)
	case "sale_getStatus":
		return s.handleSaleGetStatus(req)
	case "mint_collectible":
		return s.handleMintCollectible(req)
	case "mint_presale":
		return s.handleMintPresale(req)
	case "mint_request":
		return s.handleMintRequest(req)
	case "mint_forRequest":
		return s.handleMintForRequest(req)
	case "mint_to":
		return s.handleMintTo(req)
	case "request_list":
		return s.handleRequestList(req)
	case "request_requesters":
		return s.handleRequestRequesters(req)
	case "recharge_request":
		return s.handleRechargeRequest(req)
	case "payment_addQuoteToken":
		return s.handlePaymentAddQuoteToken(req)
	case "payment_removeQuoteToken":
		return s.handlePaymentRemoveQuoteToken(req)
	case "payment_listQuoteTokens":
		return s.handlePaymentListQuoteTokens(req)
	case "payment_getBalance":
		return s.handlePaymentGetBalance(req)
	case "payment_getAllowance":
		return s.handlePaymentGetAllowance(req)
	case "payment_approve":
		return s.handlePaymentApprove(req)
	case "payment_credit":
		return s.handlePaymentCredit(req)
	case "ledger_getInstance":
		return s.handleLedgerGetInstance(req)
	case "ledger_getOwner":
		return s.handleLedgerGetOwner(req)
	case "ledger_balanceOf":
		return s.handleLedgerBalanceOf(req)
	case "ledger_instancesOf":
		return s.handleLedgerInstancesOf(req)
	case "ledger_totalSupply":
		return s.handleLedgerTotalSupply(req)
	case "node_getInfo":
		return s.handleNodeGetInfo(req)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

// writeJSON writes a JSON-RPC response.
func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON-RPC error response.
func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}

// isIPAllowed checks if the IP is in the allowed networks list.
func (s *Server) isIPAllowed(ip net.IP) bool {
	for _, n := range s.allowedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// setCORSHeaders adds CORS headers based on the configured origins.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsOrigins) == 0 {
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	// Check if origin is allowed.
	allowed := false
	for _, o := range s.corsOrigins {
		if o == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			allowed = true
			break
		}
		if o == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			allowed = true
			break
		}
	}

	if allowed {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
}

// parseParams unmarshals the request params into the given target.
func parseParams(req *Request, target interface{}) *Error {
	if req.Params == nil {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}

	data, err := json.Marshal(req.Params)
	if err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params"}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}
