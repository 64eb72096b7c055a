package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
)

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type statusResponse struct {
	Params      sale.Params          `json:"params"`
	Owner       common.Address       `json:"owner"`
	Phase       sale.Phase           `json:"phase"`
	TotalMinted uint64               `json:"total_minted"`
	Price       string               `json:"price"`
	BaseURI     string               `json:"base_uri"`
	Whitelist   sale.WhitelistConfig `json:"whitelist"`
	Public      sale.PublicConfig    `json:"public"`
	Balance     string               `json:"balance"`
}

type tokenResponse struct {
	ID       uint64         `json:"id"`
	Owner    common.Address `json:"owner"`
	TokenURI string         `json:"token_uri"`
}

type accountResponse struct {
	Address         common.Address `json:"address"`
	Tokens          uint64         `json:"tokens"`
	NumberMinted    uint64         `json:"number_minted"`
	WhitelistMinted uint64         `json:"whitelist_minted"`
	Owed            string         `json:"owed"`
}

type receiptResponse struct {
	FirstID    uint64 `json:"first_id"`
	Quantity   uint64 `json:"quantity"`
	Cost       string `json:"cost"`
	Refund     string `json:"refund"`
	RefundOwed bool   `json:"refund_owed,omitempty"`
}

type amountResponse struct {
	Amount string `json:"amount"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Request bodies. Amounts are decimal or 0x-prefixed wei strings.
type (
	callerRequest struct {
		From string `json:"from"`
	}
	mintRequest struct {
		From     string `json:"from"`
		Quantity uint64 `json:"quantity"`
		Value    string `json:"value"`
	}
	whitelistMintRequest struct {
		From        string `json:"from"`
		Quantity    uint64 `json:"quantity"`
		MaxQuantity uint64 `json:"max_quantity"`
		Signature   string `json:"signature"`
		Value       string `json:"value"`
	}
	reserveRequest struct {
		From     string `json:"from"`
		Quantity uint64 `json:"quantity"`
	}
	priceRequest struct {
		From  string `json:"from"`
		Price string `json:"price"`
	}
	whitelistConfigRequest struct {
		From      string `json:"from"`
		StartTime uint64 `json:"start_time"`
		Signer    string `json:"signer"`
	}
	publicConfigRequest struct {
		From      string `json:"from"`
		StartTime uint64 `json:"start_time"`
	}
	baseURIRequest struct {
		From string `json:"from"`
		URI  string `json:"uri"`
	}
	transferRequest struct {
		From     string `json:"from"`
		NewOwner string `json:"new_owner"`
	}
)

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	c := s.sale
	writeJSON(w, http.StatusOK, statusResponse{
		Params:      c.Params(),
		Owner:       c.Owner(),
		Phase:       c.Phase(),
		TotalMinted: c.TotalMinted(),
		Price:       c.Price().String(),
		BaseURI:     c.BaseURI(),
		Whitelist:   c.WhitelistSaleConfig(),
		Public:      c.PublicSaleConfig(),
		Balance:     c.Balance().String(),
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := s.sale.OwnerOf(id)
	if err != nil {
		writeSaleError(w, err)
		return
	}
	uri, err := s.sale.TokenURI(id)
	if err != nil {
		writeSaleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{ID: id, Owner: owner, TokenURI: uri})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		Address:         addr,
		Tokens:          s.sale.BalanceOf(addr),
		NumberMinted:    s.sale.NumberMinted(addr),
		WhitelistMinted: s.sale.WhitelistMinted(addr),
		Owed:            s.sale.Owed(addr).String(),
	})
}

// ---------------------------------------------------------------------------
// Mints
// ---------------------------------------------------------------------------

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, req.Value })
	if !ok {
		return
	}
	rcpt, err := s.sale.Mint(opts, req.Quantity)
	s.respondReceipt(w, r, rcpt, err)
}

func (s *Server) handleWhitelistMint(w http.ResponseWriter, r *http.Request) {
	var req whitelistMintRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, req.Value })
	if !ok {
		return
	}
	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("signature: %w", err))
		return
	}
	rcpt, err := s.sale.WhitelistMint(opts, req.Quantity, req.MaxQuantity, sig)
	s.respondReceipt(w, r, rcpt, err)
}

func (s *Server) handleClaimRefund(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, "" })
	if !ok {
		return
	}
	amount, err := s.sale.ClaimRefund(opts)
	s.respondAmount(w, r, amount, err)
}

// ---------------------------------------------------------------------------
// Owner operations
// ---------------------------------------------------------------------------

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, "" })
	if !ok {
		return
	}
	rcpt, err := s.sale.Reserve(opts, req.Quantity)
	s.respondReceipt(w, r, rcpt, err)
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, "" })
	if !ok {
		return
	}
	price, err := parseWei("price", req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respondStatus(w, r, s.sale.SetPrice(opts, price))
}

func (s *Server) handleWhitelistConfig(w http.ResponseWriter, r *http.Request) {
	var req whitelistConfigRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, "" })
	if !ok {
		return
	}
	signer, err := parseAddress("signer", req.Signer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respondStatus(w, r, s.sale.SetWhitelistSaleConfig(opts, req.StartTime, signer))
}

func (s *Server) handlePublicConfig(w http.ResponseWriter, r *http.Request) {
	var req publicConfigRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, "" })
	if !ok {
		return
	}
	s.respondStatus(w, r, s.sale.SetPublicSaleConfig(opts, req.StartTime))
}

func (s *Server) handleBaseURI(w http.ResponseWriter, r *http.Request) {
	var req baseURIRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, "" })
	if !ok {
		return
	}
	s.respondStatus(w, r, s.sale.SetBaseURI(opts, req.URI))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, "" })
	if !ok {
		return
	}
	amount, err := s.sale.Withdraw(opts)
	s.respondAmount(w, r, amount, err)
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, "" })
	if !ok {
		return
	}
	to, err := parseAddress("new_owner", req.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respondStatus(w, r, s.sale.TransferOwnership(opts, to))
}

func (s *Server) handleRenounceOwnership(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	opts, ok := s.decodeCall(w, r, &req, func() (string, string) { return req.From, "" })
	if !ok {
		return
	}
	s.respondStatus(w, r, s.sale.RenounceOwnership(opts))
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// decodeCall decodes the body into req, then builds call options from the
// from/value pair that fields returns. It writes a 400 and reports false on
// bad input.
func (s *Server) decodeCall(w http.ResponseWriter, r *http.Request, req any, fields func() (string, string)) (*sale.Opts, bool) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return nil, false
	}
	from, value := fields()
	addr, err := parseAddress("from", from)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	wei, err := parseWei("value", value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return &sale.Opts{From: addr, Value: wei}, true
}

func (s *Server) respondReceipt(w http.ResponseWriter, r *http.Request, rcpt *sale.Receipt, err error) {
	if err != nil {
		writeSaleError(w, err)
		return
	}
	if err := s.persist(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse{
		FirstID:    rcpt.FirstID,
		Quantity:   rcpt.Quantity,
		Cost:       rcpt.Cost.String(),
		Refund:     rcpt.Refund.String(),
		RefundOwed: rcpt.RefundOwed,
	})
}

func (s *Server) respondAmount(w http.ResponseWriter, r *http.Request, amount *big.Int, err error) {
	if err != nil {
		writeSaleError(w, err)
		return
	}
	if err := s.persist(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: amount.String()})
}

func (s *Server) respondStatus(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeSaleError(w, err)
		return
	}
	if err := s.persist(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.handleStatus(w, r)
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, s)
	}
	return common.HexToAddress(s), nil
}

func parseWei(field, s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%s: invalid amount %q", field, s)
	}
	return v, nil
}

// statusFor maps a rejection kind to an HTTP status.
func statusFor(kind sale.Kind) int {
	switch kind {
	case sale.KindAuthorization:
		return http.StatusForbidden
	case sale.KindAuthentication:
		return http.StatusUnauthorized
	case sale.KindTiming:
		return http.StatusTooEarly
	case sale.KindQuota, sale.KindConfiguration:
		return http.StatusConflict
	case sale.KindPayment:
		return http.StatusPaymentRequired
	case sale.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeSaleError(w http.ResponseWriter, err error) {
	var se *sale.Error
	if !errors.As(err, &se) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, statusFor(se.Kind), errorResponse{Error: se.Reason, Kind: se.Kind.String()})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
