package rpc

import (
	"net/http"

	"curiochain/native/distribution"
	"curiochain/native/treasury"
)

type sweepResult struct {
	Treasury     string `json:"treasury"`
	SweptAt      int64  `json:"sweptAt"`
	Distributed  string `json:"distributed"`
	CarryFlushed string `json:"carryFlushed"`
	GateOpen     bool   `json:"gateOpen"`
}

func sweepResultFrom(receipt *distribution.SweepReceipt) sweepResult {
	return sweepResult{
		Treasury:     encodeID(receipt.Treasury),
		SweptAt:      receipt.SweptAt,
		Distributed:  bigString(receipt.Distributed),
		CarryFlushed: bigString(receipt.CarryFlushed),
		GateOpen:     receipt.GateOpen,
	}
}

// handleRoyalty books a secondary-sale royalty. Marketplaces address it
// either by token id or, when no token survives the sale, by the content
// ref itself.
func (s *Server) handleRoyalty(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Payer  string `json:"payer"`
		Token  string `json:"token,omitempty"`
		Ref    string `json:"ref,omitempty"`
		Bundle bool   `json:"bundle,omitempty"`
		Amount string `json:"amount"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	payer, err := parseAddr(params.Payer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	var receipt *distribution.SweepReceipt
	switch {
	case params.Token != "":
		token, err := parseID(params.Token)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		receipt, err = s.node.PayRoyalty(payer, token, amount)
		if err != nil {
			writeEngineError(w, req.ID, err)
			return
		}
	case params.Ref != "":
		ref, err := parseID(params.Ref)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		receipt, err = s.node.PayRoyaltyByRef(payer, ref, params.Bundle, amount)
		if err != nil {
			writeEngineError(w, req.ID, err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "token or ref required", nil)
		return
	}
	writeResult(w, req.ID, sweepResultFrom(receipt))
}

func (s *Server) handleFundPlatform(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Payer  string `json:"payer"`
		Amount string `json:"amount"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	payer, err := parseAddr(params.Payer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	receipt, err := s.node.FundPlatform(payer, amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, sweepResultFrom(receipt))
}

func (s *Server) handleGetBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddr(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := s.node.Account(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"address": params.Address,
		"balance": bigString(account.Balance),
		"nonce":   account.Nonce,
	})
}

type scopeRefParams struct {
	Scope   string `json:"scope"`
	Ref     string `json:"ref,omitempty"`
	Creator string `json:"creator,omitempty"`
	Force   bool   `json:"force,omitempty"`
}

// scopeRef resolves the treasury coordinates from a request. Creator
// treasuries may be addressed by the creator's bech32 address instead of
// a raw ref; platform needs no ref at all.
func scopeRef(params scopeRefParams) (treasury.ScopeKind, [32]byte, error) {
	scope, err := parseScope(params.Scope)
	if err != nil {
		return 0, [32]byte{}, err
	}
	var ref [32]byte
	switch {
	case scope == treasury.ScopePlatform:
	case scope == treasury.ScopeCreator && params.Creator != "":
		creator, err := parseAddr(params.Creator)
		if err != nil {
			return 0, [32]byte{}, err
		}
		copy(ref[:], creator[:])
	default:
		ref, err = parseID(params.Ref)
		if err != nil {
			return 0, [32]byte{}, err
		}
	}
	return scope, ref, nil
}

type streamStatus struct {
	Deposited string `json:"deposited"`
	Swept     string `json:"swept"`
	Unswept   string `json:"unswept"`
}

type epochStatus struct {
	LastDistributionAt int64  `json:"lastDistributionAt"`
	Distributions      uint64 `json:"distributions"`
	CarryCreator       string `json:"carryCreator"`
	CarryHolders       string `json:"carryHolders"`
	CarryEcosystem     string `json:"carryEcosystem"`
}

type treasuryStatusResult struct {
	ID             string                  `json:"id"`
	Scope          string                  `json:"scope"`
	Ref            string                  `json:"ref"`
	Account        string                  `json:"account"`
	UnlockStart    int64                   `json:"unlockStart"`
	UnlockDuration int64                   `json:"unlockDuration"`
	Streams        map[string]streamStatus `json:"streams"`
	Epoch          *epochStatus            `json:"epoch,omitempty"`
	Now            int64                   `json:"now"`
}

func (s *Server) handleTreasuryStatus(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params scopeRefParams
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	scope, ref, err := scopeRef(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	status, err := s.node.TreasuryStatus(scope, ref)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	t := status.Treasury
	result := treasuryStatusResult{
		ID:             encodeID(t.ID),
		Scope:          t.Scope.String(),
		Ref:            encodeID(t.Ref),
		Account:        encodeAddr(t.Account),
		UnlockStart:    t.UnlockStart,
		UnlockDuration: t.UnlockDuration,
		Streams:        make(map[string]streamStatus),
		Now:            status.Now,
	}
	for _, stream := range treasury.StreamsFor(t.Scope) {
		state := t.StreamState(stream)
		result.Streams[stream.String()] = streamStatus{
			Deposited: bigString(state.Deposited),
			Swept:     bigString(state.Swept),
			Unswept:   bigString(status.Unswept[stream.String()]),
		}
	}
	if status.Epoch != nil {
		result.Epoch = &epochStatus{
			LastDistributionAt: status.Epoch.LastDistributionAt,
			Distributions:      status.Epoch.Distributions,
			CarryCreator:       bigString(status.Epoch.CarryCreator),
			CarryHolders:       bigString(status.Epoch.CarryHolders),
			CarryEcosystem:     bigString(status.Epoch.CarryEcosystem),
		}
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleTreasurySweep(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params scopeRefParams
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	scope, ref, err := scopeRef(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	receipt, err := s.node.SweepTreasury(scope, ref, params.Force)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, sweepResultFrom(receipt))
}
