package rpc

import (
	"math/big"
	"net/http"

	"curiochain/native/rewards"
)

type mintParams struct {
	Buyer   string `json:"buyer"`
	Token   string `json:"token"`
	Creator string `json:"creator"`
	Ref     string `json:"ref"`
	Bundle  bool   `json:"bundle"`
	Patron  bool   `json:"patron"`
	Rarity  string `json:"rarity"`
	Price   string `json:"price,omitempty"`
}

type positionResult struct {
	Token    string `json:"token"`
	Owner    string `json:"owner,omitempty"`
	Creator  string `json:"creator"`
	Ref      string `json:"ref"`
	Bundle   bool   `json:"bundle"`
	Patron   bool   `json:"patron"`
	Rarity   string `json:"rarity"`
	Weight   uint64 `json:"weight"`
	MintedAt int64  `json:"mintedAt"`
}

func positionResultFrom(pos *rewards.Position) positionResult {
	return positionResult{
		Token:    encodeID(pos.Token),
		Creator:  encodeAddr(pos.Creator),
		Ref:      encodeID(pos.Ref),
		Bundle:   pos.Bundle,
		Patron:   pos.PatronDebt.Attached,
		Rarity:   pos.Rarity.String(),
		Weight:   pos.Weight,
		MintedAt: pos.MintedAt,
	}
}

func (s *Server) handleMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params mintParams
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := parseAddr(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	creator, err := parseAddr(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	token, err := parseID(params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	ref, err := parseID(params.Ref)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	rarity, err := rewards.ParseRarity(params.Rarity)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	var price *big.Int
	if params.Price != "" {
		price, err = parseAmount(params.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
	}

	pos, err := s.node.MintToken(buyer, token, creator, ref, params.Bundle, params.Patron, rarity, price)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result := positionResultFrom(pos)
	result.Owner = params.Buyer
	writeResult(w, req.ID, result)
}

func (s *Server) handleBurn(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller string `json:"caller"`
		Token  string `json:"token"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	token, err := parseID(params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pos, err := s.node.BurnToken(caller, token)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, positionResultFrom(pos))
}

func (s *Server) handleTransfer(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Token string `json:"token"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	from, err := parseAddr(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	to, err := parseAddr(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	token, err := parseID(params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.TransferToken(from, to, token); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"token": encodeID(token),
		"owner": params.To,
	})
}

func (s *Server) handleRewardsClaim(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller string `json:"caller"`
		Token  string `json:"token"`
		Class  string `json:"class"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	token, err := parseID(params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	class, err := rewards.ParsePoolClass(params.Class)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.node.ClaimRewards(caller, token, class)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"token":  encodeID(token),
		"class":  class.String(),
		"amount": bigString(amount),
	})
}

func (s *Server) handleRewardsPending(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Token string `json:"token"`
		Class string `json:"class"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	token, err := parseID(params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	class, err := rewards.ParsePoolClass(params.Class)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.node.PendingRewards(token, class)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"token":  encodeID(token),
		"class":  class.String(),
		"amount": bigString(amount),
	})
}

type poolResult struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	Scope          string `json:"scope"`
	Creator        string `json:"creator,omitempty"`
	RewardPerShare string `json:"rewardPerShare"`
	TotalWeight    string `json:"totalWeight"`
	TotalDeposited string `json:"totalDeposited"`
	TotalClaimed   string `json:"totalClaimed"`
	Positions      uint64 `json:"positions"`
}

func (s *Server) handleRewardsPool(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	id, ok := s.resolvePoolID(w, req)
	if !ok {
		return
	}
	pool, err := s.node.PoolInfo(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result := poolResult{
		ID:             encodeID(pool.ID),
		Kind:           pool.Kind.String(),
		Scope:          encodeID(pool.Scope),
		RewardPerShare: bigString(pool.RewardPerShare),
		TotalWeight:    bigString(pool.TotalWeight),
		TotalDeposited: bigString(pool.TotalDeposited),
		TotalClaimed:   bigString(pool.TotalClaimed),
		Positions:      pool.Positions,
	}
	if pool.Creator != ([20]byte{}) {
		result.Creator = encodeAddr(pool.Creator)
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleRewardsPosition(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Token string `json:"token"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	token, err := parseID(params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pos, owner, err := s.node.PositionInfo(token)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result := positionResultFrom(pos)
	result.Owner = encodeAddr(owner)
	writeResult(w, req.ID, result)
}

type auditResult struct {
	Pool           string   `json:"pool"`
	RecordedWeight string   `json:"recordedWeight"`
	ComputedWeight string   `json:"computedWeight"`
	RecordedCount  uint64   `json:"recordedCount"`
	ComputedCount  uint64   `json:"computedCount"`
	Missing        []string `json:"missing,omitempty"`
	Consistent     bool     `json:"consistent"`
}

func (s *Server) handleRewardsAudit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	id, ok := s.resolvePoolID(w, req)
	if !ok {
		return
	}
	report, err := s.node.AuditPool(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result := auditResult{
		Pool:           encodeID(report.Pool),
		RecordedWeight: bigString(report.RecordedWeight),
		ComputedWeight: bigString(report.ComputedWeight),
		RecordedCount:  report.RecordedCount,
		ComputedCount:  report.ComputedCount,
		Consistent:     report.Consistent,
	}
	for _, token := range report.Missing {
		result.Missing = append(result.Missing, encodeID(token))
	}
	writeResult(w, req.ID, result)
}

// resolvePoolID accepts either an explicit pool id or a kind plus the
// scoping fields that derive one.
func (s *Server) resolvePoolID(w http.ResponseWriter, req *RPCRequest) ([32]byte, bool) {
	var params struct {
		ID      string `json:"id,omitempty"`
		Kind    string `json:"kind,omitempty"`
		Ref     string `json:"ref,omitempty"`
		Creator string `json:"creator,omitempty"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return [32]byte{}, false
	}
	if params.ID != "" {
		id, err := parseID(params.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return [32]byte{}, false
		}
		return id, true
	}
	switch params.Kind {
	case "content", "bundle":
		ref, err := parseID(params.Ref)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return [32]byte{}, false
		}
		kind := rewards.PoolContent
		if params.Kind == "bundle" {
			kind = rewards.PoolBundle
		}
		return rewards.PoolIDFor(kind, ref), true
	case "global":
		return rewards.GlobalPoolID(), true
	case "creator-dist", "creator-patron":
		creator, err := parseAddr(params.Creator)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return [32]byte{}, false
		}
		if params.Kind == "creator-dist" {
			return rewards.CreatorPoolID(creator), true
		}
		return rewards.PatronPoolID(creator), true
	default:
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "pool id or kind required", nil)
		return [32]byte{}, false
	}
}
