package rpc

import (
	"net/http"

	"curiochain/native/subscription"
)

type subscriptionResult struct {
	ID             string `json:"id"`
	Creator        string `json:"creator"`
	Patron         string `json:"patron"`
	AmountPerEpoch string `json:"amountPerEpoch"`
	EpochSeconds   int64  `json:"epochSeconds"`
	CreatedAt      int64  `json:"createdAt"`
	LastPaidAt     int64  `json:"lastPaidAt,omitempty"`
	CancelledAt    int64  `json:"cancelledAt,omitempty"`
	Active         bool   `json:"active"`
}

func subscriptionResultFrom(sub *subscription.Subscription) subscriptionResult {
	return subscriptionResult{
		ID:             encodeID(sub.ID),
		Creator:        encodeAddr(sub.Creator),
		Patron:         encodeAddr(sub.Patron),
		AmountPerEpoch: bigString(sub.AmountPerEpoch),
		EpochSeconds:   sub.EpochSeconds,
		CreatedAt:      sub.CreatedAt,
		LastPaidAt:     sub.LastPaidAt,
		CancelledAt:    sub.CancelledAt,
		Active:         sub.Active,
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Creator      string `json:"creator"`
		Patron       string `json:"patron"`
		Amount       string `json:"amount"`
		EpochSeconds int64  `json:"epochSeconds"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	creator, err := parseAddr(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	patron, err := parseAddr(params.Patron)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sub, err := s.node.Subscribe(creator, patron, amount, params.EpochSeconds)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, subscriptionResultFrom(sub))
}

func (s *Server) handleSubsCancel(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller string `json:"caller"`
		ID     string `json:"id"`
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
	id, err := parseID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.CancelSubscription(caller, id); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"id":     params.ID,
		"active": false,
	})
}

func (s *Server) handleSubsGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		ID string `json:"id"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sub, err := s.node.SubscriptionView(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, subscriptionResultFrom(sub))
}

func (s *Server) handleSubsList(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	ids, err := s.node.ListSubscriptions()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	results := make([]string, 0, len(ids))
	for _, id := range ids {
		results = append(results, encodeID(id))
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleSubsProcess(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		ID string `json:"id"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	charged, err := s.node.ProcessSubscription(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"id":      params.ID,
		"charged": bigString(charged),
	})
}

func (s *Server) handleSubsProcessDue(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	charged, skipped, err := s.node.ProcessDueSubscriptions()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]int{
		"charged": charged,
		"skipped": skipped,
	})
}
