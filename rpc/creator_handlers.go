package rpc

import (
	"net/http"

	"curiochain/native/rewards"
)

type shareResult struct {
	Creator string `json:"creator"`
	Member  string `json:"member"`
	Weight  uint64 `json:"weight"`
}

func shareResultFrom(share *rewards.CreatorShare) shareResult {
	return shareResult{
		Creator: encodeAddr(share.Creator),
		Member:  encodeAddr(share.Member),
		Weight:  share.Weight,
	}
}

func (s *Server) handleCreatorRegister(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Creator string `json:"creator"`
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
	share, err := s.node.RegisterCreator(creator)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, shareResultFrom(share))
}

func (s *Server) handleCreatorSetShare(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Creator string `json:"creator"`
		Member  string `json:"member"`
		Weight  uint64 `json:"weight"`
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
	member, err := parseAddr(params.Member)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	share, err := s.node.SetCollaboratorShare(creator, member, params.Weight)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, shareResultFrom(share))
}

func (s *Server) handleCreatorClaim(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Member  string `json:"member"`
		Creator string `json:"creator"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	member, err := parseAddr(params.Member)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	creator, err := parseAddr(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.node.ClaimCreator(member, creator)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"member":  params.Member,
		"creator": params.Creator,
		"amount":  bigString(amount),
	})
}

func (s *Server) handleCreatorPending(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Member  string `json:"member"`
		Creator string `json:"creator"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	member, err := parseAddr(params.Member)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	creator, err := parseAddr(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.node.PendingCreator(member, creator)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"member":  params.Member,
		"creator": params.Creator,
		"amount":  bigString(amount),
	})
}

func (s *Server) handleCreatorShares(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Creator string `json:"creator"`
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
	shares, err := s.node.CreatorShares(creator)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	results := make([]shareResult, 0, len(shares))
	for _, share := range shares {
		results = append(results, shareResultFrom(share))
	}
	writeResult(w, req.ID, results)
}
