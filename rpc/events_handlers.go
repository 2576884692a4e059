package rpc

import (
	"net/http"

	"curiochain/storage/journal"
)

type eventResult struct {
	Seq        uint64            `json:"seq"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
	EmittedAt  int64             `json:"emittedAt"`
	PrevHash   string            `json:"prevHash"`
	Hash       string            `json:"hash"`
}

func eventResultFrom(entry journal.Entry) eventResult {
	return eventResult{
		Seq:        entry.Seq,
		Type:       entry.Type,
		Attributes: entry.Attributes,
		EmittedAt:  entry.EmittedAt,
		PrevHash:   encodeID(entry.PrevHash),
		Hash:       encodeID(entry.Hash),
	}
}

func (s *Server) handleEventsHead(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	seq, hash, err := s.node.EventsHead()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"seq":  seq,
		"hash": encodeID(hash),
	})
}

func (s *Server) handleEventsAfter(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Cursor uint64 `json:"cursor"`
		Limit  int    `json:"limit,omitempty"`
	}
	if err := firstParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	entries, err := s.node.EventsAfter(params.Cursor, params.Limit)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	results := make([]eventResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, eventResultFrom(entry))
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleEventsVerify(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if err := s.node.VerifyJournal(); err != nil {
		writeResult(w, req.ID, map[string]interface{}{
			"intact": false,
			"error":  err.Error(),
		})
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"intact": true})
}
