package rpc

import (
	"errors"
	"net/http"

	"curiochain/native/rewards"
	"curiochain/native/subscription"
	"curiochain/native/treasury"
)

// writeEngineError maps engine sentinels onto JSON-RPC error codes so
// clients can distinguish bad requests from missing records and internal
// faults.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, rewards.ErrPositionNotFound),
		errors.Is(err, rewards.ErrPoolNotFound),
		errors.Is(err, rewards.ErrTokenNotFound),
		errors.Is(err, treasury.ErrNotFound),
		errors.Is(err, subscription.ErrNotFound):
		writeError(w, http.StatusNotFound, id, codeNotFound, err.Error(), nil)
	case errors.Is(err, rewards.ErrNotOwner),
		errors.Is(err, rewards.ErrUnauthorized),
		errors.Is(err, subscription.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, rewards.ErrInvalidAmount),
		errors.Is(err, rewards.ErrInvalidRarity),
		errors.Is(err, rewards.ErrInvalidShare),
		errors.Is(err, rewards.ErrPositionExists),
		errors.Is(err, treasury.ErrInvalidAmount),
		errors.Is(err, treasury.ErrUnknownStream),
		errors.Is(err, subscription.ErrInvalidAmount),
		errors.Is(err, subscription.ErrInvalidPeriod),
		errors.Is(err, subscription.ErrSelfSubscribe):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	case errors.Is(err, treasury.ErrInsufficientFunds),
		errors.Is(err, rewards.ErrVaultUnderfunded),
		errors.Is(err, subscription.ErrNotDue),
		errors.Is(err, subscription.ErrInactive):
		writeError(w, http.StatusConflict, id, codeServerError, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}
