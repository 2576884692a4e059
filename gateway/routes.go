package gateway

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"curiochain/crypto"
	"curiochain/native/rewards"
	"curiochain/native/subscription"
	"curiochain/native/treasury"
	"curiochain/storage/journal"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeNodeError translates engine sentinels into REST status codes.
func writeNodeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rewards.ErrPositionNotFound),
		errors.Is(err, rewards.ErrPoolNotFound),
		errors.Is(err, rewards.ErrTokenNotFound),
		errors.Is(err, treasury.ErrNotFound),
		errors.Is(err, subscription.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rewards.ErrNotOwner),
		errors.Is(err, rewards.ErrUnauthorized),
		errors.Is(err, subscription.ErrUnauthorized):
		writeJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, rewards.ErrVaultUnderfunded),
		errors.Is(err, treasury.ErrInsufficientFunds):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func pathAddr(r *http.Request, name string) ([20]byte, error) {
	var out [20]byte
	decoded, err := crypto.DecodeAddress(chi.URLParam(r, name))
	if err != nil {
		return out, fmt.Errorf("invalid %s address: %w", name, err)
	}
	if decoded.Prefix() != crypto.CurioPrefix {
		return out, fmt.Errorf("%s address must use the %s prefix", name, crypto.CurioPrefix)
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

func parseHexID(value string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(value), "0x"), "0X")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid identifier: %w", err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("identifier must be 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func hexID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

func bech32Addr(addr [20]byte) string {
	return crypto.NewAddress(crypto.CurioPrefix, addr[:]).String()
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

type positionJSON struct {
	Token    string `json:"token"`
	Owner    string `json:"owner"`
	Creator  string `json:"creator"`
	Ref      string `json:"ref"`
	Bundle   bool   `json:"bundle"`
	Patron   bool   `json:"patron"`
	Rarity   string `json:"rarity"`
	Weight   uint64 `json:"weight"`
	MintedAt int64  `json:"mintedAt"`
}

func (g *Gateway) handlePosition(w http.ResponseWriter, r *http.Request) {
	token, err := parseHexID(chi.URLParam(r, "token"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	pos, owner, err := g.node.PositionInfo(token)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionJSON{
		Token:    hexID(pos.Token),
		Owner:    bech32Addr(owner),
		Creator:  bech32Addr(pos.Creator),
		Ref:      hexID(pos.Ref),
		Bundle:   pos.Bundle,
		Patron:   pos.PatronDebt.Attached,
		Rarity:   pos.Rarity.String(),
		Weight:   pos.Weight,
		MintedAt: pos.MintedAt,
	})
}

// handlePositionRewards reports the live pending value of every class a
// position participates in. Classes the position never joined read zero.
func (g *Gateway) handlePositionRewards(w http.ResponseWriter, r *http.Request) {
	token, err := parseHexID(chi.URLParam(r, "token"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	pending := make(map[string]string, 3)
	for _, class := range []rewards.PoolClass{rewards.ClassContent, rewards.ClassPatron, rewards.ClassGlobal} {
		amount, err := g.node.PendingRewards(token, class)
		if err != nil {
			writeNodeError(w, err)
			return
		}
		pending[class.String()] = decimal(amount)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":   hexID(token),
		"pending": pending,
	})
}

func (g *Gateway) handlePool(w http.ResponseWriter, r *http.Request) {
	id, err := parseHexID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	pool, err := g.node.PoolInfo(id)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	out := map[string]interface{}{
		"id":             hexID(pool.ID),
		"kind":           pool.Kind.String(),
		"scope":          hexID(pool.Scope),
		"rewardPerShare": decimal(pool.RewardPerShare),
		"totalWeight":    decimal(pool.TotalWeight),
		"totalDeposited": decimal(pool.TotalDeposited),
		"totalClaimed":   decimal(pool.TotalClaimed),
		"positions":      pool.Positions,
	}
	if pool.Creator != ([20]byte{}) {
		out["creator"] = bech32Addr(pool.Creator)
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleCreatorShares(w http.ResponseWriter, r *http.Request) {
	creator, err := pathAddr(r, "creator")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	shares, err := g.node.CreatorShares(creator)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(shares))
	for _, share := range shares {
		out = append(out, map[string]interface{}{
			"creator": bech32Addr(share.Creator),
			"member":  bech32Addr(share.Member),
			"weight":  share.Weight,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleCreatorPending(w http.ResponseWriter, r *http.Request) {
	creator, err := pathAddr(r, "creator")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	member, err := pathAddr(r, "member")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := g.node.PendingCreator(member, creator)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"creator": bech32Addr(creator),
		"member":  bech32Addr(member),
		"pending": decimal(amount),
	})
}

func (g *Gateway) handleTreasury(w http.ResponseWriter, r *http.Request) {
	var scope treasury.ScopeKind
	switch strings.ToLower(chi.URLParam(r, "scope")) {
	case "platform":
		scope = treasury.ScopePlatform
	case "creator":
		scope = treasury.ScopeCreator
	case "content":
		scope = treasury.ScopeContent
	case "bundle":
		scope = treasury.ScopeBundle
	default:
		writeJSONError(w, http.StatusBadRequest, "unknown treasury scope")
		return
	}
	var ref [32]byte
	switch {
	case scope == treasury.ScopePlatform:
	case scope == treasury.ScopeCreator && r.URL.Query().Get("creator") != "":
		decoded, err := crypto.DecodeAddress(r.URL.Query().Get("creator"))
		if err != nil || decoded.Prefix() != crypto.CurioPrefix {
			writeJSONError(w, http.StatusBadRequest, "invalid creator address")
			return
		}
		copy(ref[:], decoded.Bytes())
	default:
		parsed, err := parseHexID(r.URL.Query().Get("ref"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		ref = parsed
	}
	status, err := g.node.TreasuryStatus(scope, ref)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	t := status.Treasury
	streams := make(map[string]map[string]string)
	for _, stream := range treasury.StreamsFor(t.Scope) {
		state := t.StreamState(stream)
		streams[stream.String()] = map[string]string{
			"deposited": decimal(state.Deposited),
			"swept":     decimal(state.Swept),
			"unswept":   decimal(status.Unswept[stream.String()]),
		}
	}
	out := map[string]interface{}{
		"id":             hexID(t.ID),
		"scope":          t.Scope.String(),
		"ref":            hexID(t.Ref),
		"account":        bech32Addr(t.Account),
		"unlockStart":    t.UnlockStart,
		"unlockDuration": t.UnlockDuration,
		"streams":        streams,
		"now":            status.Now,
	}
	if status.Epoch != nil {
		out["epoch"] = map[string]interface{}{
			"lastDistributionAt": status.Epoch.LastDistributionAt,
			"distributions":      status.Epoch.Distributions,
			"carryCreator":       decimal(status.Epoch.CarryCreator),
			"carryHolders":       decimal(status.Epoch.CarryHolders),
			"carryEcosystem":     decimal(status.Epoch.CarryEcosystem),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func subscriptionJSON(sub *subscription.Subscription) map[string]interface{} {
	return map[string]interface{}{
		"id":             hexID(sub.ID),
		"creator":        bech32Addr(sub.Creator),
		"patron":         bech32Addr(sub.Patron),
		"amountPerEpoch": decimal(sub.AmountPerEpoch),
		"epochSeconds":   sub.EpochSeconds,
		"createdAt":      sub.CreatedAt,
		"lastPaidAt":     sub.LastPaidAt,
		"cancelledAt":    sub.CancelledAt,
		"active":         sub.Active,
	}
}

func (g *Gateway) handleSubscriptions(w http.ResponseWriter, _ *http.Request) {
	ids, err := g.node.ListSubscriptions()
	if err != nil {
		writeNodeError(w, err)
		return
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, hexID(id))
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseHexID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := g.node.SubscriptionView(id)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionJSON(sub))
}

func (g *Gateway) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddr(r, "address")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	account, err := g.node.Account(addr)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address": bech32Addr(addr),
		"balance": decimal(account.Balance),
		"nonce":   account.Nonce,
	})
}

// handleClaim settles one pool class of a position and pays the owner. The
// route is write-capable, so it refuses to serve until a JWT secret is
// configured even though reads stay open without one.
func (g *Gateway) handleClaim(w http.ResponseWriter, r *http.Request) {
	if len(g.secret) == 0 {
		writeJSONError(w, http.StatusUnauthorized, "claims require a configured gateway secret")
		return
	}
	var body struct {
		Caller string `json:"caller"`
		Token  string `json:"token"`
		Class  string `json:"class"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid claim body")
		return
	}
	decoded, err := crypto.DecodeAddress(body.Caller)
	if err != nil || decoded.Prefix() != crypto.CurioPrefix {
		writeJSONError(w, http.StatusBadRequest, "invalid caller address")
		return
	}
	var caller [20]byte
	copy(caller[:], decoded.Bytes())
	token, err := parseHexID(body.Token)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	class, err := rewards.ParsePoolClass(body.Class)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := g.node.ClaimRewards(caller, token, class)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token":  hexID(token),
		"class":  class.String(),
		"amount": decimal(amount),
	})
}

func eventJSON(entry journal.Entry) map[string]interface{} {
	return map[string]interface{}{
		"seq":        entry.Seq,
		"type":       entry.Type,
		"attributes": entry.Attributes,
		"emittedAt":  entry.EmittedAt,
		"prevHash":   hexID(entry.PrevHash),
		"hash":       hexID(entry.Hash),
	}
}

func (g *Gateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	cursor := uint64(0)
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		cursor = parsed
	}
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if parsed > maxEventLimit {
			parsed = maxEventLimit
		}
		limit = parsed
	}
	entries, err := g.node.EventsAfter(cursor, limit)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		out = append(out, eventJSON(entry))
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleEventsHead(w http.ResponseWriter, _ *http.Request) {
	seq, hash, err := g.node.EventsHead()
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"seq":  seq,
		"hash": hexID(hash),
	})
}
