package rewards

// TokenRecord tracks current ownership of a minted token. Claims resolve the
// owner through this registry instead of caching an owner on the position,
// so a transfer can never leave a claimable stale owner behind.
type TokenRecord struct {
	Token    [32]byte `json:"token"`
	Owner    [20]byte `json:"owner"`
	MintedAt int64    `json:"mintedAt"`
}

func (t *TokenRecord) Clone() *TokenRecord {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}
