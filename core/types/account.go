package types

import "math/big"

// Account is the ledger record behind every address the engine touches:
// user wallets, creator payout accounts, and the derived vault and
// treasury accounts that hold undistributed rewards.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// Clone returns a deep copy so cached reads cannot alias live state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Nonce: a.Nonce, Balance: big.NewInt(0)}
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	return clone
}
