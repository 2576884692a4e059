package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"curiochain/core/types"
)

func accountKey(addr []byte) []byte {
	return prefixedKey(accountPrefix, addr)
}

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount reconstructs the account stored under the provided address. An
// address that has never been written reads back as a zero account.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if len(addr) == 0 {
		return nil, fmt.Errorf("state: address must not be empty")
	}
	stored := new(storedAccount)
	ok, err := m.loadRecord(accountKey(addr), stored)
	if err != nil {
		return nil, err
	}
	account := &types.Account{Balance: big.NewInt(0)}
	if ok {
		account.Nonce = stored.Nonce
		if stored.Balance != nil {
			account.Balance = new(big.Int).Set(stored.Balance)
		}
	}
	return account, nil
}

// PutAccount persists the provided account state under the supplied address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if len(addr) == 0 {
		return fmt.Errorf("state: address must not be empty")
	}
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	balance := big.NewInt(0)
	if account.Balance != nil {
		balance = account.Balance
	}
	if balance.Sign() < 0 {
		return fmt.Errorf("state: negative balance not allowed")
	}
	if _, overflow := uint256.FromBig(balance); overflow {
		return fmt.Errorf("state: balance overflow")
	}
	stored := &storedAccount{
		Nonce:   account.Nonce,
		Balance: new(big.Int).Set(balance),
	}
	return m.writeRecord(accountKey(addr), stored)
}
