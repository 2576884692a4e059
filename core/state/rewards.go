package state

import (
	"fmt"
	"math/big"

	"curiochain/native/rewards"
)

func poolStorageKey(id [32]byte) []byte {
	return prefixedKey(poolPrefix, id[:])
}

func poolIndexKey(id [32]byte) []byte {
	return prefixedKey(poolIndexPrefix, id[:])
}

func positionStorageKey(token [32]byte) []byte {
	return prefixedKey(positionPrefix, token[:])
}

func tokenStorageKey(token [32]byte) []byte {
	return prefixedKey(tokenPrefix, token[:])
}

func shareStorageKey(creator, member [20]byte) []byte {
	buf := make([]byte, len(creator)+len(member))
	copy(buf, creator[:])
	copy(buf[len(creator):], member[:])
	return prefixedKey(sharePrefix, buf)
}

func shareIndexKey(creator [20]byte) []byte {
	return prefixedKey(shareIndexPrefix, creator[:])
}

type storedPool struct {
	ID             [32]byte
	Kind           uint8
	Scope          [32]byte
	Creator        [20]byte
	RewardPerShare *big.Int
	TotalWeight    *big.Int
	TotalDeposited *big.Int
	TotalClaimed   *big.Int
	Positions      uint64
}

func newStoredPool(p *rewards.Pool) *storedPool {
	clone := p.Clone()
	return &storedPool{
		ID:             clone.ID,
		Kind:           uint8(clone.Kind),
		Scope:          clone.Scope,
		Creator:        clone.Creator,
		RewardPerShare: clone.RewardPerShare,
		TotalWeight:    clone.TotalWeight,
		TotalDeposited: clone.TotalDeposited,
		TotalClaimed:   clone.TotalClaimed,
		Positions:      clone.Positions,
	}
}

func (s *storedPool) toPool() (*rewards.Pool, error) {
	if s == nil {
		return nil, fmt.Errorf("state: nil pool record")
	}
	kind := rewards.PoolKind(s.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("state: invalid pool kind %d", s.Kind)
	}
	pool := &rewards.Pool{
		ID:             s.ID,
		Kind:           kind,
		Scope:          s.Scope,
		Creator:        s.Creator,
		RewardPerShare: s.RewardPerShare,
		TotalWeight:    s.TotalWeight,
		TotalDeposited: s.TotalDeposited,
		TotalClaimed:   s.TotalClaimed,
		Positions:      s.Positions,
	}
	return pool.Clone(), nil
}

// PoolGet loads one reward pool by ID.
func (m *Manager) PoolGet(id [32]byte) (*rewards.Pool, bool, error) {
	stored := new(storedPool)
	ok, err := m.loadRecord(poolStorageKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	pool, err := stored.toPool()
	if err != nil {
		return nil, false, err
	}
	return pool, true, nil
}

// PoolPut persists one reward pool.
func (m *Manager) PoolPut(pool *rewards.Pool) error {
	if pool == nil {
		return fmt.Errorf("state: nil pool")
	}
	return m.writeRecord(poolStorageKey(pool.ID), newStoredPool(pool))
}

// PoolIndexAdd records a token as a member of a pool.
func (m *Manager) PoolIndexAdd(pool [32]byte, token [32]byte) error {
	return m.indexAppend(poolIndexKey(pool), token[:])
}

// PoolIndexRemove drops a token from a pool's membership index.
func (m *Manager) PoolIndexRemove(pool [32]byte, token [32]byte) error {
	return m.indexRemove(poolIndexKey(pool), token[:])
}

// PoolIndexList returns the tokens attached to a pool in sorted order.
func (m *Manager) PoolIndexList(pool [32]byte) ([][32]byte, error) {
	raw, err := m.indexList(poolIndexKey(pool))
	if err != nil {
		return nil, err
	}
	tokens := make([][32]byte, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 32 {
			return nil, fmt.Errorf("state: malformed pool index entry of %d bytes", len(entry))
		}
		var token [32]byte
		copy(token[:], entry)
		tokens = append(tokens, token)
	}
	return tokens, nil
}

type storedDebtSlot struct {
	Attached bool
	Amount   *big.Int
}

type storedPosition struct {
	Token    [32]byte
	Creator  [20]byte
	Ref      [32]byte
	Bundle   bool
	Rarity   uint8
	Weight   uint64
	MintedAt *big.Int
	Content  storedDebtSlot
	Patron   storedDebtSlot
	Global   storedDebtSlot
}

func newStoredDebtSlot(slot rewards.DebtSlot) storedDebtSlot {
	clone := slot.Clone()
	return storedDebtSlot{Attached: clone.Attached, Amount: clone.Amount}
}

func (s storedDebtSlot) toDebtSlot() rewards.DebtSlot {
	amount := big.NewInt(0)
	if s.Amount != nil {
		amount = new(big.Int).Set(s.Amount)
	}
	return rewards.DebtSlot{Attached: s.Attached, Amount: amount}
}

func newStoredPosition(p *rewards.Position) *storedPosition {
	clone := p.Clone()
	return &storedPosition{
		Token:    clone.Token,
		Creator:  clone.Creator,
		Ref:      clone.Ref,
		Bundle:   clone.Bundle,
		Rarity:   uint8(clone.Rarity),
		Weight:   clone.Weight,
		MintedAt: big.NewInt(clone.MintedAt),
		Content:  newStoredDebtSlot(clone.ContentDebt),
		Patron:   newStoredDebtSlot(clone.PatronDebt),
		Global:   newStoredDebtSlot(clone.GlobalDebt),
	}
}

func (s *storedPosition) toPosition() (*rewards.Position, error) {
	if s == nil {
		return nil, fmt.Errorf("state: nil position record")
	}
	rarity := rewards.Rarity(s.Rarity)
	if !rarity.Valid() {
		return nil, fmt.Errorf("state: invalid rarity %d", s.Rarity)
	}
	return &rewards.Position{
		Token:       s.Token,
		Creator:     s.Creator,
		Ref:         s.Ref,
		Bundle:      s.Bundle,
		Rarity:      rarity,
		Weight:      s.Weight,
		MintedAt:    int64From(s.MintedAt),
		ContentDebt: s.Content.toDebtSlot(),
		PatronDebt:  s.Patron.toDebtSlot(),
		GlobalDebt:  s.Global.toDebtSlot(),
	}, nil
}

// PositionGet loads one position by token ID.
func (m *Manager) PositionGet(token [32]byte) (*rewards.Position, bool, error) {
	stored := new(storedPosition)
	ok, err := m.loadRecord(positionStorageKey(token), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	position, err := stored.toPosition()
	if err != nil {
		return nil, false, err
	}
	return position, true, nil
}

// PositionPut persists one position.
func (m *Manager) PositionPut(position *rewards.Position) error {
	if position == nil {
		return fmt.Errorf("state: nil position")
	}
	return m.writeRecord(positionStorageKey(position.Token), newStoredPosition(position))
}

// PositionDelete removes a position record.
func (m *Manager) PositionDelete(token [32]byte) error {
	return m.deleteRecord(positionStorageKey(token))
}

type storedTokenRecord struct {
	Token    [32]byte
	Owner    [20]byte
	MintedAt *big.Int
}

// TokenGet loads one token ownership record.
func (m *Manager) TokenGet(token [32]byte) (*rewards.TokenRecord, bool, error) {
	stored := new(storedTokenRecord)
	ok, err := m.loadRecord(tokenStorageKey(token), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rewards.TokenRecord{
		Token:    stored.Token,
		Owner:    stored.Owner,
		MintedAt: int64From(stored.MintedAt),
	}, true, nil
}

// TokenPut persists one token ownership record.
func (m *Manager) TokenPut(record *rewards.TokenRecord) error {
	if record == nil {
		return fmt.Errorf("state: nil token record")
	}
	stored := &storedTokenRecord{
		Token:    record.Token,
		Owner:    record.Owner,
		MintedAt: big.NewInt(record.MintedAt),
	}
	return m.writeRecord(tokenStorageKey(record.Token), stored)
}

// TokenDelete removes a token ownership record.
func (m *Manager) TokenDelete(token [32]byte) error {
	return m.deleteRecord(tokenStorageKey(token))
}

type storedCreatorShare struct {
	Creator [20]byte
	Member  [20]byte
	Weight  uint64
	Debt    *big.Int
}

func (s *storedCreatorShare) toCreatorShare() *rewards.CreatorShare {
	debt := big.NewInt(0)
	if s.Debt != nil {
		debt = new(big.Int).Set(s.Debt)
	}
	return &rewards.CreatorShare{
		Creator: s.Creator,
		Member:  s.Member,
		Weight:  s.Weight,
		Debt:    debt,
	}
}

// CreatorShareGet loads one collaborator share grant.
func (m *Manager) CreatorShareGet(creator [20]byte, member [20]byte) (*rewards.CreatorShare, bool, error) {
	stored := new(storedCreatorShare)
	ok, err := m.loadRecord(shareStorageKey(creator, member), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toCreatorShare(), true, nil
}

// CreatorSharePut persists one collaborator share grant and indexes the
// member under the creator.
func (m *Manager) CreatorSharePut(share *rewards.CreatorShare) error {
	if share == nil {
		return fmt.Errorf("state: nil creator share")
	}
	clone := share.Clone()
	stored := &storedCreatorShare{
		Creator: clone.Creator,
		Member:  clone.Member,
		Weight:  clone.Weight,
		Debt:    clone.Debt,
	}
	if err := m.writeRecord(shareStorageKey(clone.Creator, clone.Member), stored); err != nil {
		return err
	}
	return m.indexAppend(shareIndexKey(clone.Creator), clone.Member[:])
}

// CreatorShareDelete removes a collaborator share grant and its index entry.
func (m *Manager) CreatorShareDelete(creator [20]byte, member [20]byte) error {
	if err := m.deleteRecord(shareStorageKey(creator, member)); err != nil {
		return err
	}
	return m.indexRemove(shareIndexKey(creator), member[:])
}

// CreatorShareList returns every share grant under a creator, members in
// sorted order.
func (m *Manager) CreatorShareList(creator [20]byte) ([]*rewards.CreatorShare, error) {
	raw, err := m.indexList(shareIndexKey(creator))
	if err != nil {
		return nil, err
	}
	shares := make([]*rewards.CreatorShare, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 20 {
			return nil, fmt.Errorf("state: malformed share index entry of %d bytes", len(entry))
		}
		var member [20]byte
		copy(member[:], entry)
		share, ok, err := m.CreatorShareGet(creator, member)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("state: share index references missing grant")
		}
		shares = append(shares, share)
	}
	return shares, nil
}
