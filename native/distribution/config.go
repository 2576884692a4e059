package distribution

import (
	"fmt"

	"curiochain/native/treasury"
)

// Destination names where a slice of unlocked value is routed.
type Destination uint8

const (
	DestCreator Destination = iota
	DestHolders
	DestPlatform
	DestEcosystem
)

func (d Destination) String() string {
	switch d {
	case DestCreator:
		return "creator"
	case DestHolders:
		return "holders"
	case DestPlatform:
		return "platform"
	case DestEcosystem:
		return "ecosystem"
	default:
		return "unknown"
	}
}

// SplitTable routes one stream's unlocked value across destinations, in
// whole percents. Percents must sum to exactly 100; rounding dust from the
// pool-bound shares lands on the platform share so every sweep conserves
// value.
type SplitTable struct {
	Creator   uint32 `toml:"creator" json:"creator"`
	Holders   uint32 `toml:"holders" json:"holders"`
	Platform  uint32 `toml:"platform" json:"platform"`
	Ecosystem uint32 `toml:"ecosystem" json:"ecosystem"`
}

// Percent returns the slice routed to one destination.
func (t SplitTable) Percent(dest Destination) uint32 {
	switch dest {
	case DestCreator:
		return t.Creator
	case DestHolders:
		return t.Holders
	case DestPlatform:
		return t.Platform
	case DestEcosystem:
		return t.Ecosystem
	default:
		return 0
	}
}

// Sum returns the total routed percentage.
func (t SplitTable) Sum() uint32 {
	return t.Creator + t.Holders + t.Platform + t.Ecosystem
}

// Validate ensures the table routes the whole stream and nothing more.
func (t SplitTable) Validate() error {
	if t.Sum() != 100 {
		return fmt.Errorf("distribution: splits must sum to 100, got %d", t.Sum())
	}
	return nil
}

// Config carries the distributor's split tables and epoch gate.
type Config struct {
	// MinEpochInterval is the minimum time between fresh distributions of
	// one treasury, in seconds. Carry flushes are not gated.
	MinEpochInterval int64 `toml:"minEpochInterval" json:"minEpochInterval"`

	Primary      SplitTable `toml:"primary" json:"primary"`
	Secondary    SplitTable `toml:"secondary" json:"secondary"`
	Subscription SplitTable `toml:"subscription" json:"subscription"`
	Direct       SplitTable `toml:"direct" json:"direct"`
}

// DefaultConfig returns the platform's standard routing.
func DefaultConfig() Config {
	return Config{
		MinEpochInterval: 3600,
		Primary:          SplitTable{Creator: 80, Holders: 12, Platform: 5, Ecosystem: 3},
		Secondary:        SplitTable{Creator: 50, Holders: 25, Platform: 10, Ecosystem: 15},
		Subscription:     SplitTable{Creator: 70, Holders: 20, Platform: 7, Ecosystem: 3},
		Direct:           SplitTable{Creator: 0, Holders: 0, Platform: 20, Ecosystem: 80},
	}
}

// TableFor returns the split table applied to a stream.
func (c Config) TableFor(stream treasury.Stream) SplitTable {
	switch stream {
	case treasury.StreamPrimary:
		return c.Primary
	case treasury.StreamSecondary:
		return c.Secondary
	case treasury.StreamSubscription:
		return c.Subscription
	case treasury.StreamDirect:
		return c.Direct
	default:
		return SplitTable{}
	}
}

// Validate checks every table and the gate.
func (c Config) Validate() error {
	if c.MinEpochInterval < 0 {
		return fmt.Errorf("distribution: min epoch interval must not be negative")
	}
	for _, entry := range []struct {
		name  string
		table SplitTable
	}{
		{"primary", c.Primary},
		{"secondary", c.Secondary},
		{"subscription", c.Subscription},
		{"direct", c.Direct},
	} {
		if err := entry.table.Validate(); err != nil {
			return fmt.Errorf("%s: %w", entry.name, err)
		}
	}
	if c.Direct.Creator != 0 || c.Direct.Holders != 0 {
		return fmt.Errorf("distribution: direct stream has no creator or holder destination")
	}
	return nil
}
