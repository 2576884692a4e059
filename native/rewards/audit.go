package rewards

import "math/big"

// AuditReport compares a pool's recorded totals against a recount of its
// live participants.
type AuditReport struct {
	Pool           [32]byte   `json:"pool"`
	RecordedWeight *big.Int   `json:"recordedWeight"`
	ComputedWeight *big.Int   `json:"computedWeight"`
	RecordedCount  uint64     `json:"recordedCount"`
	ComputedCount  uint64     `json:"computedCount"`
	Missing        [][32]byte `json:"missing,omitempty"`
	Consistent     bool       `json:"consistent"`
}

// Audit recounts the weights behind a pool and checks them against the
// pool's recorded totals. A mismatch means detach bookkeeping has drifted
// and settlement math can no longer be trusted; the report comes back with
// ErrStaleWeight so operators can alarm on it.
func (e *Engine) Audit(id [32]byte) (*AuditReport, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, ok, err := e.state.PoolGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	pool.normalize()

	report := &AuditReport{
		Pool:           pool.ID,
		RecordedWeight: new(big.Int).Set(pool.TotalWeight),
		ComputedWeight: big.NewInt(0),
		RecordedCount:  pool.Positions,
	}

	switch pool.Kind {
	case PoolCreatorDist:
		shares, err := e.state.CreatorShareList(pool.Creator)
		if err != nil {
			return nil, err
		}
		for _, share := range shares {
			if share == nil {
				continue
			}
			report.ComputedWeight.Add(report.ComputedWeight, new(big.Int).SetUint64(share.Weight))
			report.ComputedCount++
		}
	default:
		tokens, err := e.state.PoolIndexList(id)
		if err != nil {
			return nil, err
		}
		for _, token := range tokens {
			pos, ok, err := e.state.PositionGet(token)
			if err != nil {
				return nil, err
			}
			if !ok || pos == nil {
				report.Missing = append(report.Missing, token)
				continue
			}
			report.ComputedWeight.Add(report.ComputedWeight, new(big.Int).SetUint64(pos.Weight))
			report.ComputedCount++
		}
	}

	report.Consistent = len(report.Missing) == 0 &&
		report.ComputedWeight.Cmp(report.RecordedWeight) == 0 &&
		report.ComputedCount == report.RecordedCount
	if !report.Consistent {
		return report, ErrStaleWeight
	}
	return report, nil
}
