package badger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/absmach/flock/pkg/fl"
)

const roundPrefix = "round:"

type RoundRepository struct {
	db *Database
}

func NewRoundRepository(db *Database) *RoundRepository {
	return &RoundRepository{db: db}
}

func roundSessionPrefix(sessionID string) []byte {
	return []byte(roundPrefix + sessionID + "/")
}

// Indexes are zero padded so key order matches round order.
func roundKey(sessionID string, index int) []byte {
	return fmt.Appendf(roundSessionPrefix(sessionID), "%08d", index)
}

func (r *RoundRepository) Create(_ context.Context, rec fl.RoundRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return r.db.insert(roundKey(rec.SessionID, rec.Index), val)
}

func (r *RoundRepository) Get(_ context.Context, sessionID string, index int) (fl.RoundRecord, error) {
	val, err := r.db.get(roundKey(sessionID, index))
	if err != nil {
		return fl.RoundRecord{}, err
	}

	var rec fl.RoundRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return fl.RoundRecord{}, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	return rec, nil
}

func (r *RoundRepository) List(_ context.Context, sessionID string, offset, limit uint64) ([]fl.RoundRecord, uint64, error) {
	prefix := roundSessionPrefix(sessionID)
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}

	vals, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	records := make([]fl.RoundRecord, 0, len(vals))
	for _, val := range vals {
		var rec fl.RoundRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrDBScan, err)
		}
		records = append(records, rec)
	}

	return records, total, nil
}
