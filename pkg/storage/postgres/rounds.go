package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/fl"
)

type RoundRepository struct {
	db *Database
}

func NewRoundRepository(db *Database) *RoundRepository {
	return &RoundRepository{db: db}
}

func (r *RoundRepository) Create(ctx context.Context, rec fl.RoundRecord) error {
	query := `INSERT INTO rounds (session_id, idx, record, completed_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, idx) DO NOTHING`

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := r.db.execAffecting(ctx, pkgerrors.ErrEntityExists, query, rec.SessionID, rec.Index, string(data), rec.CompletedAt); err != nil {
		return wrap(ErrCreate, err)
	}

	return nil
}

func (r *RoundRepository) Get(ctx context.Context, sessionID string, index int) (fl.RoundRecord, error) {
	query := `SELECT record FROM rounds WHERE session_id = $1 AND idx = $2`

	var data string
	if err := r.db.GetContext(ctx, &data, query, sessionID, index); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fl.RoundRecord{}, pkgerrors.ErrNotFound
		}

		return fl.RoundRecord{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var rec fl.RoundRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return fl.RoundRecord{}, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	return rec, nil
}

func (r *RoundRepository) List(ctx context.Context, sessionID string, offset, limit uint64) ([]fl.RoundRecord, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM rounds WHERE session_id = $1`, sessionID); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT record FROM rounds WHERE session_id = $1 ORDER BY idx LIMIT $2 OFFSET $3`

	var rows []string
	if err := r.db.SelectContext(ctx, &rows, query, sessionID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	records := make([]fl.RoundRecord, 0, len(rows))
	for _, data := range rows {
		var rec fl.RoundRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrDBScan, err)
		}
		records = append(records, rec)
	}

	return records, total, nil
}
