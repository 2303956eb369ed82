package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/participant"
)

type ParticipantRepository struct {
	db *Database
}

func NewParticipantRepository(db *Database) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

type dbParticipant struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Alive  bool   `db:"alive"`
	Record string `db:"record"`
}

func toDB(p participant.Participant) (dbParticipant, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return dbParticipant{}, fmt.Errorf("marshal error: %w", err)
	}

	return dbParticipant{ID: p.ID, Name: p.Name, Alive: p.Alive, Record: string(data)}, nil
}

func (dbp dbParticipant) toParticipant() (participant.Participant, error) {
	var p participant.Participant
	if err := json.Unmarshal([]byte(dbp.Record), &p); err != nil {
		return participant.Participant{}, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	return p, nil
}

func (r *ParticipantRepository) Create(ctx context.Context, p participant.Participant) error {
	query := `INSERT INTO participants (id, name, alive, record) VALUES (:id, :name, :alive, :record)
		ON CONFLICT (id) DO NOTHING`

	dbp, err := toDB(p)
	if err != nil {
		return err
	}

	res, err := r.db.NamedExecContext(ctx, query, dbp)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return pkgerrors.ErrEntityExists
	}

	return nil
}

func (r *ParticipantRepository) Get(ctx context.Context, id string) (participant.Participant, error) {
	query := `SELECT id, name, alive, record FROM participants WHERE id = $1`

	var dbp dbParticipant
	if err := r.db.GetContext(ctx, &dbp, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return participant.Participant{}, pkgerrors.ErrNotFound
		}

		return participant.Participant{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return dbp.toParticipant()
}

func (r *ParticipantRepository) Update(ctx context.Context, p participant.Participant) error {
	query := `UPDATE participants SET name = $1, alive = $2, record = $3 WHERE id = $4`

	dbp, err := toDB(p)
	if err != nil {
		return err
	}

	if err := r.db.execAffecting(ctx, pkgerrors.ErrNotFound, query, dbp.Name, dbp.Alive, dbp.Record, dbp.ID); err != nil {
		return wrap(ErrUpdate, err)
	}

	return nil
}

func (r *ParticipantRepository) List(ctx context.Context, offset, limit uint64) ([]participant.Participant, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM participants"); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT id, name, alive, record FROM participants ORDER BY id LIMIT $1 OFFSET $2`

	var rows []dbParticipant
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	ps := make([]participant.Participant, 0, len(rows))
	for _, dbp := range rows {
		p, err := dbp.toParticipant()
		if err != nil {
			return nil, 0, err
		}
		ps = append(ps, p)
	}

	return ps, total, nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.execAffecting(ctx, pkgerrors.ErrNotFound, `DELETE FROM participants WHERE id = $1`, id); err != nil {
		return wrap(ErrDelete, err)
	}

	return nil
}
