package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
)

// ErrCombatantNotFound is returned when a combatant lookup yields no results.
var ErrCombatantNotFound = errors.New("combatant not found")

// ErrNameTaken is returned when saving a player under another player's name.
var ErrNameTaken = errors.New("player name already taken")

// CombatantRepository stores combat.Snapshot values as JSONB, one row per
// combatant ID. Name, kind, level and room are copied into columns so they
// can be queried without decoding the snapshot.
type CombatantRepository struct {
	db *pgxpool.Pool
}

// NewCombatantRepository creates a CombatantRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatantRepository(db *pgxpool.Pool) *CombatantRepository {
	return &CombatantRepository{db: db}
}

const upsertCombatant = `
	INSERT INTO combatants (id, kind, name, level, room, snapshot, saved_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	ON CONFLICT (id) DO UPDATE SET
		kind = EXCLUDED.kind,
		name = EXCLUDED.name,
		level = EXCLUDED.level,
		room = EXCLUDED.room,
		snapshot = EXCLUDED.snapshot,
		saved_at = NOW()`

func upsertArgs(s combat.Snapshot) ([]any, error) {
	if s.ID == "" {
		return nil, errors.New("snapshot has no id")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot %q: %w", s.ID, err)
	}
	return []any{s.ID, s.Kind.String(), s.Name, s.Level, s.Room, data}, nil
}

// Save inserts or replaces the snapshot stored under s.ID.
//
// Postcondition: Returns ErrNameTaken when another player already has s.Name.
func (r *CombatantRepository) Save(ctx context.Context, s combat.Snapshot) error {
	args, err := upsertArgs(s)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, upsertCombatant, args...); err != nil {
		if isDuplicateKeyError(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("saving combatant %q: %w", s.ID, err)
	}
	return nil
}

// SaveAll saves every snapshot in one transaction; either all rows are
// written or none are.
func (r *CombatantRepository) SaveAll(ctx context.Context, snaps []combat.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range snaps {
		args, err := upsertArgs(s)
		if err != nil {
			return err
		}
		batch.Queue(upsertCombatant, args...)
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for _, s := range snaps {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				if isDuplicateKeyError(err) {
					return fmt.Errorf("saving combatant %q: %w", s.ID, ErrNameTaken)
				}
				return fmt.Errorf("saving combatant %q: %w", s.ID, err)
			}
		}
		return br.Close()
	})
}

func scanSnapshot(row pgx.Row) (combat.Snapshot, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		return combat.Snapshot{}, err
	}
	var s combat.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return combat.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return s, nil
}

// Load returns the snapshot stored under id.
//
// Postcondition: Returns ErrCombatantNotFound when no row matches.
func (r *CombatantRepository) Load(ctx context.Context, id string) (combat.Snapshot, error) {
	s, err := scanSnapshot(r.db.QueryRow(ctx, `SELECT snapshot FROM combatants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return combat.Snapshot{}, ErrCombatantNotFound
	}
	if err != nil {
		return combat.Snapshot{}, fmt.Errorf("loading combatant %q: %w", id, err)
	}
	return s, nil
}

// LoadPlayer returns the player snapshot named name, case-insensitively.
func (r *CombatantRepository) LoadPlayer(ctx context.Context, name string) (combat.Snapshot, error) {
	s, err := scanSnapshot(r.db.QueryRow(ctx,
		`SELECT snapshot FROM combatants WHERE kind = 'player' AND LOWER(name) = LOWER($1)`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return combat.Snapshot{}, ErrCombatantNotFound
	}
	if err != nil {
		return combat.Snapshot{}, fmt.Errorf("loading player %q: %w", name, err)
	}
	return s, nil
}

// ListInRoom returns every snapshot last saved in roomID, ordered by name.
func (r *CombatantRepository) ListInRoom(ctx context.Context, roomID string) ([]combat.Snapshot, error) {
	rows, err := r.db.Query(ctx, `SELECT snapshot FROM combatants WHERE room = $1 ORDER BY name, id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("listing combatants in %q: %w", roomID, err)
	}
	defer rows.Close()

	var out []combat.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("listing combatants in %q: %w", roomID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing combatants in %q: %w", roomID, err)
	}
	return out, nil
}

// SavedAt returns when id was last saved.
func (r *CombatantRepository) SavedAt(ctx context.Context, id string) (time.Time, error) {
	var at time.Time
	err := r.db.QueryRow(ctx, `SELECT saved_at FROM combatants WHERE id = $1`, id).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrCombatantNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading saved_at for %q: %w", id, err)
	}
	return at, nil
}

// Delete removes id. Deleting a missing row returns ErrCombatantNotFound.
func (r *CombatantRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM combatants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting combatant %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCombatantNotFound
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
