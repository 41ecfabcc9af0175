package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// KillRepository keeps running NPC kill counts per template.
type KillRepository struct {
	db *pgxpool.Pool
}

// NewKillRepository creates a KillRepository backed by the given pool.
func NewKillRepository(db *pgxpool.Pool) *KillRepository {
	return &KillRepository{db: db}
}

// Add adds each delta to its template's count. Non-positive deltas are skipped.
func (r *KillRepository) Add(ctx context.Context, deltas map[string]int) error {
	batch := &pgx.Batch{}
	for tpl, n := range deltas {
		if n <= 0 {
			continue
		}
		batch.Queue(`
			INSERT INTO kill_counts (template_id, kills, updated_at) VALUES ($1, $2, NOW())
			ON CONFLICT (template_id) DO UPDATE SET
				kills = kill_counts.kills + EXCLUDED.kills,
				updated_at = NOW()`, tpl, n)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("adding kill counts: %w", err)
	}
	return nil
}

// All returns every template's total kills.
func (r *KillRepository) All(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT template_id, kills FROM kill_counts`)
	if err != nil {
		return nil, fmt.Errorf("listing kill counts: %w", err)
	}
	out := make(map[string]int)
	var (
		tpl   string
		kills int64
	)
	_, err = pgx.ForEachRow(rows, []any{&tpl, &kills}, func() error {
		out[tpl] = int(kills)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing kill counts: %w", err)
	}
	return out, nil
}
