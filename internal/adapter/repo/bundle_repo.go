package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"promptsmith/internal/domain"
	"promptsmith/internal/infra"
	"promptsmith/internal/sqlinline"
)

// BundleRepositoryPG implements domain.BundleRepository on PostgreSQL. The
// bundle is stored whole as jsonb; used is kept in its own column so it can
// be filtered and flipped without rewriting the payload.
type BundleRepositoryPG struct {
	db         BundleDB
	logger     infra.Logger
	maxEntries int
}

// BundleDB is the part of *pgxpool.Pool the repository uses.
type BundleDB interface {
	infra.SQLExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}

func NewBundleRepository(db BundleDB, maxEntries int, logger infra.Logger) *BundleRepositoryPG {
	return &BundleRepositoryPG{db: db, logger: logger, maxEntries: maxEntries}
}

// EnsureSchema creates the bundle table when it does not exist.
func (r *BundleRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.runner(r.db).Exec(ctx, sqlinline.QCreatePromptBundles); err != nil {
		return fmt.Errorf("repo: ensure schema: %w", err)
	}
	return nil
}

// Append inserts the bundles and trims the table to the newest maxEntries in
// one transaction.
func (r *BundleRepositoryPG) Append(ctx context.Context, bundles ...domain.PromptBundle) error {
	if len(bundles) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	run := r.runner(tx)
	for _, b := range bundles {
		payload, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("repo: encode bundle %q: %w", b.ID, err)
		}
		if _, err := run.Exec(ctx, sqlinline.QInsertPromptBundle, b.ID, b.SettingID, b.Used, b.CreatedAt, payload); err != nil {
			return fmt.Errorf("repo: insert bundle %q: %w", b.ID, err)
		}
	}
	if r.maxEntries > 0 {
		if _, err := run.Exec(ctx, sqlinline.QTrimPromptBundles, r.maxEntries); err != nil {
			return fmt.Errorf("repo: trim bundles: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo: commit: %w", err)
	}
	return nil
}

func (r *BundleRepositoryPG) List(ctx context.Context, filter domain.BundleFilter) ([]domain.PromptBundle, error) {
	rows, err := r.runner(r.db).Query(ctx, sqlinline.QListPromptBundles, filter.UnusedOnly, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("repo: list bundles: %w", err)
	}
	defer rows.Close()

	var bundles []domain.PromptBundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list bundles: %w", err)
	}
	return bundles, nil
}

func (r *BundleRepositoryPG) Get(ctx context.Context, id string) (*domain.PromptBundle, error) {
	b, err := scanBundle(r.runner(r.db).QueryRow(ctx, sqlinline.QSelectPromptBundle, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("repo: bundle %q: %w", id, domain.ErrNotFound)
	}
	return b, err
}

// SetUsed is idempotent; updating to the current value succeeds.
func (r *BundleRepositoryPG) SetUsed(ctx context.Context, id string, used bool) (*domain.PromptBundle, error) {
	b, err := scanBundle(r.runner(r.db).QueryRow(ctx, sqlinline.QSetPromptBundleUsed, id, used))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("repo: bundle %q: %w", id, domain.ErrNotFound)
	}
	return b, err
}

func (r *BundleRepositoryPG) runner(db infra.SQLExecutor) *infra.SQLRunner {
	return infra.NewSQLRunner(db, r.logger)
}

func scanBundle(row pgx.Row) (*domain.PromptBundle, error) {
	var (
		payload []byte
		used    bool
	)
	if err := row.Scan(&payload, &used); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("repo: scan bundle: %w", err)
	}
	var b domain.PromptBundle
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("repo: decode bundle: %w", err)
	}
	b.Used = used
	return &b, nil
}

var _ domain.BundleRepository = (*BundleRepositoryPG)(nil)
