package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"billing-service/internal/core"
	"billing-service/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Config is everything the gateway needs to connect. It is injected by the
// caller; the gateway never reads the environment itself.
type Config struct {
	DatabaseURL string
	MaxConns    int32
	RedisURL    string // optional; enables the cross-process schema repair lock
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Gateway persists documents, clients and the audit log in Postgres.
// Invoices and quotes share the invoices table; expenses live in expenses.
type Gateway struct {
	pool   *pgxpool.Pool
	locker Locker
	log    *zap.Logger
}

// Open connects to Postgres (and Redis, when configured) and returns a gateway
// handle. Close releases both. An unreachable database is not fatal: the
// gateway is returned and its calls report core.ErrUnreachable until the
// database answers.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Gateway, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.MaxConns)
	if err != nil {
		if pool == nil || !errors.Is(err, core.ErrUnreachable) {
			return nil, err
		}
		log.Warn("database unreachable at startup, writes will queue until it answers", zap.Error(err))
	}

	locker := NewLocalLocker()
	if cfg.RedisURL != "" {
		rl, err := NewRedisLocker(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis lock unavailable; schema repair serialized in-process only", zap.Error(err))
		} else {
			locker = rl
		}
	}
	return New(pool, locker, log), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, locker Locker, log *zap.Logger) *Gateway {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{pool: pool, locker: locker, log: log.Named("store")}
}

// Close releases the pool and the lock backend.
func (g *Gateway) Close() {
	g.pool.Close()
	if err := g.locker.Close(); err != nil {
		g.log.Warn("failed to close locker", zap.Error(err))
	}
}

// Pool exposes the underlying pool for migrations.
func (g *Gateway) Pool() *pgxpool.Pool {
	return g.pool
}

// Ping reports whether the database is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrUnreachable, err)
	}
	return nil
}

func tableFor(t core.DocumentType) string {
	if t == core.TypeExpense {
		return "expenses"
	}
	return "invoices"
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// Upsert writes doc keyed by (user_id, id). Writing the same document twice
// leaves one row holding the latest values. The stored total is always the
// recomputed one.
func (g *Gateway) Upsert(ctx context.Context, doc *core.Document) error {
	if diff, drift := doc.TotalDrift(); drift {
		g.log.Warn("document total diverged from its items; recomputing",
			zap.String("id", doc.ID), zap.String("user_id", doc.UserID), zap.String("diff", diff.String()))
	}
	doc.Recompute()
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = doc.UpdatedAt
	}

	snapshot, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", doc.ID, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, id, type, client_name, client_tax_id, currency, total,
			status, sync_state, doc_date, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, id) DO UPDATE SET
			type = EXCLUDED.type,
			client_name = EXCLUDED.client_name,
			client_tax_id = EXCLUDED.client_tax_id,
			currency = EXCLUDED.currency,
			total = EXCLUDED.total,
			status = EXCLUDED.status,
			sync_state = EXCLUDED.sync_state,
			doc_date = EXCLUDED.doc_date,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, tableFor(doc.Type))

	return g.withRepair(ctx, func(ctx context.Context) error {
		tx, err := g.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		_, err = tx.Exec(ctx, query,
			doc.UserID, doc.ID, string(doc.Type), doc.ClientName, doc.ClientTaxID, doc.Currency, doc.Total,
			string(doc.Status), string(doc.SyncState), nullableDate(doc.Date), snapshot, doc.CreatedAt, doc.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
		}

		if err := writeAudit(ctx, tx, AuditEntry{
			UserID:   doc.UserID,
			Action:   ActionUpsert,
			Entity:   string(doc.Type),
			EntityID: doc.ID,
			Summary:  RedactDocument(doc),
		}); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

const selectDocuments = `
	SELECT user_id, id, type, status, sync_state, data, doc_date, updated_at FROM invoices WHERE user_id = $1 %[1]s
	UNION ALL
	SELECT user_id, id, 'expense', status, sync_state, data, doc_date, updated_at FROM expenses WHERE user_id = $1 %[1]s
	ORDER BY doc_date DESC NULLS LAST, updated_at DESC
`

// FetchAll returns every document owned by accountID, invoices, quotes and
// expenses merged into one stream. An unreachable database yields
// core.ErrUnreachable.
func (g *Gateway) FetchAll(ctx context.Context, accountID string) ([]core.Document, error) {
	var docs []core.Document
	err := g.withRepair(ctx, func(ctx context.Context) error {
		docs = docs[:0]
		rows, err := g.pool.Query(ctx, fmt.Sprintf(selectDocuments, ""), accountID)
		if err != nil {
			return fmt.Errorf("failed to query documents: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			doc, err := g.scanDocument(rows)
			if err != nil {
				return err
			}
			docs = append(docs, *doc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Get returns one document, or core.ErrNotFound.
func (g *Gateway) Get(ctx context.Context, accountID, id string) (*core.Document, error) {
	var doc *core.Document
	err := g.withRepair(ctx, func(ctx context.Context) error {
		row := g.pool.QueryRow(ctx, fmt.Sprintf(selectDocuments, "AND id = $2")+" LIMIT 1", accountID, id)
		d, err := g.scanDocument(row)
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (g *Gateway) scanDocument(row pgx.Row) (*core.Document, error) {
	var (
		userID, id, typ, status, syncState string
		data                               []byte
		docDate                            *time.Time
		updatedAt                          time.Time
	)
	if err := row.Scan(&userID, &id, &typ, &status, &syncState, &data, &docDate, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	var doc core.Document
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
		}
	}
	// Normalized columns win over the snapshot.
	doc.UserID = userID
	doc.ID = id
	doc.Type = core.DocumentType(typ)
	doc.Status = core.DocumentStatus(status)
	doc.SyncState = core.SyncState(syncState)
	if doc.Date.IsZero() && docDate != nil {
		doc.Date = *docDate
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = updatedAt
	}
	doc.Normalize("")

	if diff, drift := doc.TotalDrift(); drift {
		g.log.Warn("stored total does not match items",
			zap.String("id", doc.ID), zap.String("user_id", doc.UserID), zap.String("diff", diff.String()))
	}
	return &doc, nil
}

// Delete removes a document from whichever table holds it.
func (g *Gateway) Delete(ctx context.Context, accountID, id string) error {
	return g.withRepair(ctx, func(ctx context.Context) error {
		tx, err := g.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		var entity string
		for _, table := range []string{"invoices", "expenses"} {
			var typ string
			err := tx.QueryRow(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE user_id = $1 AND id = $2 RETURNING type", table),
				accountID, id,
			).Scan(&typ)
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to delete document %s: %w", id, err)
			}
			entity = typ
			break
		}
		if entity == "" {
			return fmt.Errorf("document %s: %w", id, core.ErrNotFound)
		}

		if err := writeAudit(ctx, tx, AuditEntry{
			UserID:   accountID,
			Action:   ActionDelete,
			Entity:   entity,
			EntityID: id,
			Summary:  map[string]any{"id": id},
		}); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}
