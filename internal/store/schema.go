package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"billing-service/internal/core"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Postgres error codes that indicate the live schema lags behind the code.
const (
	codeUndefinedColumn   = "42703"
	codeUndefinedTable    = "42P01"
	codeDatatypeMismatch  = "42804"
	codeNumericOutOfRange = "22003"
	codeStringTruncation  = "22001"
	codeInvalidTextRepr   = "22P02"
)

const (
	schemaRepairLockKey = "billing:schema-repair"
	schemaRepairLockTTL = 30 * time.Second
)

var driftCodes = map[string]bool{
	codeUndefinedColumn:   true,
	codeUndefinedTable:    true,
	codeDatatypeMismatch:  true,
	codeNumericOutOfRange: true,
	codeStringTruncation:  true,
	codeInvalidTextRepr:   true,
}

// isSchemaDrift reports whether err is a column-type or missing-column class
// error that a schema repair may fix.
func isSchemaDrift(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return driftCodes[pgErr.Code]
	}
	return false
}

// isConnectivity reports whether err means the database could not be reached.
func isConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, core.ErrUnreachable) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.Timeout(err)
}

// repairStatements widen or add every column the gateway writes. Each one is
// idempotent so a repair can run any number of times.
var repairStatements = []string{
	`CREATE TABLE IF NOT EXISTS invoices (
		user_id TEXT NOT NULL,
		id TEXT NOT NULL,
		PRIMARY KEY (user_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		user_id TEXT NOT NULL,
		id TEXT NOT NULL,
		PRIMARY KEY (user_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS document_sequences (
		user_id TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		prefix TEXT NOT NULL,
		last_number INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, doc_type, prefix)
	)`,
}

// documentTables pairs each document table with the type its rows default to.
var documentTables = []struct {
	table   string
	docType core.DocumentType
}{
	{"invoices", core.TypeInvoice},
	{"expenses", core.TypeExpense},
}

func init() {
	for _, dt := range documentTables {
		table, docType := dt.table, dt.docType
		repairStatements = append(repairStatements,
			fmt.Sprintf(`ALTER TABLE %[1]s
				ADD COLUMN IF NOT EXISTS type TEXT NOT NULL DEFAULT '%[2]s',
				ADD COLUMN IF NOT EXISTS client_name TEXT NOT NULL DEFAULT '',
				ADD COLUMN IF NOT EXISTS client_tax_id TEXT NOT NULL DEFAULT '',
				ADD COLUMN IF NOT EXISTS currency TEXT NOT NULL DEFAULT 'USD',
				ADD COLUMN IF NOT EXISTS total NUMERIC(18,4) NOT NULL DEFAULT 0,
				ADD COLUMN IF NOT EXISTS status TEXT NOT NULL DEFAULT 'Created',
				ADD COLUMN IF NOT EXISTS sync_state TEXT NOT NULL DEFAULT 'Synced',
				ADD COLUMN IF NOT EXISTS doc_date DATE,
				ADD COLUMN IF NOT EXISTS data JSONB NOT NULL DEFAULT '{}'::jsonb,
				ADD COLUMN IF NOT EXISTS created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`, table, docType),
			fmt.Sprintf(`ALTER TABLE %s
				ALTER COLUMN id TYPE TEXT,
				ALTER COLUMN client_name TYPE TEXT,
				ALTER COLUMN client_tax_id TYPE TEXT,
				ALTER COLUMN status TYPE TEXT,
				ALTER COLUMN total TYPE NUMERIC(18,4) USING total::numeric,
				ALTER COLUMN data TYPE JSONB USING data::jsonb`, table),
		)
	}
	repairStatements = append(repairStatements,
		`ALTER TABLE clients
			ADD COLUMN IF NOT EXISTS name TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS tax_id TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS email TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS phone TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS address TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS tags TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS notes TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS extension_version INTEGER NOT NULL DEFAULT 1,
			ADD COLUMN IF NOT EXISTS extension_data JSONB NOT NULL DEFAULT '{}'::jsonb,
			ADD COLUMN IF NOT EXISTS created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`,
		`ALTER TABLE clients
			ALTER COLUMN tags TYPE TEXT,
			ALTER COLUMN notes TYPE TEXT,
			ALTER COLUMN extension_data TYPE JSONB USING extension_data::jsonb`,
		`ALTER TABLE audit_logs
			ADD COLUMN IF NOT EXISTS action TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS entity TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS entity_id TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS summary JSONB NOT NULL DEFAULT '{}'::jsonb,
			ADD COLUMN IF NOT EXISTS created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`,
	)
}

// repairSchema re-applies repairStatements under the repair lock.
func (g *Gateway) repairSchema(ctx context.Context, cause error) error {
	release, err := g.locker.Obtain(ctx, schemaRepairLockKey, schemaRepairLockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock schema repair: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			g.log.Warn("failed to release schema repair lock", zap.Error(err))
		}
	}()

	g.log.Warn("schema drift detected, repairing", zap.Error(cause))
	for _, stmt := range repairStatements {
		if _, err := g.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to repair schema: %w", err)
		}
	}
	return nil
}

// withRepair runs op; on a schema-drift error it repairs the schema and runs op
// exactly once more. Connectivity failures are reported as core.ErrUnreachable.
func (g *Gateway) withRepair(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if err != nil && isSchemaDrift(err) {
		if repairErr := g.repairSchema(ctx, err); repairErr != nil {
			g.log.Error("schema repair failed", zap.Error(repairErr))
			return fmt.Errorf("%w (repair failed: %v)", err, repairErr)
		}
		err = op(ctx)
	}
	if isConnectivity(err) && !errors.Is(err, core.ErrUnreachable) {
		return fmt.Errorf("%w: %v", core.ErrUnreachable, err)
	}
	return err
}
