package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"billing-service/internal/core"
)

// Audit actions.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// AuditEntry is one row of the audit log.
type AuditEntry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id"`
	Summary   map[string]any `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
}

func writeAudit(ctx context.Context, q querier, e AuditEntry) error {
	summary, err := json.Marshal(e.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal audit summary: %w", err)
	}
	_, err = q.Exec(ctx, `
		INSERT INTO audit_logs (user_id, action, entity, entity_id, summary)
		VALUES ($1, $2, $3, $4, $5)
	`, e.UserID, e.Action, e.Entity, e.EntityID, summary)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// ListAudit returns the latest audit entries for an account, newest first.
func (g *Gateway) ListAudit(ctx context.Context, accountID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []AuditEntry
	err := g.withRepair(ctx, func(ctx context.Context) error {
		entries = entries[:0]
		rows, err := g.pool.Query(ctx, `
			SELECT id, user_id, action, entity, entity_id, summary, created_at
			FROM audit_logs
			WHERE user_id = $1
			ORDER BY id DESC
			LIMIT $2
		`, accountID, limit)
		if err != nil {
			return fmt.Errorf("failed to query audit log: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e AuditEntry
			var summary []byte
			if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Entity, &e.EntityID, &summary, &e.CreatedAt); err != nil {
				return fmt.Errorf("failed to scan audit entry: %w", err)
			}
			if err := json.Unmarshal(summary, &e.Summary); err != nil {
				return fmt.Errorf("failed to decode audit summary %d: %w", e.ID, err)
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// RedactDocument summarizes a document for the audit log without copying
// contact details or line items.
func RedactDocument(d *core.Document) map[string]any {
	return map[string]any{
		"type":       string(d.Type),
		"status":     string(d.Status),
		"sync_state": string(d.SyncState),
		"client":     maskTail(d.ClientName, 2),
		"email":      maskEmail(d.ClientEmail),
		"tax_id":     maskHead(d.ClientTaxID, 3),
		"items":      len(d.Items),
		"currency":   d.Currency,
		"total":      d.Total.StringFixed(2),
	}
}

// RedactClient summarizes a client for the audit log.
func RedactClient(c *core.Client) map[string]any {
	return map[string]any{
		"name":   maskTail(c.Name, 2),
		"email":  maskEmail(c.Email),
		"tax_id": maskHead(c.TaxID, 3),
		"tags":   len(c.Tags),
	}
}

// maskTail keeps the first keep runes: "Acme" -> "Ac**".
func maskTail(s string, keep int) string {
	r := []rune(s)
	if len(r) <= keep {
		return strings.Repeat("*", len(r))
	}
	return string(r[:keep]) + strings.Repeat("*", len(r)-keep)
}

// maskHead keeps the last keep runes: "8-123-456" -> "******456".
func maskHead(s string, keep int) string {
	r := []rune(s)
	if len(r) <= keep {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-keep) + string(r[len(r)-keep:])
}

func maskEmail(s string) string {
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return maskTail(s, 1)
	}
	return maskTail(s[:at], 1) + s[at:]
}
