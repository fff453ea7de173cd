package store

import (
	"context"
	"fmt"

	"billing-service/internal/core"
)

// ReserveID atomically takes the next number of the (account, type, prefix)
// sequence and returns the first id at or after it that no existing document
// uses. The counter row stays locked until commit, so concurrent reservations
// for the same sequence are serialized and never return the same id.
func (g *Gateway) ReserveID(ctx context.Context, accountID string, docType core.DocumentType, prefix string) (string, error) {
	if prefix == "" {
		prefix = core.DefaultPrefix(docType)
	}

	var id string
	err := g.withRepair(ctx, func(ctx context.Context) error {
		tx, err := g.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		var next int
		err = tx.QueryRow(ctx, `
			INSERT INTO document_sequences (user_id, doc_type, prefix, last_number)
			VALUES ($1, $2, $3, 1)
			ON CONFLICT (user_id, doc_type, prefix)
			DO UPDATE SET last_number = document_sequences.last_number + 1
			RETURNING last_number
		`, accountID, string(docType), prefix).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to reserve sequence number: %w", err)
		}

		existing, err := existingIDs(ctx, tx, accountID, tableFor(docType), prefix)
		if err != nil {
			return err
		}

		candidate, used := core.AllocateID(prefix, next, existing)
		if used != next {
			if _, err := tx.Exec(ctx, `
				UPDATE document_sequences SET last_number = $4
				WHERE user_id = $1 AND doc_type = $2 AND prefix = $3
			`, accountID, string(docType), prefix, used); err != nil {
				return fmt.Errorf("failed to advance sequence past existing ids: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		id = candidate
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func existingIDs(ctx context.Context, q querier, accountID, table, prefix string) (map[string]struct{}, error) {
	rows, err := q.Query(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE user_id = $1 AND id LIKE $2", table),
		accountID, prefix+"-%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
