package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"billing-service/internal/core"
)

// UpsertClient inserts or updates a client directory entry.
func (g *Gateway) UpsertClient(ctx context.Context, c *core.Client) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	ext, err := json.Marshal(c.Extension.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal client extension data: %w", err)
	}

	return g.withRepair(ctx, func(ctx context.Context) error {
		tx, err := g.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		_, err = tx.Exec(ctx, `
			INSERT INTO clients (id, user_id, name, tax_id, email, phone, address, tags, notes,
				extension_version, extension_data, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				tax_id = EXCLUDED.tax_id,
				email = EXCLUDED.email,
				phone = EXCLUDED.phone,
				address = EXCLUDED.address,
				tags = EXCLUDED.tags,
				notes = EXCLUDED.notes,
				extension_version = EXCLUDED.extension_version,
				extension_data = EXCLUDED.extension_data,
				updated_at = EXCLUDED.updated_at
			WHERE clients.user_id = EXCLUDED.user_id
		`, c.ID, c.UserID, c.Name, c.TaxID, c.Email, c.Phone, c.Address,
			core.JoinList(c.Tags), core.JoinList(c.Notes),
			c.Extension.Version, ext, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert client %s: %w", c.ID, err)
		}

		if err := writeAudit(ctx, tx, AuditEntry{
			UserID:   c.UserID,
			Action:   ActionUpsert,
			Entity:   "client",
			EntityID: c.ID,
			Summary:  RedactClient(c),
		}); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// ListClients returns an account's clients ordered by name.
func (g *Gateway) ListClients(ctx context.Context, accountID string) ([]core.Client, error) {
	var clients []core.Client
	err := g.withRepair(ctx, func(ctx context.Context) error {
		clients = clients[:0]
		rows, err := g.pool.Query(ctx, `
			SELECT id, user_id, name, tax_id, email, phone, address, tags, notes,
				extension_version, extension_data, created_at, updated_at
			FROM clients
			WHERE user_id = $1
			ORDER BY name
		`, accountID)
		if err != nil {
			return fmt.Errorf("failed to query clients: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c core.Client
			var tags, notes string
			var ext []byte
			if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.Address,
				&tags, &notes, &c.Extension.Version, &ext, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return fmt.Errorf("failed to scan client: %w", err)
			}
			c.Tags = core.SplitList(tags)
			c.Notes = core.SplitList(notes)
			if len(ext) > 0 {
				if err := json.Unmarshal(ext, &c.Extension.Data); err != nil {
					return fmt.Errorf("failed to decode client %s extension data: %w", c.ID, err)
				}
			}
			clients = append(clients, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return clients, nil
}

// DeleteClient removes a client. Documents keep their snapshot of it.
func (g *Gateway) DeleteClient(ctx context.Context, accountID, id string) error {
	return g.withRepair(ctx, func(ctx context.Context) error {
		tx, err := g.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		tag, err := tx.Exec(ctx, "DELETE FROM clients WHERE user_id = $1 AND id = $2", accountID, id)
		if err != nil {
			return fmt.Errorf("failed to delete client %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("client %s: %w", id, core.ErrNotFound)
		}

		if err := writeAudit(ctx, tx, AuditEntry{
			UserID:   accountID,
			Action:   ActionDelete,
			Entity:   "client",
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
