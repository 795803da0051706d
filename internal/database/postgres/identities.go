package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/pgvector/pgvector-go"
)

// LoadIdentities returns the whole roster keyed by identity ID.
func (b *Backend) LoadIdentities(ctx context.Context) (map[string]database.StoredIdentity, error) {
	rows, err := b.pool.db.QueryContext(ctx, `
		SELECT id, name, template, credential, registered_at
		FROM identities
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	identities := make(map[string]database.StoredIdentity)
	for rows.Next() {
		var identity database.StoredIdentity
		var vec pgvector.Vector
		if err := rows.Scan(&identity.ID, &identity.Name, &vec, &identity.Credential, &identity.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identity.Template = vec.Slice()
		identities[identity.ID] = identity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

// SaveIdentities replaces the roster in a single transaction.
func (b *Backend) SaveIdentities(ctx context.Context, identities map[string]database.StoredIdentity) error {
	ids := make([]string, 0, len(identities))
	for id := range identities {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return b.pool.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM identities"); err != nil {
			return fmt.Errorf("delete identities: %w", err)
		}
		for _, id := range ids {
			identity := identities[id]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO identities (id, name, template, credential, registered_at)
				VALUES ($1, $2, $3::vector, $4, $5)
			`,
				id,
				identity.Name,
				pgvector.NewVector(identity.Template),
				identity.Credential,
				identity.RegisteredAt,
			)
			if err != nil {
				return fmt.Errorf("insert identity %s: %w", id, err)
			}
		}
		return nil
	})
}
