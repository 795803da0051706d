package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// LoadPolicy returns the stored geofence policy, or nil if none was saved.
func (b *Backend) LoadPolicy(ctx context.Context) (*database.LocationPolicy, error) {
	var p database.LocationPolicy
	err := b.pool.db.QueryRowContext(ctx, `
		SELECT enabled, latitude, longitude, radius, location_name
		FROM location_policy
		WHERE id = 1
	`).Scan(&p.Enabled, &p.Latitude, &p.Longitude, &p.RadiusMeters, &p.LocationName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location policy: %w", err)
	}
	return &p, nil
}

// SavePolicy upserts the singleton policy row.
func (b *Backend) SavePolicy(ctx context.Context, p database.LocationPolicy) error {
	_, err := b.pool.db.ExecContext(ctx, `
		INSERT INTO location_policy (id, enabled, latitude, longitude, radius, location_name, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			radius = EXCLUDED.radius,
			location_name = EXCLUDED.location_name,
			updated_at = EXCLUDED.updated_at
	`, p.Enabled, p.Latitude, p.Longitude, p.RadiusMeters, p.LocationName)
	if err != nil {
		return fmt.Errorf("save location policy: %w", err)
	}
	return nil
}
