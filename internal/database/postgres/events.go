package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/kozaktomas/face-attendance/internal/database"
)

const eventColumns = `user_id, name, similarity, confidence, recorded_at, date, time, status,
	location_verified, location_message, latitude, longitude`

// LoadActive returns the active ledger in append order.
func (b *Backend) LoadActive(ctx context.Context) ([]database.AttendanceEvent, error) {
	rows, err := b.pool.db.QueryContext(ctx, "SELECT "+eventColumns+" FROM active_events ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query active events: %w", err)
	}
	defer rows.Close()

	var events []database.AttendanceEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active events: %w", err)
	}
	return events, nil
}

// SaveActive replaces the active ledger in a single transaction.
func (b *Backend) SaveActive(ctx context.Context, events []database.AttendanceEvent) error {
	return b.pool.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM active_events"); err != nil {
			return fmt.Errorf("delete active events: %w", err)
		}
		query := "INSERT INTO active_events (seq, " + eventColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
		for i := range events {
			args := append([]any{i}, eventArgs(&events[i])...)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert active event %d: %w", i, err)
			}
		}
		return nil
	})
}

// LoadArchive returns all closed periods.
func (b *Backend) LoadArchive(ctx context.Context) (database.Archive, error) {
	rows, err := b.pool.db.QueryContext(ctx, "SELECT period, "+eventColumns+" FROM archived_events ORDER BY period, seq")
	if err != nil {
		return nil, fmt.Errorf("query archived events: %w", err)
	}
	defer rows.Close()

	archive := make(database.Archive)
	for rows.Next() {
		var period string
		event, err := scanEvent(rows, &period)
		if err != nil {
			return nil, err
		}
		archive[period] = append(archive[period], event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived events: %w", err)
	}
	return archive, nil
}

// SaveArchive replaces the archive in a single transaction.
func (b *Backend) SaveArchive(ctx context.Context, archive database.Archive) error {
	periods := make([]string, 0, len(archive))
	for period := range archive {
		periods = append(periods, period)
	}
	slices.Sort(periods)

	return b.pool.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM archived_events"); err != nil {
			return fmt.Errorf("delete archived events: %w", err)
		}
		query := "INSERT INTO archived_events (period, seq, " + eventColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
		for _, period := range periods {
			events := archive[period]
			for i := range events {
				args := append([]any{period, i}, eventArgs(&events[i])...)
				if _, err := tx.ExecContext(ctx, query, args...); err != nil {
					return fmt.Errorf("insert archived event %s/%d: %w", period, i, err)
				}
			}
		}
		return nil
	})
}

func eventArgs(e *database.AttendanceEvent) []any {
	return []any{
		e.IdentityID,
		e.Name,
		e.Similarity,
		e.Confidence,
		e.Timestamp,
		e.Date,
		e.Time,
		e.Status,
		e.LocationVerified,
		e.LocationMessage,
		nullFloat(e.Latitude),
		nullFloat(e.Longitude),
	}
}

// scanEvent scans the event columns, with optional leading destinations
// selected before them (e.g., the period column).
func scanEvent(scanner interface{ Scan(...any) error }, leadingDest ...any) (database.AttendanceEvent, error) {
	var e database.AttendanceEvent
	var lat, lon sql.NullFloat64

	dest := make([]any, 0, 12+len(leadingDest))
	dest = append(dest, leadingDest...)
	dest = append(dest,
		&e.IdentityID,
		&e.Name,
		&e.Similarity,
		&e.Confidence,
		&e.Timestamp,
		&e.Date,
		&e.Time,
		&e.Status,
		&e.LocationVerified,
		&e.LocationMessage,
		&lat,
		&lon,
	)

	if err := scanner.Scan(dest...); err != nil {
		return e, fmt.Errorf("scan event: %w", err)
	}

	if lat.Valid {
		e.Latitude = &lat.Float64
	}
	if lon.Valid {
		e.Longitude = &lon.Float64
	}
	return e, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
