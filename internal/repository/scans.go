package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ticketscan/backend/internal/models"
	"ticketscan/backend/internal/ticketparser/core"
)

const scanColumns = `id, raw_text, event_date, venue, title, image_url, catalog_version, created_at, updated_at`

func (r *Repository) InsertScan(ctx context.Context, scan core.ScanResult) error {
	row := models.TicketScanFromResult(scan)
	_, err := r.pool.Exec(ctx, `
INSERT INTO ticket_scans (id, raw_text, event_date, venue, title, image_url, catalog_version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8);`,
		row.ID, row.RawText, row.EventDate, row.Venue, row.Title, row.ImageURL, row.CatalogVersion, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert scan %s: %w", scan.ID, err)
	}
	return nil
}

func (r *Repository) GetScan(ctx context.Context, id string) (*core.ScanResult, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scanColumns+` FROM ticket_scans WHERE id = $1`, id)
	scan, err := scanTicketRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := scan.Result()
	return &out, nil
}

// ListScans returns the newest scans first.
func (r *Repository) ListScans(ctx context.Context, limit int) ([]core.ScanResult, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+scanColumns+` FROM ticket_scans ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectScans(rows)
}

// ListScansBeforeCatalog returns the oldest scans extracted with a catalog other than version.
func (r *Repository) ListScansBeforeCatalog(ctx context.Context, version string, limit int) ([]core.ScanResult, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+scanColumns+`
FROM ticket_scans
WHERE catalog_version <> $1
ORDER BY created_at, id
LIMIT $2`, version, limit)
	if err != nil {
		return nil, err
	}
	return collectScans(rows)
}

// UpdateScanFields replaces the extracted fields of a scan and stamps the catalog version
// that produced them.
func (r *Repository) UpdateScanFields(ctx context.Context, id string, fields core.FieldRecord, version string) error {
	row := models.TicketScanFromResult(core.ScanResult{Fields: fields})
	tag, err := r.pool.Exec(ctx, `
UPDATE ticket_scans
SET event_date = $2,
	venue = $3,
	title = $4,
	catalog_version = $5,
	updated_at = now()
WHERE id = $1;`, id, row.EventDate, row.Venue, row.Title, version)
	if err != nil {
		return fmt.Errorf("update scan %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteScan(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ticket_scans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectScans(rows pgx.Rows) ([]core.ScanResult, error) {
	defer rows.Close()
	var out []core.ScanResult
	for rows.Next() {
		scan, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, scan.Result())
	}
	return out, rows.Err()
}

func scanTicketRow(row pgx.Row) (models.TicketScan, error) {
	var out models.TicketScan
	err := row.Scan(&out.ID, &out.RawText, &out.EventDate, &out.Venue, &out.Title, &out.ImageURL, &out.CatalogVersion, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}
