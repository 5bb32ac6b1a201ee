package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/autodata/internal/models"
)

// LookupRepository 查询记录仓库
type LookupRepository struct {
	db *DB
}

// NewLookupRepository 创建查询记录仓库
func NewLookupRepository(db *DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// Create 写入查询记录
func (r *LookupRepository) Create(ctx context.Context, lookup *models.Lookup) error {
	query := `
		INSERT INTO vin_lookups (lookup_id, vin, kind, status, error, make, model, year, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	if lookup.CreatedAt.IsZero() {
		lookup.CreatedAt = time.Now()
	}

	err := r.db.Pool.QueryRow(ctx, query,
		lookup.LookupID,
		lookup.VIN,
		lookup.Kind,
		lookup.Status,
		lookup.Error,
		lookup.Make,
		lookup.Model,
		lookup.Year,
		lookup.DurationMs,
		lookup.CreatedAt,
	).Scan(&lookup.ID)
	if err != nil {
		return fmt.Errorf("insert lookup: %w", err)
	}
	return nil
}

// ListRecent 最近的查询记录
func (r *LookupRepository) ListRecent(ctx context.Context, limit int) ([]*models.Lookup, error) {
	query := `
		SELECT id, lookup_id::text, vin, kind, status, error, make, model, year, duration_ms, created_at
		FROM vin_lookups
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list lookups: %w", err)
	}
	return scanLookups(rows)
}

// ListByVIN 某个 VIN 的查询记录
func (r *LookupRepository) ListByVIN(ctx context.Context, vin string, limit int) ([]*models.Lookup, error) {
	query := `
		SELECT id, lookup_id::text, vin, kind, status, error, make, model, year, duration_ms, created_at
		FROM vin_lookups
		WHERE vin = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, vin, limit)
	if err != nil {
		return nil, fmt.Errorf("list lookups by vin: %w", err)
	}
	return scanLookups(rows)
}

func scanLookups(rows pgx.Rows) ([]*models.Lookup, error) {
	defer rows.Close()

	var lookups []*models.Lookup
	for rows.Next() {
		l := &models.Lookup{}
		if err := rows.Scan(
			&l.ID,
			&l.LookupID,
			&l.VIN,
			&l.Kind,
			&l.Status,
			&l.Error,
			&l.Make,
			&l.Model,
			&l.Year,
			&l.DurationMs,
			&l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		lookups = append(lookups, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookups: %w", err)
	}
	return lookups, nil
}
