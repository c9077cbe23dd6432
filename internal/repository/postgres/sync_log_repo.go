// internal/repository/postgres/sync_log_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"crmsync-service/internal/domain/salesforce"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SyncLogRepository struct {
	db *pgxpool.Pool
}

func NewSyncLogRepository(db *pgxpool.Pool) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Create appends an attempt to the audit log
func (r *SyncLogRepository) Create(ctx context.Context, e *salesforce.SyncLogEntry) error {
	query := `
		INSERT INTO salesforce_sync_log
			(id, entity_type, entity_id, status, external_id, record_id, message, callout_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		e.ID, e.EntityType, e.EntityID, e.Status, e.ExternalID, e.RecordID, e.Message, e.CalloutError, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync log entry: %w", err)
	}
	return nil
}

// List returns log entries, newest first, with the total count for the filters
func (r *SyncLogRepository) List(ctx context.Context, filters *salesforce.SyncLogFilters) ([]salesforce.SyncLogEntry, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filters.EntityType != "" {
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", argPos))
		args = append(args, filters.EntityType)
		argPos++
	}

	if filters.EntityID != nil {
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", argPos))
		args = append(args, *filters.EntityID)
		argPos++
	}

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM salesforce_sync_log WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sync log entries: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT id, entity_type, entity_id, status, external_id, record_id, message, callout_error, created_at
		FROM salesforce_sync_log
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)

	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sync log entries: %w", err)
	}
	defer rows.Close()

	entries := []salesforce.SyncLogEntry{}
	for rows.Next() {
		var e salesforce.SyncLogEntry
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Status, &e.ExternalID, &e.RecordID,
			&e.Message, &e.CalloutError, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan sync log entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, total, rows.Err()
}
