// internal/repository/postgres/external_id_repo.go
package postgres

import (
	"context"
	"fmt"

	"crmsync-service/internal/domain/salesforce"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ExternalIDRepository struct {
	db *pgxpool.Pool
}

func NewExternalIDRepository(db *pgxpool.Pool) *ExternalIDRepository {
	return &ExternalIDRepository{db: db}
}

// Get returns the CRM identifier stored for an entity, or xerrors.ErrNotFound
func (r *ExternalIDRepository) Get(ctx context.Context, entityType salesforce.EntityType, entityID int64) (*salesforce.ExternalID, error) {
	query := `
		SELECT entity_type, entity_id, external_id, record_id, updated_at
		FROM salesforce_external_ids
		WHERE entity_type = $1 AND entity_id = $2
	`

	var e salesforce.ExternalID
	err := r.db.QueryRow(ctx, query, entityType, entityID).Scan(
		&e.EntityType, &e.EntityID, &e.ExternalID, &e.RecordID, &e.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, string(entityType)+" external id", entityID)
	}

	return &e, nil
}

// Upsert stores the identifier, replacing any previous one
func (r *ExternalIDRepository) Upsert(ctx context.Context, e *salesforce.ExternalID) error {
	query := `
		INSERT INTO salesforce_external_ids (entity_type, entity_id, external_id, record_id, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (entity_type, entity_id) DO UPDATE
		SET external_id = EXCLUDED.external_id,
		    record_id = EXCLUDED.record_id,
		    updated_at = NOW()
		RETURNING updated_at
	`

	if err := r.db.QueryRow(ctx, query, e.EntityType, e.EntityID, e.ExternalID, e.RecordID).Scan(&e.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert external id: %w", err)
	}
	return nil
}
