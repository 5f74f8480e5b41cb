package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/omrscanner/internal/database"
)

// TemplateRepository provides PostgreSQL-backed storage for saved sheet
// templates, referenced by ID from scan requests instead of resubmitted
// inline on every call.
type TemplateRepository struct {
	pool *Pool
}

// NewTemplateRepository creates a new PostgreSQL template repository.
func NewTemplateRepository(pool *Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// Get retrieves a saved template by ID, returns nil if not found.
func (r *TemplateRepository) Get(ctx context.Context, templateID string) (*database.StoredTemplate, error) {
	query := `SELECT template_id, name, config, created_at FROM templates WHERE template_id = $1`

	var t database.StoredTemplate
	err := r.pool.QueryRow(ctx, query, templateID).Scan(&t.TemplateID, &t.Name, &t.Config, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query template: %w", err)
	}
	return &t, nil
}

// Save stores a template (upsert by TemplateID).
func (r *TemplateRepository) Save(ctx context.Context, t database.StoredTemplate) error {
	query := `
		INSERT INTO templates (template_id, name, config)
		VALUES ($1, $2, $3)
		ON CONFLICT (template_id) DO UPDATE SET
			name   = EXCLUDED.name,
			config = EXCLUDED.config
	`
	_, err := r.pool.Exec(ctx, query, t.TemplateID, t.Name, t.Config)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}
