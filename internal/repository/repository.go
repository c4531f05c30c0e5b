package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"classifieds-api/internal/domain"
	"classifieds-api/internal/infrastructure/metrics"
	"classifieds-api/pkg/database"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AdRepository persists ads in a single table. GetAdByID returns
// sql.ErrNoRows when no row matches.
type AdRepository interface {
	EnsureSchema(ctx context.Context) error
	CreateAd(ctx context.Context, ad *domain.Ad) (int64, error)
	GetAdByID(ctx context.Context, id int64) (*domain.Ad, error)
	DeleteAd(ctx context.Context, id int64) (int64, error)
}

var schemas = map[string]string{
	database.DriverSQLite: `
		CREATE TABLE IF NOT EXISTS ads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at TEXT NOT NULL,
			owner TEXT NOT NULL
		)`,
	database.DriverMySQL: `
		CREATE TABLE IF NOT EXISTS ads (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at VARCHAR(32) NOT NULL,
			owner TEXT NOT NULL
		)`,
}

type sqlAdRepository struct {
	db      *sql.DB
	driver  string
	metrics *metrics.RepositoryMetrics
	tracer  trace.Tracer
}

func NewSQLAdRepository(db *sql.DB, driver string, metrics *metrics.RepositoryMetrics) (AdRepository, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("no schema for driver %q", driver)
	}

	tracer := otel.Tracer("classifieds-api/repository")
	return &sqlAdRepository{
		db:      db,
		driver:  driver,
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

func (r *sqlAdRepository) observe(query string, startTime time.Time, status *string) {
	duration := time.Since(startTime).Seconds()
	r.metrics.QueryCount.WithLabelValues(query, *status).Inc()
	r.metrics.QueryDuration.WithLabelValues(query, *status).Observe(duration)
}

func (r *sqlAdRepository) EnsureSchema(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "Repository EnsureSchema")
	defer span.End()

	status := "success"
	defer r.observe("EnsureSchema", time.Now(), &status)

	if _, err := r.db.ExecContext(ctx, schemas[r.driver]); err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to create ads table: %w", err)
	}

	return nil
}

func (r *sqlAdRepository) CreateAd(ctx context.Context, ad *domain.Ad) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "Repository CreateAd")
	defer span.End()

	span.SetAttributes(
		attribute.String("ad.title", ad.Title),
		attribute.String("ad.owner", ad.Owner),
	)

	status := "success"
	defer r.observe("CreateAd", time.Now(), &status)

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO ads (title, description, created_at, owner) VALUES (?, ?, ?, ?)",
		ad.Title, ad.Description, ad.CreatedAt, ad.Owner)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return 0, fmt.Errorf("failed to insert ad: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	span.SetAttributes(attribute.Int64("ad.id", id))
	return id, nil
}

func (r *sqlAdRepository) GetAdByID(ctx context.Context, id int64) (*domain.Ad, error) {
	ctx, span := r.tracer.Start(ctx, "Repository GetAdByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", id))

	status := "success"
	defer r.observe("GetAdByID", time.Now(), &status)

	query := `
		SELECT id, title, description, created_at, owner
		FROM ads
		WHERE id = ?
	`

	ad := &domain.Ad{}

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ad.ID,
		&ad.Title,
		&ad.Description,
		&ad.CreatedAt,
		&ad.Owner,
	)
	if err == sql.ErrNoRows {
		status = "not_found"
		return nil, err
	}
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch ad: %w", err)
	}

	return ad, nil
}

// DeleteAd returns the number of rows removed, 0 or 1.
func (r *sqlAdRepository) DeleteAd(ctx context.Context, id int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "Repository DeleteAd")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", id))

	status := "success"
	defer r.observe("DeleteAd", time.Now(), &status)

	result, err := r.db.ExecContext(ctx, "DELETE FROM ads WHERE id = ?", id)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return 0, fmt.Errorf("failed to delete ad: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return 0, fmt.Errorf("failed to retrieve rows affected: %w", err)
	}

	if rowsAffected == 0 {
		status = "not_found"
	}

	return rowsAffected, nil
}
