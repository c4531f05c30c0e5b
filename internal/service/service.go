package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"classifieds-api/internal/apperror"
	"classifieds-api/internal/domain"
	"classifieds-api/internal/infrastructure/metrics"
	"classifieds-api/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	MsgMissingFields = "Title, description, and owner are required fields."
	MsgAdNotFound    = "Ad not found"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type CreateAdInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

type AdService interface {
	CreateAd(ctx context.Context, in CreateAdInput) (int64, error)
	GetAdByID(ctx context.Context, id int64) (*domain.Ad, error)
	DeleteAd(ctx context.Context, id int64) error
}

type adService struct {
	repository repository.AdRepository
	clock      Clock
	metrics    *metrics.ServiceMetrics
	tracer     trace.Tracer
}

func NewAdService(repository repository.AdRepository, clock Clock, metrics *metrics.ServiceMetrics) AdService {
	tracer := otel.Tracer("classifieds-api/service")
	return &adService{
		repository: repository,
		clock:      clock,
		metrics:    metrics,
		tracer:     tracer,
	}
}

func (s *adService) observe(method string, startTime time.Time, status *string) {
	duration := time.Since(startTime).Seconds()
	s.metrics.MethodCount.WithLabelValues(method, *status).Inc()
	s.metrics.MethodDuration.WithLabelValues(method, *status).Observe(duration)
}

// CreateAd validates presence of every field before touching storage and
// stamps the creation time in UTC.
func (s *adService) CreateAd(ctx context.Context, in CreateAdInput) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "CreateAd")
	defer span.End()

	status := "success"
	defer s.observe("CreateAd", time.Now(), &status)

	if in.Title == "" || in.Description == "" || in.Owner == "" {
		status = "invalid"
		return 0, apperror.BadRequest(MsgMissingFields)
	}

	ad := &domain.Ad{
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   s.clock.Now().UTC().Format(domain.TimeLayout),
		Owner:       in.Owner,
	}

	id, err := s.repository.CreateAd(ctx, ad)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return 0, err
	}

	span.SetAttributes(
		attribute.Int64("ad.id", id),
		attribute.String("ad.title", ad.Title),
	)
	return id, nil
}

func (s *adService) GetAdByID(ctx context.Context, id int64) (*domain.Ad, error) {
	ctx, span := s.tracer.Start(ctx, "GetAdByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", id))

	status := "success"
	defer s.observe("GetAdByID", time.Now(), &status)

	ad, err := s.repository.GetAdByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return nil, apperror.Wrap(apperror.KindNotFound, MsgAdNotFound, err)
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	return ad, nil
}

func (s *adService) DeleteAd(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "DeleteAd")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", id))

	status := "success"
	defer s.observe("DeleteAd", time.Now(), &status)

	rowsAffected, err := s.repository.DeleteAd(ctx, id)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return err
	}

	if rowsAffected == 0 {
		status = "not_found"
		return apperror.NotFound(MsgAdNotFound)
	}

	return nil
}

