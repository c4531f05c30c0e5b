package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"classifieds-api/internal/apperror"
	"classifieds-api/internal/infrastructure/metrics"
	"classifieds-api/internal/service"
	"classifieds-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgInvalidPayload = "Invalid request payload"
	msgInvalidID      = "Ad id must be an integer"
)

type CreateAdResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AdHandler struct {
	service service.AdService
	metrics *metrics.HandlerMetrics
	tracer  trace.Tracer
}

func NewAdHandler(service service.AdService, metrics *metrics.HandlerMetrics) *AdHandler {
	tracer := otel.Tracer("classifieds-api/handler")
	return &AdHandler{
		service: service,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (h *AdHandler) observe(method, endpoint string, startTime time.Time, err *error) {
	status := "success"
	switch {
	case *err == nil:
	case apperror.KindOf(*err) == apperror.KindNotFound:
		status = "not_found"
	default:
		status = "error"
	}

	duration := time.Since(startTime).Seconds()
	h.metrics.RequestCount.WithLabelValues(method, endpoint, status).Inc()
	h.metrics.RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration)
}

// parseAdID reads the {ad_id} path parameter. Any integer is accepted;
// unknown ids are left for the lookup to reject.
func parseAdID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ad_id"), 10, 64)
	if err != nil {
		return 0, apperror.Wrap(apperror.KindBadRequest, msgInvalidID, err)
	}
	return id, nil
}

// decodeCreateAd accepts exactly one JSON object; anything after it is a
// malformed body.
func decodeCreateAd(body io.Reader) (service.CreateAdInput, error) {
	var req service.CreateAdInput

	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return req, apperror.Wrap(apperror.KindBadRequest, msgInvalidPayload, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after JSON object")
		}
		return req, apperror.Wrap(apperror.KindBadRequest, msgInvalidPayload, err)
	}

	return req, nil
}

func (h *AdHandler) CreateAd(w http.ResponseWriter, r *http.Request) (err error) {
	ctx, span := h.tracer.Start(r.Context(), "CreateAd")
	defer span.End()

	defer h.observe(http.MethodPost, "/ads", time.Now(), &err)

	req, err := decodeCreateAd(r.Body)
	if err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(
		attribute.String("ad.title", req.Title),
		attribute.String("ad.owner", req.Owner),
	)

	id, err := h.service.CreateAd(ctx, req)
	if err != nil {
		span.RecordError(err)
		return err
	}

	utils.RespondWithJSON(w, http.StatusCreated, CreateAdResponse{
		ID:      id,
		Message: "Ad created successfully",
	})
	return nil
}

func (h *AdHandler) GetAdByID(w http.ResponseWriter, r *http.Request) (err error) {
	ctx, span := h.tracer.Start(r.Context(), "GetAdByID")
	defer span.End()

	defer h.observe(http.MethodGet, "/ads/{ad_id}", time.Now(), &err)

	id, err := parseAdID(r)
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.Int64("ad.id", id))

	ad, err := h.service.GetAdByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	utils.RespondWithJSON(w, http.StatusOK, ad)
	return nil
}

func (h *AdHandler) DeleteAd(w http.ResponseWriter, r *http.Request) (err error) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteAd")
	defer span.End()

	defer h.observe(http.MethodDelete, "/ads/{ad_id}", time.Now(), &err)

	id, err := parseAdID(r)
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.Int64("ad.id", id))

	if err := h.service.DeleteAd(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	utils.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "Ad deleted successfully"})
	return nil
}
