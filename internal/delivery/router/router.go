package router

import (
	"net/http"

	"classifieds-api/internal/delivery/handler"
	"classifieds-api/internal/delivery/middleware"
	"classifieds-api/internal/infrastructure/metrics"
	"classifieds-api/internal/service"
	"classifieds-api/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	AdService service.AdService
	Loggers   *logger.Loggers
	Metrics   *metrics.HandlerMetrics
}

// NewRouter builds the HTTP surface. Middleware order is fixed here; the
// recoverer sits inside NormalizeErrors so its bare 500 gets the envelope.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NormalizeErrors)
	r.Use(chimw.Recoverer)

	SetupAdRoutes(r, deps)

	r.Handle("/metrics", deps.Metrics.HTTPHandler())

	return r
}

func SetupAdRoutes(adRouter chi.Router, deps Deps) {
	adHandler := handler.NewAdHandler(deps.AdService, deps.Metrics)
	errs := middleware.NewErrorHandler(deps.Loggers)

	adRouter.Method(http.MethodPost, "/ads", errs.Wrap(adHandler.CreateAd))
	adRouter.Method(http.MethodGet, "/ads/{ad_id}", errs.Wrap(adHandler.GetAdByID))
	adRouter.Method(http.MethodDelete, "/ads/{ad_id}", errs.Wrap(adHandler.DeleteAd))
}
