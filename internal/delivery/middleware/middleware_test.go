package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"classifieds-api/internal/apperror"
	"classifieds-api/pkg/logger"
	"classifieds-api/pkg/utils"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()

	var env utils.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("body is not an error envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestErrorHandlerWrap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantError   string
		wantMessage string
	}{
		{
			name:        "bad request",
			err:         apperror.BadRequest("Title, description, and owner are required fields."),
			wantStatus:  http.StatusBadRequest,
			wantError:   "Bad Request",
			wantMessage: "Title, description, and owner are required fields.",
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("lookup: %w", apperror.NotFound("Ad not found")),
			wantStatus:  http.StatusNotFound,
			wantError:   "Not Found",
			wantMessage: "Ad not found",
		},
		{
			name:        "storage fault is hidden",
			err:         errors.New("database is locked"),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "Internal Server Error",
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logBuf bytes.Buffer
			loggers, err := logger.NewLoggers("info", &logBuf, &logBuf)
			if err != nil {
				t.Fatalf("NewLoggers: %v", err)
			}

			h := NewErrorHandler(loggers).Wrap(func(http.ResponseWriter, *http.Request) error {
				return tt.err
			})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ads/1", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			env := decodeEnvelope(t, rec)
			if env.Error != tt.wantError || env.Message != tt.wantMessage {
				t.Errorf("envelope = %+v", env)
			}
			if tt.wantStatus == http.StatusInternalServerError && !strings.Contains(logBuf.String(), "database is locked") {
				t.Errorf("internal error was not logged: %s", logBuf.String())
			}
		})
	}

	t.Run("success passes through", func(t *testing.T) {
		t.Parallel()

		h := NewErrorHandler(logger.Discard()).Wrap(func(w http.ResponseWriter, _ *http.Request) error {
			utils.RespondWithJSON(w, http.StatusCreated, map[string]int{"id": 1})
			return nil
		})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ads", nil))
		if rec.Code != http.StatusCreated {
			t.Errorf("status = %d, want 201", rec.Code)
		}
	})
}

func TestNormalizeErrors(t *testing.T) {
	t.Parallel()

	t.Run("plain text 404 becomes envelope", func(t *testing.T) {
		t.Parallel()

		h := NormalizeErrors(http.HandlerFunc(http.NotFound))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		env := decodeEnvelope(t, rec)
		if env.Error != "Not Found" || env.Message != "404 page not found" {
			t.Errorf("envelope = %+v", env)
		}
	})

	t.Run("bare 400 status gets default message", func(t *testing.T) {
		t.Parallel()

		h := NormalizeErrors(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ads", nil))

		env := decodeEnvelope(t, rec)
		if rec.Code != http.StatusBadRequest || env.Error != "Bad Request" || env.Message != "Bad Request" {
			t.Errorf("status = %d, envelope = %+v", rec.Code, env)
		}
	})

	t.Run("existing envelope is untouched", func(t *testing.T) {
		t.Parallel()

		h := NormalizeErrors(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondWithErrorJSON(w, http.StatusNotFound, "Ad not found")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ads/9", nil))

		env := decodeEnvelope(t, rec)
		if env.Error != "Not Found" || env.Message != "Ad not found" {
			t.Errorf("envelope = %+v", env)
		}
	})

	t.Run("other statuses stream through", func(t *testing.T) {
		t.Parallel()

		h := NormalizeErrors(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
			_, _ = w.Write([]byte("nope"))
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/ads/1", nil))

		if rec.Code != http.StatusMethodNotAllowed || rec.Body.String() != "nope" {
			t.Errorf("status = %d, body = %q", rec.Code, rec.Body.String())
		}
	})
}

func TestNormalizeErrorsRecoveredPanic(t *testing.T) {
	t.Parallel()

	h := NormalizeErrors(chimw.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ads/1", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != "Internal Server Error" || env.Message != "internal server error" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestNormalizeErrorsHidesPlainTextInternalError(t *testing.T) {
	t.Parallel()

	h := NormalizeErrors(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "sql: database is closed", http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ads", nil))

	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusInternalServerError || env.Message != "internal server error" {
		t.Errorf("status = %d, envelope = %+v", rec.Code, env)
	}
}

func TestErrorHandlerLogsRequestID(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer
	loggers, err := logger.NewLoggers("info", &logBuf, &logBuf)
	if err != nil {
		t.Fatalf("NewLoggers: %v", err)
	}

	h := chimw.RequestID(NewErrorHandler(loggers).Wrap(func(http.ResponseWriter, *http.Request) error {
		return errors.New("disk I/O error")
	}))

	req := httptest.NewRequest(http.MethodGet, "/ads/1", nil)
	req.Header.Set(chimw.RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(logBuf.String(), `"request_id":"abc-123"`) {
		t.Errorf("log missing request id: %s", logBuf.String())
	}
}
