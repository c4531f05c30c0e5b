package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"classifieds-api/internal/apperror"
	"classifieds-api/pkg/logger"
	"classifieds-api/pkg/utils"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const msgInternal = "internal server error"

// HandlerFunc is a handler that reports failures by returning them instead of
// writing an error body.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorHandler is the one place where returned errors become HTTP responses.
type ErrorHandler struct {
	loggers *logger.Loggers
}

func NewErrorHandler(loggers *logger.Loggers) *ErrorHandler {
	return &ErrorHandler{loggers: loggers}
}

// Wrap adapts fn into an http.Handler. Bad Request and Not Found errors keep
// their message; anything else is logged and rendered as a generic 500.
func (eh *ErrorHandler) Wrap(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		kind := apperror.KindOf(err)
		if kind == apperror.KindInternal {
			eh.loggers.ErrorLogger.Error("request failed",
				utils.Err(err),
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", chimw.GetReqID(r.Context()),
			)
			utils.RespondWithErrorJSON(w, kind.Status(), msgInternal)
			return
		}

		var appErr *apperror.Error
		errors.As(err, &appErr)
		utils.RespondWithErrorJSON(w, kind.Status(), appErr.Message)
	})
}

// NormalizeErrors rewrites any 400, 404 or 500 response written by a
// downstream handler into the {"error", "message"} envelope. Bodies that
// already are an envelope pass through unchanged. Plain-text 400/404 bodies
// become the message; 500s (e.g. from chi's Recoverer) never expose theirs.
func NormalizeErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &capturingWriter{ResponseWriter: w}
		next.ServeHTTP(cw, r)

		if !cw.capturing {
			return
		}

		body := cw.buf.Bytes()
		if isEnvelope(body) {
			w.WriteHeader(cw.status)
			_, _ = w.Write(body)
			return
		}

		message := strings.TrimSpace(string(body))
		switch {
		case cw.status == http.StatusInternalServerError:
			message = msgInternal
		case message == "":
			message = http.StatusText(cw.status)
		}
		w.Header().Del("Content-Length")
		w.Header().Del("X-Content-Type-Options")
		utils.RespondWithErrorJSON(w, cw.status, message)
	})
}

func isNormalized(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError:
		return true
	}
	return false
}

func isEnvelope(body []byte) bool {
	var env utils.ErrorResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	return env.Error != "" && env.Message != ""
}

// capturingWriter holds back the body of 400, 404 and 500 responses and passes
// every other response straight through.
type capturingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	capturing   bool
	buf         bytes.Buffer
}

func (cw *capturingWriter) WriteHeader(status int) {
	if cw.wroteHeader {
		return
	}
	cw.wroteHeader = true
	cw.status = status

	if isNormalized(status) {
		cw.capturing = true
		return
	}
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *capturingWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.capturing {
		return cw.buf.Write(b)
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *capturingWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
