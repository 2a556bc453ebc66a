package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"

	"fastmemo/apperror"
	"fastmemo/auth"
	"fastmemo/models"
)

// HandlerFunc is the signature of every API handler. A returned error is
// rendered by the router as the error envelope.
type HandlerFunc func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// RouteInfo describes the matched route, for logging
type RouteInfo struct {
	Name   string
	Method string
	Path   string
}

type ctxKey string

const routeKey ctxKey = "fastmemo.route"

func WithRoute(ctx context.Context, info RouteInfo) context.Context {
	return context.WithValue(ctx, routeKey, info)
}

func RouteFromContext(ctx context.Context) RouteInfo {
	info, _ := ctx.Value(routeKey).(RouteInfo)
	return info
}

// logRequest logs with the "timestamp - route - method - path" prefix shared
// by every handler. The principal id is appended once the gate has run.
func logRequest(ctx context.Context, level string, message string, fields ...zap.Field) {
	route := RouteFromContext(ctx)

	logMsg := time.Now().Format("2006-01-02 15:04:05") + " - " + route.Name + " - " + route.Method + " - " + route.Path
	if user, ok := auth.PrincipalFromContext(ctx); ok {
		logMsg += " - user:" + user.ID
	}
	if message != "" {
		logMsg += " - " + message
	}

	allFields := append([]zap.Field{
		zap.String("route", route.Name),
		zap.String("method", route.Method),
		zap.String("path", route.Path),
	}, fields...)

	switch level {
	case "info":
		logger.Info(logMsg, allFields...)
	case "error":
		logger.Error(logMsg, allFields...)
	case "debug":
		logger.Debug(logMsg, allFields...)
	}
}

// LogError logs a failed request. Operational errors are expected and
// logged at info.
func LogError(ctx context.Context, err error) {
	e := apperror.Normalize(err)
	if e.Operational() {
		logRequest(ctx, "info", e.Message, zap.String("kind", e.Kind.String()))
		return
	}
	logRequest(ctx, "error", "Request failed", zap.Error(err))
}

// Envelope is the success body of every API response
type Envelope struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func success(data any) Envelope {
	return Envelope{Status: "success", Data: data}
}

func results(n int, data any) Envelope {
	return Envelope{Status: "success", Results: &n, Data: data}
}

// respondJSON writes body with code. Once the header is out an encode
// failure cannot be reported to the client, so it is not returned.
func respondJSON(w http.ResponseWriter, code int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
	return nil
}

func noContent(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// decodeJSON reads a single JSON object into v. Unknown fields are
// rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return apperror.Wrap(apperror.KindValidation, "Invalid input", err)
	}
	if dec.More() {
		return apperror.Validation("Invalid input")
	}
	return nil
}

// principal returns the user the gate attached to ctx
func principal(ctx context.Context) (*models.User, error) {
	user, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperror.Unauthenticated(auth.MsgNotLoggedIn)
	}
	return user, nil
}
