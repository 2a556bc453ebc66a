package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"fastmemo/apperror"
)

// HealthHandler reports whether the service and its database are up
type HealthHandler struct {
	db *sqlx.DB
}

func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health
func (h *HealthHandler) Check(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(pingCtx); err != nil {
		return apperror.Unavailable("Database unavailable", err)
	}
	return respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "fastmemo"})
}
