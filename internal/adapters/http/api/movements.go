package api

import (
	"context"
	"net/http"

	"github.com/okian/footelo/internal/domain/types"
)

// MovementsDependencies exposes the promotion/relegation rows of the last run.
type MovementsDependencies interface {
	Movements(ctx context.Context, transition string) []types.MovementRow
}

// MovementsHandler handles movement table requests.
type MovementsHandler struct {
	deps MovementsDependencies
}

// NewMovementsHandler creates a new movements handler.
func NewMovementsHandler(deps MovementsDependencies) *MovementsHandler {
	return &MovementsHandler{deps: deps}
}

// HandleGetMovements handles GET /movements?transition=2223_2324.
func (h *MovementsHandler) HandleGetMovements(w http.ResponseWriter, r *http.Request) {
	rows := h.deps.Movements(r.Context(), r.URL.Query().Get("transition"))
	if rows == nil {
		rows = []types.MovementRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}
