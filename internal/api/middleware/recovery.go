package middleware

import (
	"log/slog"
	"net/http"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/apierr"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/middleware"
)

// Recovery creates panic recovery middleware that answers with the JSON
// INTERNAL_ERROR payload
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, writeInternalError)
}

func writeInternalError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
