package health

import (
	"log/slog"
	"net/http"

	"SolBuddy/internal/lib/api/response"

	"github.com/go-chi/render"
)

func Healthcheck(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok("Solana Buddy Bot working fine"))
	}
}
