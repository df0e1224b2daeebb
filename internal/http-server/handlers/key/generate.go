package key

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"SolBuddy/internal/lib/api/response"
	"SolBuddy/internal/lib/sl"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Core issues API keys for alert producers.
type Core interface {
	GenerateApiKey(owner string) (string, error)
}

type GenerateRequest struct {
	Owner string `json:"owner" validate:"required"`
}

type GenerateResponse struct {
	Owner string `json:"owner"`
	Key   string `json:"key"`
}

func Generate(log *slog.Logger, handler Core) http.HandlerFunc {
	vld := validator.New()
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := vld.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request"))
			return
		}

		apiKey, err := handler.GenerateApiKey(req.Owner)
		if err != nil {
			log.Error("generating api key", slog.String("owner", req.Owner), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to generate api key"))
			return
		}

		render.JSON(w, r, response.Ok(GenerateResponse{Owner: req.Owner, Key: apiKey}))
	}
}
