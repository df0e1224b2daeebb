package alert

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"SolBuddy/internal/lib/api/response"
	"SolBuddy/internal/lib/sl"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type BroadcastRequest struct {
	Category string `json:"category" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

type BroadcastResponse struct {
	Recipients int `json:"recipients"`
	Delivered  int `json:"delivered"`
}

// Broadcast fans an alert out to every chat subscribed to the named
// category. Delivery is sequential and best-effort: a failed send is
// logged and skipped, never retried.
func Broadcast(log *slog.Logger, handler Core, notifier Notifier) http.HandlerFunc {
	vld := validator.New()
	return func(w http.ResponseWriter, r *http.Request) {
		var req BroadcastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := vld.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid alert data"))
			return
		}

		subscribers, err := handler.Subscribers(r.Context(), req.Category)
		if err != nil {
			log.Error("getting subscribers", slog.String("category", req.Category), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Error getting subscribers"))
			return
		}
		if len(subscribers) == 0 {
			render.JSON(w, r, response.Ok("No Subscribers found"))
			return
		}

		delivered := 0
		for _, chatID := range subscribers {
			if _, err := notifier.SendText(chatID, req.Message); err != nil {
				log.Warn("alert delivery failed",
					slog.Int64("chat_id", chatID),
					slog.String("category", req.Category),
					sl.Err(err),
				)
				continue
			}
			delivered++
		}

		render.JSON(w, r, response.Ok(BroadcastResponse{
			Recipients: len(subscribers),
			Delivered:  delivered,
		}))
	}
}
