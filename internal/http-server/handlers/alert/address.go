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

type AddressRequest struct {
	Address string `json:"address" validate:"required"`
	Alert   string `json:"alert" validate:"required"`
}

// Address sends a targeted alert to every chat whose account holds the
// given ledger address.
func Address(log *slog.Logger, handler Core, notifier Notifier) http.HandlerFunc {
	vld := validator.New()
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := vld.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid alert data"))
			return
		}

		chats, err := handler.ChatsByAddress(r.Context(), req.Address)
		if err != nil {
			log.Error("getting chats for address", slog.String("address", req.Address), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Error getting subscribers"))
			return
		}

		delivered := 0
		for _, chatID := range chats {
			if _, err := notifier.SendText(chatID, req.Alert); err != nil {
				log.Warn("alert delivery failed",
					slog.Int64("chat_id", chatID),
					slog.String("address", req.Address),
					sl.Err(err),
				)
				continue
			}
			delivered++
		}

		render.JSON(w, r, response.Ok(BroadcastResponse{
			Recipients: len(chats),
			Delivered:  delivered,
		}))
	}
}
