package alert

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"SolBuddy/internal/lib/api/response"
	"SolBuddy/internal/lib/sl"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type TestRequest struct {
	ChatID      int64  `json:"chat_id" validate:"required"`
	TestMessage string `json:"test_message" validate:"required"`
}

// Test sends a marked test message to one chat, for operator smoke checks.
func Test(log *slog.Logger, notifier Notifier) http.HandlerFunc {
	vld := validator.New()
	return func(w http.ResponseWriter, r *http.Request) {
		var req TestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := vld.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request"))
			return
		}

		text := fmt.Sprintf("ℹ️ This is a test message please ignore\n\n%s", req.TestMessage)
		if _, err := notifier.SendText(req.ChatID, text); err != nil {
			log.Error("sending test message", slog.Int64("chat_id", req.ChatID), sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Error sending Message"))
			return
		}

		render.JSON(w, r, response.Ok("Message Sent Successfully"))
	}
}
