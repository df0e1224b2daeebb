package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SolBuddy/entity"
	"SolBuddy/internal/lib/sl"
)

// Airdrop requests test funds for the chat's account, enforcing the rolling
// cooldown window tracked in the persisted timestamp log.
func (s *Service) Airdrop(ctx context.Context, chatID int64) *entity.TxResult {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil || user == nil {
		s.log.Error("airdrop: user lookup", slog.Int64("chat_id", chatID))
		return &entity.TxResult{Success: false, Reason: "account unavailable"}
	}

	last, err := s.repo.LastAirdropAt(ctx, chatID)
	if err != nil {
		s.log.Error("airdrop: cooldown lookup", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.TxResult{Success: false, Reason: "airdrop unavailable"}
	}
	if !last.IsZero() && time.Since(last) < s.airdropCooldown {
		wait := s.airdropCooldown - time.Since(last)
		return &entity.TxResult{
			Success: false,
			Reason:  fmt.Sprintf("already claimed, try again in %d minutes", int(wait.Minutes())+1),
		}
	}

	sig, err := s.ledger.RequestAirdrop(ctx, user.PublicKey, s.airdropAmount)
	if err != nil {
		s.log.Error("airdrop: request", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.TxResult{Success: false, Reason: "faucet refused, try again later"}
	}

	if err := s.repo.RecordAirdrop(ctx, chatID); err != nil {
		s.log.Error("airdrop: recording request", slog.Int64("chat_id", chatID), sl.Err(err))
	}
	return &entity.TxResult{Success: true, Signature: sig}
}

// AirdropAmount returns the configured faucet grant size.
func (s *Service) AirdropAmount() float64 {
	return s.airdropAmount
}
