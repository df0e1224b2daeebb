package wallet

import (
	"context"
	"log/slog"

	"SolBuddy/entity"
	"SolBuddy/internal/lib/sl"
)

// Commit executors. Each takes a completed flow's field set, performs
// exactly one external transactional call and reports the outcome. Errors
// from the ledger are converted into failure reports here and never
// propagated to the chat transport.

// SendSol transfers native currency from the chat's account.
func (s *Service) SendSol(ctx context.Context, chatID int64, toAddress string, amount float64) *entity.TxResult {
	kp, err := s.signingKey(ctx, chatID)
	if err != nil {
		s.log.Error("send sol: signing key", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.TxResult{Success: false, Reason: "account unavailable"}
	}

	sig, err := s.ledger.TransferSOL(ctx, kp, toAddress, amount)
	if err != nil {
		s.log.Error("send sol: transfer", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.TxResult{Success: false, Reason: "transfer failed"}
	}
	return &entity.TxResult{Success: true, Signature: sig}
}

// CreateToken creates a new fungible token owned by the chat's account and
// mints the initial supply.
func (s *Service) CreateToken(ctx context.Context, chatID int64, decimals int, supply float64) *entity.MintResult {
	kp, err := s.signingKey(ctx, chatID)
	if err != nil {
		s.log.Error("create token: signing key", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.MintResult{Success: false, Reason: "account unavailable"}
	}

	info, err := s.ledger.CreateToken(ctx, kp, decimals, supply)
	if err != nil {
		s.log.Error("create token: mint", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.MintResult{Success: false, Reason: "token creation failed"}
	}
	return &entity.MintResult{
		Success:      true,
		MintAddress:  info.MintAddress,
		TokenAccount: info.TokenAccount,
	}
}

// SendToken transfers fungible tokens from the chat's account.
func (s *Service) SendToken(ctx context.Context, chatID int64, mintAddress, toAddress string, amount float64) *entity.TxResult {
	kp, err := s.signingKey(ctx, chatID)
	if err != nil {
		s.log.Error("send token: signing key", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.TxResult{Success: false, Reason: "account unavailable"}
	}

	sig, err := s.ledger.TransferToken(ctx, kp, mintAddress, toAddress, amount)
	if err != nil {
		s.log.Error("send token: transfer", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.TxResult{Success: false, Reason: "transfer failed"}
	}
	return &entity.TxResult{Success: true, Signature: sig}
}

// PayoutFromHouse settles a won wager: house wallet pays the chat account.
func (s *Service) PayoutFromHouse(ctx context.Context, chatID int64, amount float64) *entity.TxResult {
	house, err := s.houseKey()
	if err != nil {
		s.log.Error("payout: house key", sl.Err(err))
		return &entity.TxResult{Success: false, Reason: "house wallet unavailable"}
	}
	address, err := s.PublicKey(ctx, chatID)
	if err != nil || address == "" {
		s.log.Error("payout: user address", slog.Int64("chat_id", chatID))
		return &entity.TxResult{Success: false, Reason: "account unavailable"}
	}

	sig, err := s.ledger.TransferSOL(ctx, house, address, amount)
	if err != nil {
		s.log.Error("payout: transfer", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.TxResult{Success: false, Reason: "payout failed"}
	}
	return &entity.TxResult{Success: true, Signature: sig}
}

// CollectToHouse settles a lost wager: the chat account pays the house.
func (s *Service) CollectToHouse(ctx context.Context, chatID int64, amount float64) *entity.TxResult {
	kp, err := s.signingKey(ctx, chatID)
	if err != nil {
		s.log.Error("collect: signing key", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.TxResult{Success: false, Reason: "account unavailable"}
	}
	if s.houseAddress == "" {
		s.log.Error("collect: house address not configured")
		return &entity.TxResult{Success: false, Reason: "house wallet unavailable"}
	}

	sig, err := s.ledger.TransferSOL(ctx, kp, s.houseAddress, amount)
	if err != nil {
		s.log.Error("collect: transfer", slog.Int64("chat_id", chatID), sl.Err(err))
		return &entity.TxResult{Success: false, Reason: "settlement failed"}
	}
	return &entity.TxResult{Success: true, Signature: sig}
}
