package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SolBuddy/entity"
	"SolBuddy/internal/config"
	"SolBuddy/internal/lib/sl"
	"SolBuddy/internal/solana"
)

// Repository defines the account store operations the service needs.
type Repository interface {
	GetUser(ctx context.Context, chatID int64) (*entity.User, error)
	CreateUser(ctx context.Context, user *entity.User) error
	SetSubscriptions(ctx context.Context, chatID int64, names []string) error
	GetAllSubscriptions(ctx context.Context) ([]entity.Subscription, error)
	GetSubscribers(ctx context.Context, category string) ([]int64, error)
	GetChatsByPublicKey(ctx context.Context, publicKey string) ([]int64, error)
	LastAirdropAt(ctx context.Context, chatID int64) (time.Time, error)
	RecordAirdrop(ctx context.Context, chatID int64) error
}

// Ledger defines the blockchain operations the service needs.
type Ledger interface {
	GetBalance(ctx context.Context, address string) (float64, error)
	GetTokenBalances(ctx context.Context, address string) ([]entity.TokenBalance, error)
	RequestAirdrop(ctx context.Context, address string, amount float64) (string, error)
	TransferSOL(ctx context.Context, from *solana.Keypair, toAddress string, amount float64) (string, error)
	CreateToken(ctx context.Context, owner *solana.Keypair, decimals int, supply float64) (*solana.MintInfo, error)
	TransferToken(ctx context.Context, owner *solana.Keypair, mintAddress, toAddress string, amount float64) (string, error)
}

// Service owns the custodial accounts and performs every ledger-touching
// operation on their behalf.
type Service struct {
	repo            Repository
	ledger          Ledger
	houseAddress    string
	houseSecret     string
	airdropAmount   float64
	airdropCooldown time.Duration
	log             *slog.Logger
}

// NewWalletService creates the wallet service.
func NewWalletService(conf *config.Config, repo Repository, ledger Ledger, log *slog.Logger) *Service {
	return &Service{
		repo:            repo,
		ledger:          ledger,
		houseAddress:    conf.Solana.OwnerAddress,
		houseSecret:     conf.Solana.OwnerPrivateKey,
		airdropAmount:   conf.Solana.AirdropAmount,
		airdropCooldown: time.Duration(conf.Solana.AirdropCooldown) * time.Minute,
		log:             log.With(sl.Module("wallet")),
	}
}

// EnsureAccount returns the chat's account, creating it with a fresh
// custodial keypair when absent. The second return reports creation.
func (s *Service) EnsureAccount(ctx context.Context, chatID int64, username string) (*entity.User, bool, error) {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return nil, false, fmt.Errorf("loading user: %w", err)
	}
	if user != nil {
		return user, false, nil
	}

	kp, err := solana.NewKeypair()
	if err != nil {
		return nil, false, fmt.Errorf("generating keypair: %w", err)
	}

	user = &entity.User{
		ChatID:     chatID,
		Username:   username,
		PublicKey:  kp.Address(),
		PrivateKey: kp.Secret(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("creating user: %w", err)
	}

	s.log.Info("account created",
		slog.Int64("chat_id", chatID),
		slog.String("public_key", user.PublicKey),
	)
	return user, true, nil
}

// PublicKey returns the chat's account address, empty when no account
// exists.
func (s *Service) PublicKey(ctx context.Context, chatID int64) (string, error) {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return "", nil
	}
	return user.PublicKey, nil
}

// Balance returns the chat account's SOL balance.
func (s *Service) Balance(ctx context.Context, chatID int64) (float64, error) {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return 0, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return 0, fmt.Errorf("no account for chat %d", chatID)
	}
	return s.ledger.GetBalance(ctx, user.PublicKey)
}

// TokenBalances lists the chat account's token holdings.
func (s *Service) TokenBalances(ctx context.Context, chatID int64) ([]entity.TokenBalance, error) {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("no account for chat %d", chatID)
	}
	return s.ledger.GetTokenBalances(ctx, user.PublicKey)
}

// signingKey loads the chat's custodial keypair. Key material is fetched
// per call and never cached.
func (s *Service) signingKey(ctx context.Context, chatID int64) (*solana.Keypair, error) {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("no account for chat %d", chatID)
	}
	return solana.KeypairFromBase58(user.PrivateKey)
}

// houseKey loads the house wallet keypair used for wager settlement.
func (s *Service) houseKey() (*solana.Keypair, error) {
	if s.houseSecret == "" {
		return nil, fmt.Errorf("house wallet is not configured")
	}
	return solana.KeypairFromBase58(s.houseSecret)
}
