package wallet

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"SolBuddy/entity"
	"SolBuddy/internal/config"
	"SolBuddy/internal/solana"
)

type fakeRepo struct {
	users    map[int64]*entity.User
	lastDrop map[int64]time.Time
	recorded int
	subs     []entity.Subscription
	userSubs map[int64][]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[int64]*entity.User),
		lastDrop: make(map[int64]time.Time),
		userSubs: make(map[int64][]string),
	}
}

func (r *fakeRepo) GetUser(ctx context.Context, chatID int64) (*entity.User, error) {
	return r.users[chatID], nil
}

func (r *fakeRepo) CreateUser(ctx context.Context, user *entity.User) error {
	r.users[user.ChatID] = user
	return nil
}

func (r *fakeRepo) SetSubscriptions(ctx context.Context, chatID int64, names []string) error {
	r.userSubs[chatID] = names
	return nil
}

func (r *fakeRepo) GetAllSubscriptions(ctx context.Context) ([]entity.Subscription, error) {
	return r.subs, nil
}

func (r *fakeRepo) GetSubscribers(ctx context.Context, category string) ([]int64, error) {
	return nil, nil
}

func (r *fakeRepo) GetChatsByPublicKey(ctx context.Context, publicKey string) ([]int64, error) {
	return nil, nil
}

func (r *fakeRepo) LastAirdropAt(ctx context.Context, chatID int64) (time.Time, error) {
	return r.lastDrop[chatID], nil
}

func (r *fakeRepo) RecordAirdrop(ctx context.Context, chatID int64) error {
	r.recorded++
	r.lastDrop[chatID] = time.Now()
	return nil
}

type fakeLedger struct {
	airdrops int
}

func (l *fakeLedger) GetBalance(ctx context.Context, address string) (float64, error) {
	return 5, nil
}

func (l *fakeLedger) GetTokenBalances(ctx context.Context, address string) ([]entity.TokenBalance, error) {
	return nil, nil
}

func (l *fakeLedger) RequestAirdrop(ctx context.Context, address string, amount float64) (string, error) {
	l.airdrops++
	return "dropsig", nil
}

func (l *fakeLedger) TransferSOL(ctx context.Context, from *solana.Keypair, toAddress string, amount float64) (string, error) {
	return "txsig", nil
}

func (l *fakeLedger) CreateToken(ctx context.Context, owner *solana.Keypair, decimals int, supply float64) (*solana.MintInfo, error) {
	return &solana.MintInfo{}, nil
}

func (l *fakeLedger) TransferToken(ctx context.Context, owner *solana.Keypair, mintAddress, toAddress string, amount float64) (string, error) {
	return "toksig", nil
}

func newTestService(repo *fakeRepo, ledger *fakeLedger) *Service {
	conf := &config.Config{}
	conf.Solana.AirdropAmount = 1
	conf.Solana.AirdropCooldown = 60
	return NewWalletService(conf, repo, ledger, slog.New(slog.DiscardHandler))
}

func TestAirdropHappyPath(t *testing.T) {
	repo := newFakeRepo()
	repo.users[7] = &entity.User{ChatID: 7, PublicKey: "pk"}
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	result := svc.Airdrop(context.Background(), 7)
	if !result.Success {
		t.Fatalf("expected success, got reason %q", result.Reason)
	}
	if result.Signature != "dropsig" {
		t.Fatalf("signature = %q", result.Signature)
	}
	if ledger.airdrops != 1 || repo.recorded != 1 {
		t.Fatalf("airdrops=%d recorded=%d, want 1/1", ledger.airdrops, repo.recorded)
	}
}

func TestAirdropCooldown(t *testing.T) {
	repo := newFakeRepo()
	repo.users[7] = &entity.User{ChatID: 7, PublicKey: "pk"}
	repo.lastDrop[7] = time.Now().Add(-10 * time.Minute)
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	result := svc.Airdrop(context.Background(), 7)
	if result.Success {
		t.Fatal("airdrop inside the cooldown window must be refused")
	}
	if !strings.Contains(result.Reason, "already claimed") {
		t.Fatalf("reason = %q", result.Reason)
	}
	if ledger.airdrops != 0 {
		t.Fatal("faucet must not be hit during cooldown")
	}
}

func TestAirdropCooldownExpired(t *testing.T) {
	repo := newFakeRepo()
	repo.users[7] = &entity.User{ChatID: 7, PublicKey: "pk"}
	repo.lastDrop[7] = time.Now().Add(-61 * time.Minute)
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	if result := svc.Airdrop(context.Background(), 7); !result.Success {
		t.Fatalf("expected success after cooldown, got %q", result.Reason)
	}
}

func TestAirdropUnknownAccount(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	if result := svc.Airdrop(context.Background(), 99); result.Success {
		t.Fatal("airdrop for a missing account must fail")
	}
	if ledger.airdrops != 0 {
		t.Fatal("faucet must not be hit for a missing account")
	}
}

func TestEnsureAccountCreatesOnce(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeLedger{})
	ctx := context.Background()

	user, created, err := svc.EnsureAccount(ctx, 7, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("first call must create the account")
	}
	if !solana.IsValidAddress(user.PublicKey) {
		t.Fatalf("generated public key %q is not a valid address", user.PublicKey)
	}
	if _, err := solana.KeypairFromBase58(user.PrivateKey); err != nil {
		t.Fatalf("stored secret does not restore: %v", err)
	}

	again, created, err := svc.EnsureAccount(ctx, 7, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("second call must not create a new account")
	}
	if again.PublicKey != user.PublicKey {
		t.Fatal("existing account must be returned unchanged")
	}
}
