package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"time"

	"SolBuddy/bot"
	"SolBuddy/bot/workflow"
	"SolBuddy/bot/workflows/createtoken"
	"SolBuddy/bot/workflows/dicegame"
	"SolBuddy/bot/workflows/transfersol"
	"SolBuddy/bot/workflows/transfertoken"
	"SolBuddy/entity"
	"SolBuddy/internal/config"
	repository "SolBuddy/internal/database"
	"SolBuddy/internal/http-server/api"
	"SolBuddy/internal/http-server/handlers/alert"
	"SolBuddy/internal/lib/logger"
	"SolBuddy/internal/lib/sl"
	"SolBuddy/internal/service/wallet"
	"SolBuddy/internal/solana"
)

// apiHandler aggregates the alert API's dependencies behind api.Handler.
type apiHandler struct {
	*repository.MongoDB
	*wallet.Service
}

// noNotifier refuses alert delivery while Telegram is disabled; the alert
// handlers log and count the failures.
type noNotifier struct{}

func (noNotifier) SendText(chatID int64, text string) (int64, error) {
	return 0, errors.New("telegram is disabled")
}

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting solbuddy", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
		return
	}
	lg.With(
		slog.String("host", conf.Mongo.Host),
		slog.String("port", conf.Mongo.Port),
		slog.String("user", conf.Mongo.User),
		slog.String("database", conf.Mongo.Database),
	).Info("mongo client initialized")

	// Seed the built-in alert category so it is always subscribable.
	if err := db.EnsureSubscription(context.Background(), entity.Subscription{
		ID:          "whale_alerts",
		Name:        "whale_alerts",
		Description: "Large transaction alerts on the Solana network",
	}); err != nil {
		lg.With(sl.Err(err)).Error("seeding subscriptions")
	}

	ledger := solana.NewClient(conf.Solana.RpcURL, conf.Solana.Commitment, lg)
	walletService := wallet.NewWalletService(conf, db, ledger, lg)

	// The alert API needs a delivery channel even when the bot is off.
	var notifier alert.Notifier = noNotifier{}

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, walletService, lg)
		if err != nil {
			lg.With(sl.Err(err)).Error("failed to initialize telegram bot")
			return
		}

		// Sessions live in memory unless persistence is configured.
		// Ephemeral sessions mean a restart silently abandons open flows.
		var storage workflow.StateStorage
		if conf.Session.Persist {
			storage = workflow.NewMongoStateStorage(db)
			lg.Info("using persisted flow sessions")
		} else {
			storage = workflow.NewMemoryStateStorage()
		}

		ttl := time.Duration(conf.Session.TTLMinutes) * time.Minute
		engine := workflow.NewWorkflowEngine(storage, tgBot, ttl, lg)
		engine.RegisterWorkflow(transfersol.NewTransferSolWorkflow(walletService, lg))
		engine.RegisterWorkflow(createtoken.NewCreateTokenWorkflow(walletService, lg))
		engine.RegisterWorkflow(transfertoken.NewTransferTokenWorkflow(walletService, lg))
		engine.RegisterWorkflow(dicegame.NewDiceGameWorkflow(
			walletService,
			engine,
			time.Duration(conf.Session.DiceResolveDelay)*time.Second,
			lg,
		))
		tgBot.SetWorkflowEngine(engine)

		go func() {
			if err := tgBot.Start(); err != nil {
				lg.Error("telegram bot error", sl.Err(err))
			}
		}()
		lg.With(
			slog.String("bot_name", conf.Telegram.BotName),
		).Info("telegram bot initialized")

		notifier = tgBot
	}

	handler := &apiHandler{MongoDB: db, Service: walletService}

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler, notifier)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
