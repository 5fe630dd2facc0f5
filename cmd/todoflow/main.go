package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"todoflow/internal/bot"
	"todoflow/internal/config"
	"todoflow/internal/model"
	"todoflow/internal/repository"
	"todoflow/internal/service"
	"todoflow/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	var pool *pgxpool.Pool
	if cfg.RemoteDatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.RemoteDatabaseURL)
		if err != nil {
			log.Fatalf("remote db: %v", err)
		}
		defer pool.Close()
		if err := repository.EnsureTable(ctx, pool); err != nil {
			log.Fatalf("remote db: %v", err)
		}
	}

	st, err := store.New(store.Options{
		Repos:   repository.NewFactory(db, pool),
		Session: repository.NewSessionStore(db),
	})
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval("recurring scan", cfg.ScanInterval, func() {
		st.ProcessRecurringTasks()
		st.PurgeTrash()
	}); err != nil {
		log.Fatalf("schedule recurring scan: %v", err)
	}

	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		digest := service.NewDigestService(st)
		telegramBot, err = bot.New(cfg.TelegramToken, st, digest)
		if err != nil {
			log.Fatalf("bot: %v", err)
		}
		st.SetNotifier(telegramBot.Broadcast)
		if _, err := scheduler.ScheduleDaily("daily digest", cfg.DigestTime, telegramBot.SendDailyDigest); err != nil {
			log.Fatalf("schedule digest: %v", err)
		}
	}

	// Identity is resolved from configuration; until this call every
	// mutation queues its durable write.
	st.SetAuthState(model.AuthState{Loading: false, UID: cfg.UserID})

	st.ProcessRecurringTasks()
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("todoflow started.")
	if telegramBot != nil {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("bot stopped with error: %v", err)
		}
	} else {
		<-ctx.Done()
	}
	log.Println("Shutdown complete.")
}
