package main

import (
	"context"

	"stdmark-backend/lib/configutil"
	configsqlite "stdmark-backend/lib/configutil/sqlite"
	"stdmark-backend/lib/serviceutil"
	"stdmark-backend/lib/telemetry"
	"stdmark-backend/services/scraper"
	"stdmark-backend/services/userstore"
	userstoredb "stdmark-backend/services/userstore/db"
	"stdmark-backend/services/watcher"
)

type Config struct {
	Debug    bool                 `json:"debug"`
	Database configsqlite.Struct  `json:"database"`
	Portal   scraper.Options      `json:"portal"`
	Watcher  watcher.Options      `json:"watcher"`
	Email    watcher.EmailOptions `json:"email"`
}

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	serviceutil.InitSlog(config.Debug)

	db, err := config.Database.OpenDB(userstoredb.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}

	t, err := telemetry.SetupFromEnv(ctx, "stdmarkd")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	client, err := scraper.NewClient(config.Portal)
	if err != nil {
		serviceutil.Fatal("failed to create portal client", err)
	}

	store := userstore.NewStore(db)
	notifier := watcher.NewEmailNotifier(config.Email)
	w := watcher.NewWatcher(store, client, notifier, config.Watcher)

	go w.Run(ctx)

	<-ctx.Done()
}
