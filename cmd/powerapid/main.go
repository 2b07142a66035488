package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"powerapi-backend/internal/components/chrono"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/internal/powerapi"
	"powerapi-backend/internal/scrapers/powerschool"
	"powerapi-backend/internal/server"
	"powerapi-backend/internal/store"
	"powerapi-backend/lib/configutil"
	libtelemetry "powerapi-backend/lib/telemetry"
	"powerapi-backend/lib/util/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	libtelemetry.InitSlog(false)

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	config.setDefaults()
	if len(config.Accounts) == 0 {
		serviceutil.Fatal("failed to read config", fmt.Errorf("no accounts configured"))
	}

	t, err := libtelemetry.SetupFromEnv(ctx, "powerapid")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	libtelemetry.InstrumentPerfStats(ctx)

	database, err := store.OpenDB(config.Database)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	defer database.Close()
	tel := telemetry.SlogAPI{}
	st := store.NewStore(database, tel)
	clock := chrono.NewStandardTime()

	client, err := powerschool.NewClient(config.Portal.ServerUrl, config.Portal.options(), tel, clock)
	if err != nil {
		serviceutil.Fatal("failed to create portal client", err)
	}
	api := powerapi.NewAPI(client, tel, clock)
	sessions := powerapi.NewSessionCache(
		api,
		len(config.Accounts),
		time.Duration(config.SessionTtlMinutes)*time.Minute,
	)
	syncer := server.NewSyncer(sessions, st, config.Accounts, tel)

	cron := chrono.NewStandardCron(tel)
	defer cron.Stop()
	err = syncer.Schedule(ctx, cron, config.Schedule)
	if err != nil {
		serviceutil.Fatal("failed to schedule sync", err)
	}
	if config.SyncOnStart {
		go syncer.SyncAll(ctx)
	}

	if config.AccessToken == "" {
		slog.Warn("access_token is empty, the http api is served without authentication", "port", config.Port)
	}
	handler := serviceutil.VerifyAccessToken(config.AccessToken, server.NewHandler(st))
	err = serviceutil.StartHttpServer(ctx, config.Port, handler)
	if err != nil {
		serviceutil.Fatal("failed to serve http", err)
	}
}
