package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/podscript/internal/pkg/admin"
	"github.com/airenas/podscript/internal/pkg/archive"
	"github.com/airenas/podscript/internal/pkg/asr"
	asrapi "github.com/airenas/podscript/internal/pkg/asr/api"
	"github.com/airenas/podscript/internal/pkg/audio"
	"github.com/airenas/podscript/internal/pkg/config"
	"github.com/airenas/podscript/internal/pkg/consul"
	"github.com/airenas/podscript/internal/pkg/filelock"
	"github.com/airenas/podscript/internal/pkg/postgres"
	"github.com/airenas/podscript/internal/pkg/resolver"
	"github.com/airenas/podscript/internal/pkg/schedule"
	"github.com/airenas/podscript/internal/pkg/tier"
	tierapi "github.com/airenas/podscript/internal/pkg/tier/api"
	"github.com/airenas/podscript/internal/pkg/utils"
	"github.com/airenas/podscript/internal/pkg/worker"
	capi "github.com/hashicorp/consul/api"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/vgarvardt/gue/v5"
	"github.com/vgarvardt/gue/v5/adapter/pgxv5"
)

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	tc, err := config.Load(cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't load transcripts config")
	}
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}

	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	gueClient, err := gue.NewClient(pgxv5.NewConnPool(dbPool))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}
	sender, err := postgres.NewSender(gueClient)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}
	store, err := postgres.NewStore(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}

	tierClient, err := newTier(tc.Tier, cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init tier client")
	}

	rData := &resolver.Data{Tier: tierClient, Saver: store, Sender: sender, HaltOnQuota: tc.HaltOnQuota,
		Policy: resolver.Policy{Enabled: tc.FallbackEnabled, Triggers: tc.FallbackTriggers, MaxFileSize: tc.MaxFileSize()}}
	if tc.FallbackEnabled {
		rData.ASR, err = newASR(ctx, cfg)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init ASR")
		}
		rData.Locator = audio.NewLocator()
	}
	if cfg.GetString("archive.url") != "" {
		arch, err := archive.New(ctx, archive.Options{URL: cfg.GetString("archive.url"), User: cfg.GetString("archive.user"),
			Key: cfg.GetString("archive.key"), Bucket: defaultV(cfg.GetString("archive.bucket"), "transcripts"),
			HTTPS: cfg.GetBool("archive.https")})
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init archive")
		}
		rData.Archiver = arch
	}
	res, err := resolver.New(rData)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init resolver")
	}

	metrics, err := worker.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init metrics")
	}
	wData := &worker.ServiceData{Source: store, Resolver: res, Config: tc, Metrics: metrics}
	if tc.UseAdvisoryLock {
		wData.Lock, err = newLock(dbPool, cfg)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init lock")
		}
	}
	coordinator, err := worker.NewCoordinator(wData)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init coordinator")
	}

	printBanner()

	go utils.RunPerfEndpoint(cfg.GetInt("debug.port"))

	runTimeout := defaultV(cfg.GetDuration("schedule.runTimeout"), time.Hour)
	tickCh, err := schedule.StartTicker(ctx, coordinator, defaultV(cfg.GetDuration("schedule.every"), time.Hour), runTimeout)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start scheduler")
	}
	queueCh, err := schedule.StartQueueService(ctx, &schedule.ServiceData{GueClient: gueClient,
		WorkerCount: defaultV(cfg.GetInt("worker.count"), 1), Runner: coordinator, RunTimeout: runTimeout,
		Testing: cfg.GetBool("worker.testing")})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start queue service")
	}
	go func() {
		err := admin.StartWebServer(&admin.Data{Port: defaultV(cfg.GetInt("port"), 8000), RunTimeout: runTimeout,
			Runner: coordinator, Sender: sender, Liver: store, State: coordinator})
		if err != nil {
			goapp.Log.Error().Err(err).Msg("can't start web server")
			cancelFunc()
		}
	}()

	/////////////////////// Waiting for terminate
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-waitCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-tickCh:
		goapp.Log.Info().Msg("Scheduler exit")
	case <-queueCh:
		goapp.Log.Info().Msg("Queue service exit")
	case <-ctx.Done():
		goapp.Log.Info().Msg("Service exit")
	}
	cancelFunc()
	timeout := time.After(time.Second * 15)
	for _, ch := range []<-chan struct{}{tickCh, queueCh} {
		select {
		case <-ch:
		case <-timeout:
			goapp.Log.Warn().Msg("Timeout gracefull shutdown")
			return
		}
	}
	goapp.Log.Info().Msg("All code returned. Now exit. Bye")
}

func newTier(name string, cfg *viper.Viper) (tierapi.Client, error) {
	url, key := cfg.GetString("lookup."+name+".url"), cfg.GetString("lookup.apiKey")
	switch name {
	case tier.FreeName:
		return tier.NewFree(url, key)
	case tier.BusinessName:
		return tier.NewBusiness(url, key)
	}
	return nil, fmt.Errorf("unknown tier '%s'", name)
}

func newASR(ctx context.Context, cfg *viper.Viper) (asrapi.Client, error) {
	key := cfg.GetString("asr.apiKey")
	srv := cfg.GetString("asr.consulService")
	if srv == "" {
		return asr.NewClient(cfg.GetString("asr.url"), key, cfg.GetString("asr.model"))
	}
	p, err := consul.NewProvider(consulConfig(cfg), srv, func(urlStr, model string) (asrapi.Client, error) {
		return asr.NewClient(urlStr, key, defaultV(model, cfg.GetString("asr.model")))
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.StartRegistryLoop(ctx, defaultV(cfg.GetDuration("asr.consulCheckInterval"), time.Minute)); err != nil {
		return nil, err
	}
	return p, nil
}

func newLock(pool *pgxpool.Pool, cfg *viper.Viper) (worker.RunLock, error) {
	lockName := defaultV(cfg.GetString("lock.key"), "podscript-transcripts")
	switch t := defaultV(cfg.GetString("lock.type"), "postgres"); t {
	case "postgres":
		return postgres.NewAdvisoryLock(pool, lockName)
	case "consul":
		return consul.NewLock(consulConfig(cfg), "podscript/locks/"+lockName, defaultV(cfg.GetDuration("lock.ttl"), time.Minute))
	case "file":
		return filelock.New(defaultV(cfg.GetString("lock.path"), "/tmp/podscript/"+lockName+".lock"))
	default:
		return nil, fmt.Errorf("unknown lock type '%s'", t)
	}
}

func consulConfig(cfg *viper.Viper) *capi.Config {
	res := capi.DefaultConfig()
	if addr := cfg.GetString("consul.address"); addr != "" {
		res.Address = addr
	}
	return res
}

func defaultV[T comparable](v, d T) T {
	var e T
	if v == e {
		return d
	}
	return v
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
                     __                _       __ 
    ____  ____  ____/ /_____________(_)___  / /_
   / __ \/ __ \/ __  / ___/ ___/ ___/ / __ \/ __/
  / /_/ / /_/ / /_/ (__  ) /__/ /  / / /_/ / /_  
 / .___/\____/\__,_/____/\___/_/  /_/ .___/\__/  
/_/                                /_/   v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/podscript"))
}
