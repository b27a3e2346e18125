package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"matchbook/internal/config"
	"matchbook/internal/engine"
	"matchbook/internal/net"
	"matchbook/internal/session"
)

func main() {
	cfg, err := config.ParseServerConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	eng := engine.New(engine.Equities)
	srv := net.New(cfg.Address, cfg.Port, eng)
	eng.SetReporter(srv)

	t, ctx := tomb.WithContext(ctx)

	t.Go(func() error {
		srv.Run(ctx)
		return nil
	})

	sweep := session.NewController(eng, time.Duration(cfg.GoodForDaySweep)*time.Second, engine.Equities)
	t.Go(func() error {
		return sweep.Run(t)
	})

	<-t.Dying()
	if err := t.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
	}
}
