package cmd

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wow_check/analysis"
	"wow_check/analysis/lookup"
	"wow_check/analysispool"
	"wow_check/cache"
	"wow_check/frontend"
	"wow_check/share"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return a.serve(ctx)
	},
}

func (a *app) serve(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return errors.WithStack(err)
	}
	// a zero interval turns the sweeper off
	if a.cfg.CacheSweep > 0 {
		for _, cs := range []*cache.Storage{a.reports, a.results} {
			_, err = sched.NewJob(
				gocron.DurationJob(a.cfg.CacheSweep),
				gocron.NewTask(sweep, cs),
			)
			if err != nil {
				return errors.WithStack(err)
			}
		}
	}
	sched.Start()
	defer sched.Shutdown()

	fn := func(ctx context.Context, req analysis.RequestData, progress func(string)) (*lookup.Result, error) {
		return lookup.Do(ctx, a.querier, a.preset, req, progress)
	}
	pool := analysispool.New(a.preset, fn, a.results)
	pool.Captcha = frontend.NewCaptcha(a.cfg.RecaptchaSecret)
	pool.Start(ctx, a.cfg.Workers)

	g := gin.New()
	frontend.Route(g, frontend.Options{
		StaticDir: a.cfg.StaticDir,
		Pool:      pool,
		Querier:   a.querier,
		Preset:    a.preset,
		Captcha:   pool.Captcha,
	})

	srv := &http.Server{
		Addr:    a.cfg.Addr,
		Handler: g,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Start: listen %s", a.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err = <-errc:
		if err != http.ErrServerClosed {
			return errors.WithStack(err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Stop: %s", a.cfg.Addr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.WithStack(srv.Shutdown(shutdownCtx))
}

func sweep(cs *cache.Storage) {
	n, err := cs.Sweep()
	if err != nil {
		share.Report(err)
		return
	}
	if n > 0 {
		log.Printf("Sweep: removed %d cache entries", n)
	}
}
