package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/spritetj/fb-scraper/internal/app"
	"github.com/spritetj/fb-scraper/internal/cookies"
	"github.com/spritetj/fb-scraper/internal/run"
	"github.com/spritetj/fb-scraper/internal/scrape"
	"github.com/spritetj/fb-scraper/internal/server"
)

// serveCommand returns the "serve" CLI subcommand: the control-plane HTTP
// server around the extraction engine.
func serveCommand() *cli.Command {
	var addr string

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the control-plane HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "Listen address (defaults to server.addr)",
				Destination: &addr,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			runner := func(ctx context.Context, req server.StartRequest, cfg *app.Config, state *run.State) ([]scrape.TargetResult, error) {
				var cookieSet []cookies.Cookie
				if len(req.Cookies) > 0 {
					var err error
					cookieSet, err = cookies.Parse(req.Cookies)
					if err != nil {
						state.Fail(err)
						return nil, err
					}
				}
				return runPipeline(ctx, cfg, req.URLs, cookieSet, state)
			}

			srv := &http.Server{
				Addr:    addr,
				Handler: server.New(cfg, runner).Handler(),
			}

			g, gCtx := errgroup.WithContext(ctx)
			g.Go(func() error {
				slog.Info("listening", "addr", addr)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gCtx.Done()
				return srv.Shutdown(context.Background())
			})
			return g.Wait()
		},
	}
}
