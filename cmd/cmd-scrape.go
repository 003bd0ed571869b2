package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/spritetj/fb-scraper/internal/app"
	"github.com/spritetj/fb-scraper/internal/cookies"
	"github.com/spritetj/fb-scraper/internal/export"
	"github.com/spritetj/fb-scraper/internal/run"
)

// scrapeCommand returns the "scrape" CLI subcommand: a one-shot run over
// URLs given as arguments or in a file, written to a timestamped CSV.
func scrapeCommand() *cli.Command {
	var urlsPath string
	var cookiesPath string
	var outputDir string

	return &cli.Command{
		Name:      "scrape",
		Usage:     "Extract comments from the given post URLs into a CSV",
		ArgsUsage: "[url ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "urls",
				Usage:       "File with one URL per line",
				Destination: &urlsPath,
			},
			&cli.StringFlag{
				Name:        "cookies",
				Usage:       "Path to exported cookies.json",
				Destination: &cookiesPath,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Output directory (defaults to server.output_dir)",
				Destination: &outputDir,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			urls := cmd.Args().Slice()
			if urlsPath != "" {
				fromFile, err := readURLs(urlsPath)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given: pass them as arguments or via --urls")
			}

			var cookieSet []cookies.Cookie
			if cookiesPath != "" {
				cookieSet, err = cookies.Load(cookiesPath)
				if err != nil {
					return err
				}
			}

			state := run.NewState()
			results, err := runPipeline(ctx, cfg, urls, cookieSet, state)
			if err != nil {
				return err
			}

			total := export.TotalRecords(results)
			if total == 0 {
				slog.Warn("no comments extracted, skipping CSV")
				return nil
			}

			dir := outputDir
			if dir == "" {
				dir = cfg.Server.OutputDir
			}
			path, err := export.WriteFile(dir, results)
			if err != nil {
				return err
			}

			slog.Info("run complete", "targets", len(urls), "comments", total, "output", path)
			return nil
		},
	}
}

// readURLs loads one URL per line, skipping blanks and # comments.
func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading URLs from %s: %w", path, err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading URLs from %s: %w", path, err)
	}
	return urls, nil
}
