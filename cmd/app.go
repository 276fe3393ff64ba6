package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sdelicata/rekordbox-analyzer/pkg/analysis"
	"github.com/sdelicata/rekordbox-analyzer/pkg/audit"
	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
	"github.com/sdelicata/rekordbox-analyzer/pkg/config"
	"github.com/sdelicata/rekordbox-analyzer/pkg/export"
	"github.com/sdelicata/rekordbox-analyzer/pkg/logging"
	"github.com/sdelicata/rekordbox-analyzer/pkg/server"
	"github.com/sdelicata/rekordbox-analyzer/pkg/session"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "rekordbox-analyzer",
		Usage: "Explore a Rekordbox XML collection export.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML settings file",
				EnvVars: []string{"RCA_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level: trace, debug, info, warn, error",
				EnvVars: []string{"RCA_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log format: console, json, pretty",
				EnvVars: []string{"RCA_LOG_FORMAT"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			summaryCommand(),
			exportCommand(),
			auditCommand(),
		},
	}
}

// setup loads settings, applies global flag overrides and builds the logger.
func setup(c *cli.Context) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("validating settings: %w", err)
	}

	logger, err := logging.New(c.App.ErrWriter, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

func readCollection(logger zerolog.Logger, path string) (*collection.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening collection: %w", err)
	}
	defer f.Close()

	coll, err := collection.NewParser(logger).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	logger.Info().
		Str("file", path).
		Int("tracks", coll.Metadata.TrackCount).
		Int("malformed_fields", coll.Metadata.MalformedFields).
		Msg("collection parsed")
	return coll, nil
}

func collectionArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one collection file, got %d arguments", c.NArg())
	}
	return c.Args().First(), nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the dashboard web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "address to listen on",
				EnvVars: []string{"RCA_LISTEN"},
			},
			&cli.Int64Flag{
				Name:    "max-upload-bytes",
				Usage:   "largest accepted upload",
				EnvVars: []string{"RCA_MAX_UPLOAD_BYTES"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			if c.IsSet("listen") {
				cfg.Server.Listen = c.String("listen")
			}
			if c.IsSet("max-upload-bytes") {
				cfg.Server.MaxUploadBytes = c.Int64("max-upload-bytes")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("validating settings: %w", err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	store := session.New(cfg.Sessions.MaxEntries, cfg.Sessions.TTL)
	defer store.Close()

	srv := &http.Server{
		Addr: cfg.Server.Listen,
		Handler: server.New(logger, store, server.Options{
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			Limits:         cfg.Report,
			CookieTTL:      cfg.Sessions.TTL,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("address", srv.Addr).Msg("serving dashboard")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "print the collection report",
		ArgsUsage: "<collection.xml>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the full report as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			path, err := collectionArg(c)
			if err != nil {
				return err
			}
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			coll, err := readCollection(logger, path)
			if err != nil {
				return err
			}

			report := analysis.Build(coll, cfg.Report)
			if c.Bool("json") {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding report: %w", err)
				}
				_, err = fmt.Fprintf(c.App.Writer, "%s\n", data)
				return err
			}
			printSummary(c.App.Writer, report)
			return nil
		},
	}
}

func printSummary(w io.Writer, r analysis.Report) {
	fmt.Fprintf(w, "--- Collection Summary ---\n")
	if r.Metadata.ProductName != "" {
		fmt.Fprintf(w, "Exported by:       %s %s\n", r.Metadata.ProductName, r.Metadata.ProductVersion)
	}
	fmt.Fprintf(w, "Tracks:            %d\n", r.Overview.TotalTracks)
	fmt.Fprintf(w, "Hours:             %.1f\n", r.Overview.TotalHours)
	fmt.Fprintf(w, "Artists:           %d\n", r.Overview.UniqueArtists)
	fmt.Fprintf(w, "Genres:            %d\n", r.Overview.UniqueGenres)
	fmt.Fprintf(w, "Plays:             %d\n", r.Overview.TotalPlays)
	if r.BPM.Count > 0 {
		fmt.Fprintf(w, "BPM:               median %.1f, mean %.1f, range %.1f-%.1f (%d tracks)\n",
			r.BPM.Median, r.BPM.Mean, r.BPM.Min, r.BPM.Max, r.BPM.Count)
	}
	if r.Metadata.MalformedFields > 0 {
		fmt.Fprintf(w, "Malformed fields:  %d\n", r.Metadata.MalformedFields)
	}

	if len(r.TopTracks) > 0 {
		fmt.Fprintf(w, "\nMost played:\n")
		for i, t := range r.TopTracks {
			fmt.Fprintf(w, "%3d. %s - %s (%d plays)\n", i+1, t.Name, t.Artist, t.PlayCount)
		}
	}
	printCounts(w, "Genres", r.Genres)
	printCounts(w, "Artists by plays", r.ArtistPlays)
	printCounts(w, "Keys", r.Keys)
	printCounts(w, "Ratings", r.Ratings)
}

func printCounts(w io.Writer, title string, counts []analysis.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, c := range counts {
		fmt.Fprintf(w, "  %-30s %d\n", c.Label, c.Value)
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write every track as CSV or NDJSON",
		ArgsUsage: "<collection.xml>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(export.CSV),
				Usage:   "csv or ndjson",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output file (default collection_analysis.<format>), - for stdout",
			},
		},
		Action: func(c *cli.Context) error {
			path, err := collectionArg(c)
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(c.String("format"))
			if err != nil {
				return err
			}
			_, logger, err := setup(c)
			if err != nil {
				return err
			}
			coll, err := readCollection(logger, path)
			if err != nil {
				return err
			}

			output := c.String("output")
			if output == "-" {
				return export.Encode(c.App.Writer, format, coll.Tracks)
			}
			if output == "" {
				output = format.FileName()
			}
			if err := export.Write(output, format, coll.Tracks); err != nil {
				return err
			}
			logger.Info().Str("output", output).Int("tracks", len(coll.Tracks)).Msg("export written")
			return nil
		},
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:      "audit",
		Usage:     "check collection entries against the files on disk",
		ArgsUsage: "<collection.xml>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "number of parallel tag readers",
				EnvVars: []string{"RCA_AUDIT_WORKERS"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print findings as NDJSON",
			},
		},
		Action: func(c *cli.Context) error {
			path, err := collectionArg(c)
			if err != nil {
				return err
			}
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			workers := cfg.Audit.Workers
			if c.IsSet("workers") {
				workers = c.Int("workers")
			}
			if workers < 1 {
				logger.Warn().Int("value", workers).Msg("--workers must be at least 1, clamping to 1")
				workers = 1
			}

			coll, err := readCollection(logger, path)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().Int("workers", workers).Msg("auditing tracks...")
			total := len(coll.Tracks)
			findings, err := audit.New(logger, workers).Run(ctx, coll.Tracks, func(done, total int) {
				fmt.Fprintf(c.App.ErrWriter, "\rAuditing: %d/%d tracks", done, total)
			})
			fmt.Fprintf(c.App.ErrWriter, "\rAuditing: %d/%d tracks\n", total, total)
			if err != nil {
				return fmt.Errorf("auditing: %w", err)
			}

			return printFindings(c.App.Writer, findings, c.Bool("json"))
		},
	}
}

func printFindings(w io.Writer, findings []audit.Finding, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, f := range findings {
			if err := enc.Encode(f); err != nil {
				return fmt.Errorf("encoding finding: %w", err)
			}
		}
		return nil
	}

	for _, f := range findings {
		fmt.Fprintln(w, f.String())
	}

	counts := audit.Counts(findings)
	fmt.Fprintf(w, "\n--- Audit Summary ---\n")
	for _, k := range []audit.Kind{
		audit.MissingLocation, audit.BadLocation, audit.MissingFile, audit.NotAudio,
		audit.UnreadableTags, audit.TagMismatch, audit.DurationMismatch,
	} {
		fmt.Fprintf(w, "%-18s %d\n", string(k)+":", counts[k])
	}
	return nil
}
