package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"github.com/weberc2/dupfinder/pkg/notify"
	"github.com/weberc2/dupfinder/pkg/pgutil"
	"github.com/weberc2/dupfinder/pkg/report"
	"github.com/weberc2/dupfinder/pkg/types"
)

func main() {
	app := cli.App{
		Name:        appName,
		Usage:       "find duplicate files by content",
		Description: "fingerprints every file under a directory in parallel and reports the duplicates",
		Commands: []*cli.Command{{
			Name:      "scan",
			Usage:     "scan a directory tree for duplicate files",
			ArgsUsage: "ROOT",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "workers",
					Usage: "The number of concurrent workers. Defaults to the number of CPUs.",
				},
				&cli.StringFlag{
					Name:  "algorithm",
					Usage: "The fingerprint algorithm (md5, blake2b, highwayhash, xxh3).",
				},
				&cli.IntFlag{
					Name:  "buffer-size",
					Usage: "The size of each file read in bytes.",
				},
				&cli.IntFlag{
					Name:  "progress-interval",
					Usage: "How many files to fingerprint between progress lines.",
				},
				&cli.BoolFlag{
					Name: "abort-on-read-error",
					Usage: "Fail the scan on the first unreadable file " +
						"instead of reporting it.",
				},
				&cli.StringSliceFlag{
					Name:  "ignore",
					Usage: "A directory name to skip. May be repeated.",
				},
				&cli.StringFlag{
					Name:  "store",
					Usage: "Where to store the report (none, dir, s3, postgres).",
				},
				&cli.StringFlag{
					Name:  "dir",
					Usage: "The root directory for the `dir` store.",
				},
				&cli.StringFlag{
					Name:  "bucket",
					Usage: "The bucket for the `dir` and `s3` stores.",
				},
				&cli.StringFlag{
					Name:  "prefix",
					Usage: "The key prefix for the `dir` and `s3` stores.",
				},
				&cli.BoolFlag{
					Name:  "gzip",
					Usage: "Compress objects in the `dir` and `s3` stores.",
				},
				&cli.StringFlag{
					Name:  "format",
					Usage: "The report encoding (json, yaml).",
				},
			},
			Action: withConfig(func(c *Config, ctx *cli.Context) error {
				if ctx.NArg() != 1 {
					return fmt.Errorf("wanted exactly one ROOT argument; found %d", ctx.NArg())
				}
				log, err := c.Logger()
				if err != nil {
					return err
				}
				store, err := c.ReportStore()
				if err != nil {
					return fmt.Errorf("opening report store: %w", err)
				}
				scanner := Scanner{
					Config:   c,
					Store:    store,
					Log:      log,
					Notifier: notify.NewNotifier(os.Stdout),
					TimeFunc: time.Now,
				}
				_, err = scanner.Scan(ctx.Context, ctx.Args().First())
				return err
			}),
		}, {
			Name:  "report",
			Usage: "commands for inspecting stored reports",
			Subcommands: []*cli.Command{{
				Name:  "list",
				Usage: "list the IDs of stored reports",
				Flags: storeFlags(),
				Action: withReportStore(func(store report.Store, c *Config, ctx *cli.Context) error {
					ids, err := store.List()
					if err != nil {
						return err
					}
					for _, id := range ids {
						if _, err := fmt.Println(id); err != nil {
							return err
						}
					}
					return nil
				}),
			}, {
				Name:    "get",
				Aliases: []string{"fetch"},
				Usage:   "print a stored report",
				Flags: append(storeFlags(), &cli.StringFlag{
					Name:     "id",
					Usage:    "The report's ID. Required.",
					Required: true,
				}),
				Action: withReportStore(func(store report.Store, c *Config, ctx *cli.Context) error {
					id, err := uuid.Parse(ctx.String("id"))
					if err != nil {
						return fmt.Errorf("parsing report ID: %w", err)
					}
					r, err := store.Get(id)
					if err != nil {
						return err
					}
					format, err := report.ParseFormat(c.Format)
					if err != nil {
						return err
					}
					summary, err := format.EncodeSummary(r)
					if err != nil {
						return err
					}
					duplicates, err := format.EncodeDuplicates(r.Duplicates)
					if err != nil {
						return err
					}
					_, err = fmt.Printf("%s\n%s\n%s\n", summary, duplicates, r.Summary.Sentence())
					return err
				}),
			}},
		}, {
			Name:  "pg",
			Usage: "commands for interacting with the backing pg tables",
			Subcommands: cli.Commands{{
				Name:    "ensure",
				Aliases: []string{"create", "make"},
				Usage:   "create the tables if they don't already exist",
				Action: withPGStore(func(store *report.PGReportStore) error {
					return store.EnsureTables()
				}),
			}, {
				Name:    "drop",
				Aliases: []string{"delete", "destroy"},
				Usage:   "drop the postgres tables",
				Action: withPGStore(func(store *report.PGReportStore) error {
					return store.DropTables()
				}),
			}, {
				Name:  "reset",
				Usage: "drop and recreate the postgres tables",
				Action: withPGStore(func(store *report.PGReportStore) error {
					return store.ResetTables()
				}),
			}},
		}},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "store", Usage: "The report store (dir, s3, postgres)."},
		&cli.StringFlag{Name: "dir", Usage: "The root directory for the `dir` store."},
		&cli.StringFlag{Name: "bucket", Usage: "The bucket for the `dir` and `s3` stores."},
		&cli.StringFlag{Name: "prefix", Usage: "The key prefix for the `dir` and `s3` stores."},
		&cli.BoolFlag{Name: "gzip", Usage: "Whether the stored objects are compressed."},
		&cli.StringFlag{Name: "format", Usage: "The report encoding (json, yaml)."},
	}
}

// applyFlags overrides the loaded configuration with any flags that were
// explicitly set.
func (c *Config) applyFlags(ctx *cli.Context) {
	if ctx.IsSet("workers") {
		c.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("algorithm") {
		c.Algorithm = ctx.String("algorithm")
	}
	if ctx.IsSet("buffer-size") {
		c.BufferSize = ctx.Int("buffer-size")
	}
	if ctx.IsSet("progress-interval") {
		c.ProgressInterval = ctx.Int("progress-interval")
	}
	if ctx.IsSet("abort-on-read-error") {
		c.AbortOnReadError = ctx.Bool("abort-on-read-error")
	}
	if ctx.IsSet("ignore") {
		c.Ignore = ctx.StringSlice("ignore")
	}
	if ctx.IsSet("store") {
		c.Store = ctx.String("store")
	}
	if ctx.IsSet("dir") {
		c.Dir = ctx.String("dir")
	}
	if ctx.IsSet("bucket") {
		c.Bucket = ctx.String("bucket")
	}
	if ctx.IsSet("prefix") {
		c.Prefix = ctx.String("prefix")
	}
	if ctx.IsSet("gzip") {
		c.Gzip = ctx.Bool("gzip")
	}
	if ctx.IsSet("format") {
		c.Format = ctx.String("format")
	}
}

func withConfig(f func(c *Config, ctx *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		c.applyFlags(ctx)
		if err := c.Validate(); err != nil {
			return err
		}
		return f(c, ctx)
	}
}

func withReportStore(
	f func(store report.Store, c *Config, ctx *cli.Context) error,
) cli.ActionFunc {
	return withConfig(func(c *Config, ctx *cli.Context) error {
		store, err := c.ReportStore()
		if err != nil {
			return fmt.Errorf("opening report store: %w", err)
		}
		if store == nil {
			return &types.ConfigError{
				Field:  "store",
				Reason: "no report store configured",
			}
		}
		return f(store, c, ctx)
	})
}

func withPGStore(f func(store *report.PGReportStore) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		db, err := pgutil.OpenEnvPing()
		if err != nil {
			return fmt.Errorf("opening report store: %w", err)
		}
		defer db.Close()
		return f(&report.PGReportStore{DB: db})
	}
}
