package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"feedtrack/internal/cmd/flags"
	"feedtrack/internal/core"
	"feedtrack/internal/nats"
	"feedtrack/internal/records"

	"github.com/k0kubun/pp"
	"github.com/urfave/cli/v3"
)

// The records subcommands are one-shot: connect, act, exit. They skip the
// service container and wire the store by hand.

var recordsCmd = &cli.Command{
	Name:  "records",
	Usage: "Inspect and manage the stored record collections",
	Flags: []cli.Flag{
		flags.NATSUrl,
		flags.LikedCap,
		flags.InteractedCap,
	},
	Commands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List stored records",
			Flags: []cli.Flag{
				flags.Kind,
				flags.Query,
				flags.Verbose,
				flags.Liked,
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				return withStore(ctx, c, func(ctx context.Context, store *records.Store) error {
					posts, err := store.Search(ctx, collection(c, store),
						core.InteractionKind(c.String("kind")), c.String("query"))
					if err != nil {
						return err
					}

					for _, post := range posts {
						if c.Bool("verbose") {
							pp.Printf("%+v\n", post)
							continue
						}
						fmt.Printf("%s\t%s\t@%s\t%s\n", post.Kind, post.ID, post.Handle, post.Text)
					}

					return nil
				})
			},
		},
		{
			Name:  "export",
			Usage: "Export records as JSON",
			Flags: []cli.Flag{
				flags.Output,
				flags.Liked,
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				return withStore(ctx, c, func(ctx context.Context, store *records.Store) error {
					posts, err := store.List(ctx, collection(c, store))
					if err != nil {
						return err
					}
					if posts == nil {
						posts = []core.PostRecord{}
					}

					out := os.Stdout
					if path := c.String("output"); path != "" {
						f, err := os.Create(path)
						if err != nil {
							return err
						}
						defer f.Close() //nolint:errcheck
						out = f
					}

					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(posts)
				})
			},
		},
		{
			Name:      "delete",
			Usage:     "Delete one record by id and kind",
			ArgsUsage: "<id> <kind>",
			Action: func(ctx context.Context, c *cli.Command) error {
				if c.Args().Len() != 2 {
					return fmt.Errorf("expected <id> <kind>, got %d arguments", c.Args().Len())
				}

				return withStore(ctx, c, func(ctx context.Context, store *records.Store) error {
					id := c.Args().Get(0)
					kind := core.InteractionKind(c.Args().Get(1))

					if err := store.DeleteRecord(ctx, store.Interacted, id, kind); err != nil {
						return err
					}
					if kind == core.KindLike {
						return store.DeleteRecord(ctx, store.Liked, id, kind)
					}
					return nil
				})
			},
		},
		{
			Name:  "clear",
			Usage: "Remove every record from a collection",
			Flags: []cli.Flag{
				flags.Liked,
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				return withStore(ctx, c, func(ctx context.Context, store *records.Store) error {
					return store.Clear(ctx, collection(c, store))
				})
			},
		},
	},
}

func collection(c *cli.Command, store *records.Store) records.Collection {
	if c.Bool("liked") {
		return store.Liked
	}
	return store.Interacted
}

func withStore(ctx context.Context, c *cli.Command, fn func(context.Context, *records.Store) error) error {
	cfg, err := parseConfig(c)
	if err != nil {
		return err
	}

	n := &nats.NATS{Logger: slog.Default(), Config: cfg}
	if err := n.Init(ctx); err != nil {
		return err
	}
	defer n.Shutdown(ctx) //nolint:errcheck

	return fn(ctx, records.New(cfg, n))
}
