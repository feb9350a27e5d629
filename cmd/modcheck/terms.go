package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/af-corp/textguard/internal/moderation"
	"github.com/af-corp/textguard/internal/termstore"
)

func dbURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "PostgreSQL URL of the term store",
		EnvVars:  []string{"DATABASE_URL"},
		Required: true,
	}
}

func termsCommand() *cli.Command {
	return &cli.Command{
		Name:  "terms",
		Usage: "manage stored moderation terms",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list stored terms",
				Flags:  []cli.Flag{dbURLFlag()},
				Action: withStore(listTerms),
			},
			{
				Name:      "add",
				Usage:     "store a term",
				ArgsUsage: "<term>",
				Flags: []cli.Flag{
					dbURLFlag(),
					&cli.StringFlag{Name: "kind", Usage: "whitelist, lexical, hidden_root or trigger", Required: true},
					&cli.StringFlag{Name: "category", Usage: "category key or label, required for triggers"},
				},
				Action: withStore(addTerm),
			},
			{
				Name:      "remove",
				Usage:     "delete a term by id",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{dbURLFlag()},
				Action:    withStore(removeTerm),
			},
		},
	}
}

func withStore(fn func(*cli.Context, *termstore.Store) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		pool, err := pgxpool.New(c.Context, c.String("db-url"))
		if err != nil {
			return fmt.Errorf("connect term store: %w", err)
		}
		defer pool.Close()
		return fn(c, termstore.New(pool, nil))
	}
}

func listTerms(c *cli.Context, s *termstore.Store) error {
	terms, err := s.List(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tCATEGORY\tTERM")
	for _, t := range terms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Kind, t.Category, t.Term)
	}
	return tw.Flush()
}

func addTerm(c *cli.Context, s *termstore.Store) error {
	if c.NArg() != 1 {
		return cli.Exit("add takes exactly one term", 2)
	}
	t := termstore.Term{Kind: termstore.Kind(c.String("kind")), Term: c.Args().First()}
	if raw := c.String("category"); raw != "" {
		cat, ok := moderation.ParseCategory(raw)
		if !ok {
			return cli.Exit(fmt.Sprintf("unknown category %q", raw), 2)
		}
		t.Category = cat
	}
	if err := s.Add(c.Context, t); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "stored")
	return nil
}

func removeTerm(c *cli.Context, s *termstore.Store) error {
	var id int64
	if _, err := fmt.Sscan(c.Args().First(), &id); err != nil {
		return cli.Exit("remove takes a numeric id", 2)
	}
	ok, err := s.Remove(c.Context, id)
	if err != nil {
		return err
	}
	if !ok {
		return cli.Exit(fmt.Sprintf("no term with id %d", id), 1)
	}
	fmt.Fprintln(c.App.Writer, "removed")
	return nil
}
