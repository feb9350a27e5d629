package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/grpcapi"
	"github.com/af-corp/textguard/internal/moderation"
)

// checker is satisfied by the in-process engine and the remote service.
type checker interface {
	Filter(ctx context.Context, text string) (moderation.Verdict, error)
	Report(ctx context.Context, text string) (moderation.Report, error)
	IsUnclear(ctx context.Context, text string) (bool, error)
	Close() error
}

type localChecker struct{ engine *moderation.Engine }

func (l localChecker) Filter(_ context.Context, text string) (moderation.Verdict, error) {
	return l.engine.Filter(text), nil
}

func (l localChecker) Report(_ context.Context, text string) (moderation.Report, error) {
	return l.engine.Report(text), nil
}

func (l localChecker) IsUnclear(_ context.Context, text string) (bool, error) {
	return l.engine.IsUnclear(text), nil
}

func (localChecker) Close() error { return nil }

type remoteChecker struct{ client *grpcapi.Client }

func (r remoteChecker) Filter(ctx context.Context, text string) (moderation.Verdict, error) {
	resp, err := r.client.Filter(ctx, text)
	if err != nil {
		return moderation.Verdict{}, err
	}
	return resp.Verdict, nil
}

func (r remoteChecker) Report(ctx context.Context, text string) (moderation.Report, error) {
	resp, err := r.client.Report(ctx, text)
	if err != nil {
		return moderation.Report{}, err
	}
	return *resp, nil
}

func (r remoteChecker) IsUnclear(ctx context.Context, text string) (bool, error) {
	return r.client.IsUnclear(ctx, text)
}

func (r remoteChecker) Close() error { return r.client.Close() }

var checkFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "rules",
		Usage:   "YAML rules file extending the built-in tables",
		EnvVars: []string{"TEXTGUARD_RULES"},
	},
	&cli.StringFlag{
		Name:    "remote",
		Usage:   "address of a running moderation gRPC service; overrides --rules",
		EnvVars: []string{"TEXTGUARD_REMOTE"},
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "per-call timeout for --remote",
		Value: 5 * time.Second,
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "modcheck",
		Usage:   "run the moderation engine over text from arguments or stdin",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "filter",
				Usage:     "print ACCEPT or REJECT for every line",
				ArgsUsage: "[text...]",
				Flags:     checkFlags,
				Action:    runFilter,
			},
			{
				Name:      "report",
				Usage:     "print the per-stage report of every line as JSON",
				ArgsUsage: "[text...]",
				Flags:     checkFlags,
				Action:    runReport,
			},
			{
				Name:      "unclear",
				Usage:     "print whether every line is too vague to answer",
				ArgsUsage: "[text...]",
				Flags:     checkFlags,
				Action:    runUnclear,
			},
			termsCommand(),
		},
	}
}

func openChecker(c *cli.Context) (checker, error) {
	if addr := c.String("remote"); addr != "" {
		client, err := grpcapi.Dial(addr, c.Duration("timeout"))
		if err != nil {
			return nil, err
		}
		return remoteChecker{client: client}, nil
	}
	var ext moderation.Extensions
	if path := c.String("rules"); path != "" {
		var err error
		if ext, err = config.LoadRules(path); err != nil {
			return nil, err
		}
	}
	return localChecker{engine: moderation.New(moderation.NewRuleSet(ext))}, nil
}

// eachInput calls fn for every argument, or for every stdin line when no
// arguments are given. Blank lines are passed through.
func eachInput(c *cli.Context, fn func(text string) error) error {
	if c.Args().Present() {
		for _, text := range c.Args().Slice() {
			if err := fn(text); err != nil {
				return err
			}
		}
		return nil
	}
	return eachLine(c.App.Reader, fn)
}

func eachLine(r io.Reader, fn func(text string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		if err := fn(sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

func runFilter(c *cli.Context) error {
	chk, err := openChecker(c)
	if err != nil {
		return err
	}
	defer chk.Close()

	var rejected int
	err = eachInput(c, func(text string) error {
		v, err := chk.Filter(c.Context, text)
		if err != nil {
			return err
		}
		if v.Accepted {
			fmt.Fprintf(c.App.Writer, "ACCEPT\t%s\n", text)
			return nil
		}
		rejected++
		fmt.Fprintf(c.App.Writer, "REJECT\t%s\t%s\t%s\n", v.Category, v.Detail, text)
		return nil
	})
	if err != nil {
		return err
	}
	if rejected > 0 {
		return cli.Exit("", 3)
	}
	return nil
}

func runReport(c *cli.Context) error {
	chk, err := openChecker(c)
	if err != nil {
		return err
	}
	defer chk.Close()

	enc := json.NewEncoder(c.App.Writer)
	return eachInput(c, func(text string) error {
		r, err := chk.Report(c.Context, text)
		if err != nil {
			return err
		}
		return enc.Encode(r)
	})
}

func runUnclear(c *cli.Context) error {
	chk, err := openChecker(c)
	if err != nil {
		return err
	}
	defer chk.Close()

	return eachInput(c, func(text string) error {
		unclear, err := chk.IsUnclear(c.Context, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%t\t%s\n", unclear, strings.TrimSpace(text))
		return nil
	})
}
