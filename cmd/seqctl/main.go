// Package main is the sequencer admin CLI.
//
//	seqctl next --tenant MBC --type invoice --code1 INV --rotate-by monthly
//	seqctl current --tenant MBC --type invoice --rotate-value 202407
//	seqctl config set --tenant MBC --type invoice --format "INV-%%no#:0>5%%"
//	seqctl migrate
//	seqctl token --user alice --tenant MBC --perm sequence:generate
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sequencer/internal/app"
	"sequencer/internal/config"
	appctx "sequencer/internal/core/context"
	"sequencer/internal/core/tenant"
	"sequencer/pkg/logger"
)

// localIP is recorded as the source address of counters changed from the CLI.
const localIP = "127.0.0.1"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// cli carries state shared by the subcommands.
type cli struct {
	out     io.Writer
	envFile string
	tenant  string
	user    string

	cfg *config.Config
	app *app.App
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:          "seqctl",
		Short:        "Administer sequence counters and their configuration",
		SilenceUsage: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "read environment from this file instead of ./.env")
	root.PersistentFlags().StringVar(&c.tenant, "tenant", os.Getenv("SEQCTL_TENANT"), "tenant code")
	root.PersistentFlags().StringVar(&c.user, "as", appctx.SystemUser, "user recorded in counter audit columns")

	root.AddCommand(
		c.nextCommand(),
		c.currentCommand(),
		c.configCommand(),
		c.migrateCommand(),
		c.tokenCommand(),
	)
	return root
}

// loadConfig reads configuration once.
func (c *cli) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	var err error
	if c.envFile != "" {
		c.cfg, err = config.LoadFile(c.envFile)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{Level: "warn", Development: c.cfg.IsDevelopment(), Output: os.Stderr})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return c.cfg, nil
}

// open wires the services on the configured backend.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Driver == config.DriverMemory {
		return nil, errors.New("seqctl needs a persistent store, STORE_DRIVER=memory starts empty on every run")
	}
	c.app, err = app.New(ctx, cfg)
	return c.app, err
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// requestContext returns a context carrying tenant and user like an HTTP request would.
func (c *cli) requestContext(ctx context.Context) (context.Context, error) {
	if err := tenant.ValidateCode(c.tenant); err != nil {
		return nil, fmt.Errorf("--tenant: %w", err)
	}
	ctx = tenant.WithTenantCode(ctx, c.tenant)
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(localIP))
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: c.user, TenantCode: c.tenant})
	return ctx, nil
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
