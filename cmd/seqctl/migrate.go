package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured store",
		Long: "Applies the embedded goose migrations for postgres and sqlite.\n" +
			"Redis and memory stores have no schema and are only pinged.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cfg.Store.AutoMigrate = true

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Backend.Ping(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("%s store is up to date\n", a.Backend.Name())
			return nil
		},
	}
}
