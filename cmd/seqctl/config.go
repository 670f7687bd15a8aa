package main

import (
	"github.com/spf13/cobra"

	"sequencer/internal/infrastructure/http/v1/dto"
)

func (c *cli) configCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Manage per-type sequence configuration",
	}

	command.AddCommand(
		c.configListCommand(),
		c.configGetCommand(),
		c.configSetCommand(),
		c.configDeleteCommand(),
	)
	return command
}

func (c *cli) configListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configs of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			ctx, err := c.requestContext(cmd.Context())
			if err != nil {
				return err
			}

			list, err := a.Configs.List(ctx, c.tenant)
			if err != nil {
				return err
			}
			return c.print(dto.NewListResponse(dto.FromConfigs(list)))
		},
	}
}

func (c *cli) configGetCommand() *cobra.Command {
	var typeCode string

	command := &cobra.Command{
		Use:   "get",
		Short: "Show the config of a type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			ctx, err := c.requestContext(cmd.Context())
			if err != nil {
				return err
			}

			cfg, err := a.Configs.Get(ctx, c.tenant, typeCode)
			if err != nil {
				return err
			}
			return c.print(dto.FromConfig(cfg))
		},
	}

	command.Flags().StringVar(&typeCode, "type", "", "sequence type code")
	return command
}

func (c *cli) configSetCommand() *cobra.Command {
	var (
		typeCode string
		req      dto.ConfigRequest
	)

	command := &cobra.Command{
		Use:     "set",
		Short:   "Create or replace the config of a type",
		Example: `seqctl config set --tenant MBC --type invoice --format "%%code1%%-%%fiscal_year%%-%%no#:0>4%%" --start-month 4`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			ctx, err := c.requestContext(cmd.Context())
			if err != nil {
				return err
			}

			cfg, err := req.ToDomain(c.tenant, typeCode, a.Location)
			if err != nil {
				return err
			}
			saved, err := a.Configs.Put(ctx, cfg)
			if err != nil {
				return err
			}
			return c.print(dto.FromConfig(saved))
		},
	}

	flags := command.Flags()
	flags.StringVar(&typeCode, "type", "", "sequence type code")
	flags.StringVar(&req.Format, "format", "", "format template")
	flags.IntVar(&req.StartMonth, "start-month", 0, "first month of the fiscal year (1-12), default 4")
	flags.StringVar(&req.RegisterDate, "register-date", "", "date whose fiscal year is numbered 1")
	return command
}

func (c *cli) configDeleteCommand() *cobra.Command {
	var typeCode string

	command := &cobra.Command{
		Use:   "delete",
		Short: "Delete the config of a type; the defaults apply afterwards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			ctx, err := c.requestContext(cmd.Context())
			if err != nil {
				return err
			}

			if err := a.Configs.Delete(ctx, c.tenant, typeCode); err != nil {
				return err
			}
			cmd.Printf("deleted %s\n", typeCode)
			return nil
		},
	}

	command.Flags().StringVar(&typeCode, "type", "", "sequence type code")
	return command
}
