package main

import (
	"github.com/spf13/cobra"

	"sequencer/internal/core/sequence"
	"sequencer/internal/infrastructure/http/v1/dto"
	"sequencer/pkg/numerator"
)

func (c *cli) nextCommand() *cobra.Command {
	var (
		req      dto.GenerateRequest
		format   string
		month    int
		register string
	)

	command := &cobra.Command{
		Use:     "next",
		Short:   "Allocate the next number of a sequence type",
		Example: "seqctl next --tenant MBC --type invoice --code1 INV --rotate-by fiscal_yearly",
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

			domainReq, err := req.ToDomain(c.tenant, a.Location)
			if err != nil {
				return err
			}

			var result *sequence.Result
			if format != "" {
				setting, err := dto.GenerateWithSettingRequest{
					GenerateRequest: req,
					Format:          format,
					StartMonth:      month,
					RegisterDate:    register,
				}.Setting(a.Location)
				if err != nil {
					return err
				}
				result, err = a.Sequences.GenerateWithSetting(ctx, domainReq, setting)
				if err != nil {
					return err
				}
			} else {
				result, err = a.Sequences.Generate(ctx, domainReq)
				if err != nil {
					return err
				}
			}
			return c.print(dto.FromResult(result))
		},
	}

	flags := command.Flags()
	flags.StringVar(&req.TypeCode, "type", "", "sequence type code")
	flags.StringVar(&req.RotateBy, "rotate-by", string(numerator.RotateNone), "none, daily, monthly, yearly or fiscal_yearly")
	flags.StringVar(&req.Date, "date", "", "reference date (YYYY-MM-DD or RFC 3339), default now")
	flags.StringVar(&req.Params.Code1, "code1", "", "value of %%code1%%")
	flags.StringVar(&req.Params.Code2, "code2", "", "value of %%code2%%")
	flags.StringVar(&req.Params.Code3, "code3", "", "value of %%code3%%")
	flags.StringVar(&req.Params.Code4, "code4", "", "value of %%code4%%")
	flags.StringVar(&req.Params.Code5, "code5", "", "value of %%code5%%")
	flags.StringVar(&req.Prefix, "prefix", "", "text put before the number")
	flags.StringVar(&req.Postfix, "postfix", "", "text put after the number")
	flags.StringVar(&format, "format", "", "use this format instead of the stored config")
	flags.IntVar(&month, "start-month", 0, "fiscal start month used with --format")
	flags.StringVar(&register, "register-date", "", "registration date used with --format")

	return command
}

func (c *cli) currentCommand() *cobra.Command {
	var key sequence.Key

	command := &cobra.Command{
		Use:     "current",
		Short:   "Show a counter without advancing it",
		Example: "seqctl current --tenant MBC --type invoice --rotate-value 2024",
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

			key.TenantCode = c.tenant
			counter, err := a.Sequences.Current(ctx, key)
			if err != nil {
				return err
			}
			return c.print(dto.FromCounter(counter))
		},
	}

	command.Flags().StringVar(&key.TypeCode, "type", "", "sequence type code")
	command.Flags().StringVar(&key.RotateValue, "rotate-value", "", "rotation bucket, e.g. 2024, 202407, 20240703; empty means none")
	return command
}
