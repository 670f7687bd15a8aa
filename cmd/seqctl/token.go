package main

import (
	"time"

	"github.com/spf13/cobra"

	appctx "sequencer/internal/core/context"
	"sequencer/internal/domain/auth"
)

func (c *cli) tokenCommand() *cobra.Command {
	var (
		user  appctx.UserContext
		ttl   time.Duration
		perms []string
	)

	command := &cobra.Command{
		Use:     "token",
		Short:   "Issue an access token signed with JWT_SECRET",
		Example: "seqctl token --user alice --tenant MBC --perm sequence:generate --perm sequence:read",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
			jwtConfig.Issuer = cfg.Auth.JWTIssuer
			jwtConfig.AccessTokenTTL = cfg.Auth.TokenTTL
			if ttl > 0 {
				jwtConfig.AccessTokenTTL = ttl
			}

			user.TenantCode = c.tenant
			user.Permissions = perms
			token, expiresAt, err := auth.NewJWTService(jwtConfig).GenerateAccessToken(user)
			if err != nil {
				return err
			}
			return c.print(map[string]any{
				"accessToken": token,
				"expiresAt":   expiresAt,
			})
		},
	}

	flags := command.Flags()
	flags.StringVar(&user.UserID, "user", "", "user id (uid claim)")
	flags.BoolVar(&user.IsAdmin, "admin", false, "grant every permission")
	flags.StringSliceVar(&perms, "perm", nil, "permission code, repeatable")
	flags.DurationVar(&ttl, "ttl", 0, "token lifetime, default JWT_TOKEN_TTL")
	return command
}
