package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/example/tablebook/internal/auth"
	"github.com/example/tablebook/internal/config"
	"github.com/example/tablebook/internal/db"
	"github.com/example/tablebook/internal/migrate"
	"github.com/example/tablebook/internal/secrets"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local staff accounts",
	}
	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserSetTokenCmd())
	return cmd
}

func openStore(ctx context.Context) (*auth.Store, *db.DB, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, nil, err
	}

	var sealer *secrets.Sealer
	if len(cfg.TokenEncKey) > 0 {
		if sealer, err = secrets.New(cfg.TokenEncKey); err != nil {
			d.Close()
			return nil, nil, err
		}
	}
	return auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey, sealer), d, nil
}

func newUserAddCmd() *cobra.Command {
	var username, password string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a staff account (username/password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, d, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := store.CreateUser(ctx, username, password); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created user %q\n", username)
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "username")
	c.Flags().StringVar(&password, "password", "", "password")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}

func newUserSetTokenCmd() *cobra.Command {
	var username, token string

	c := &cobra.Command{
		Use:   "set-token",
		Short: "Store a staff member's platform access token (encrypted at rest)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, d, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			u, err := store.UserByUsername(ctx, username)
			if err != nil {
				return fmt.Errorf("lookup %q: %w", username, err)
			}
			if err := store.SetPlatformToken(ctx, u.ID, token); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "stored platform token for %q\n", username)
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "username")
	c.Flags().StringVar(&token, "token", "", "platform access token")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("token")
	return c
}
