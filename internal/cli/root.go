package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/bootstrap"
	"github.com/himTresor1/celia-sub001/internal/config"
	"github.com/himTresor1/celia-sub001/pkg/database"
)

// Env is what every maintenance command runs against.
type Env struct {
	DB       *gorm.DB
	Services *bootstrap.Services
	Close    func() error
}

// Opener builds an Env. Tests swap it for an in-memory database.
type Opener func(ctx context.Context) (*Env, error)

type RootOptions struct {
	Open Opener
}

func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = OpenFromConfig
	}
	opts := &RootOptions{Open: open}

	cmd := &cobra.Command{
		Use:           "celiactl",
		Short:         "Maintenance commands for the celia backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewLedgerCommand(opts))
	cmd.AddCommand(NewReputationCommand(opts))
	cmd.AddCommand(NewPulsesCommand(opts))

	return cmd
}

// OpenFromConfig connects to postgres and redis using environment config.
func OpenFromConfig(ctx context.Context) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	return &Env{
		DB:       db,
		Services: bootstrap.NewServices(cfg, db, redisClient),
		Close: func() error {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}

func withEnv(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := opts.Open(ctx)
	if err != nil {
		return fmt.Errorf("open environment: %w", err)
	}
	if env.Close != nil {
		defer env.Close()
	}

	return fn(ctx, env)
}
