package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/itchan-dev/forum/backend/internal/router"
	"github.com/itchan-dev/forum/backend/internal/setup"
	"github.com/itchan-dev/forum/backend/internal/storage/pg"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/logger"
	sharedpg "github.com/itchan-dev/forum/shared/storage/pg"
	"github.com/spf13/cobra"
)

var (
	configFolder string
	cfg          *config.Config

	userAdmin bool
	userMod   bool

	rootCmd = &cobra.Command{
		Use:           "forum",
		Short:         "Discussion forum API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.MustLoad(configFolder)
			logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Apply the schema and serve the HTTP API",
		RunE:  serve,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE:  migrate,
	}

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	userCreateCmd = &cobra.Command{
		Use:   "create [username] [email]",
		Short: "Create a member, optionally in the admin or mod group",
		Args:  cobra.ExactArgs(2),
		RunE:  createUser,
	}

	tokenCmd = &cobra.Command{
		Use:   "token [username]",
		Short: "Print an access token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE:  issueToken,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFolder, "config", "backend/config", "path to folder with public.yaml and private.yaml")

	userCreateCmd.Flags().BoolVar(&userAdmin, "admin", false, "add the user to the admin group")
	userCreateCmd.Flags().BoolVar(&userMod, "mod", false, "add the user to the mod group")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, userCmd, tokenCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Storage.Cleanup()

	if err := pg.Migrate(ctx, deps.Storage.DB()); err != nil {
		return err
	}

	limiters := router.NewLimiters(deps)
	defer limiters.Stop()

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Public.HttpPort),
		Handler:           router.New(deps, limiters),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("server started", "component", "server", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down", "component", "server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStorage() (*pg.Storage, error) {
	policy, err := setup.NewPolicy(cfg)
	if err != nil {
		return nil, err
	}
	return pg.Open(cfg, policy, sharedpg.LightweightConnectionConfig())
}

func migrate(cmd *cobra.Command, args []string) error {
	storage, err := openStorage()
	if err != nil {
		return err
	}
	defer storage.Cleanup()

	if err := pg.Migrate(cmd.Context(), storage.DB()); err != nil {
		return err
	}
	logger.Log.Info("schema applied", "component", "migrate")
	return nil
}

func createUser(cmd *cobra.Command, args []string) error {
	storage, err := openStorage()
	if err != nil {
		return err
	}
	defer storage.Cleanup()

	var groups []int
	if userAdmin {
		groups = append(groups, pg.GroupAdmin)
	}
	if userMod {
		groups = append(groups, pg.GroupMod)
	}

	id, err := storage.CreateUser(cmd.Context(), domain.User{Username: args[0], Email: args[1]}, groups...)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func issueToken(cmd *cobra.Command, args []string) error {
	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Storage.Cleanup()

	id, err := deps.Storage.UserIdByUsername(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	user, err := deps.Storage.GetActor(cmd.Context(), id)
	if err != nil {
		return err
	}
	token, err := deps.Jwt.NewToken(*user)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
