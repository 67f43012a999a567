package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"medicrm/cmd/medicrm/app"
	"medicrm/internal/api"
	"medicrm/internal/clinic"
	"medicrm/internal/config"
	"medicrm/internal/logging"
	"medicrm/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "medicrm",
	Short: "medicrm - terminal client for the clinic backend",
	Long: `medicrm is a terminal front end for the clinic management API:
patients, their charts, the appointment book, and staff messaging.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Sign in and store the credential",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogin,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show who the stored credential belongs to",
	RunE:  runWhoami,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the stored credential",
	RunE:  runLogout,
}

func main() {
	rootCmd.AddCommand(loginCmd, whoamiCmd, logoutCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap assembles the service stack shared by every command.
func bootstrap(log *zap.Logger) (*clinic.Services, *session.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	store := session.NewStore(cfg.CredentialsFile)
	client, err := api.New(cfg.ServerURL, store,
		api.WithLogger(log),
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	return clinic.NewServices(client, store), store, cfg, nil
}

func runTUI() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// The UI owns the terminal; logs go to a file.
	log, err := logging.NewFileLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	svc, store, cfg, err := bootstrap(log)
	if err != nil {
		return err
	}

	model := app.New(app.Options{
		Services:     svc,
		Store:        store,
		Logger:       log,
		PollInterval: cfg.PollInterval,
		PageSize:     cfg.PageSize,
	})
	defer model.Shutdown()

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	log, err := logging.NewStderrLogger("warn")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	svc, _, _, err := bootstrap(log)
	if err != nil {
		return err
	}

	username := ""
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("username: ")
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &username); err != nil {
			return fmt.Errorf("read username: %w", err)
		}
	}

	fmt.Print("password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	id, err := svc.Auth.Login(ctx, username, string(raw))
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", id.DisplayName(), id.Role)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	log, err := logging.NewStderrLogger("warn")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	svc, _, _, err := bootstrap(log)
	if err != nil {
		return err
	}
	id := svc.Auth.Identity()
	if id == nil {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s (%s)\n", id.DisplayName(), id.Role)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	log, err := logging.NewStderrLogger("warn")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	svc, _, _, err := bootstrap(log)
	if err != nil {
		return err
	}
	if err := svc.Auth.Logout(); err != nil {
		return err
	}
	fmt.Println("signed out")
	return nil
}
