package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/go-petr/ledger/internal/accountdelivery"
	"github.com/go-petr/ledger/internal/accountrepo"
	"github.com/go-petr/ledger/internal/accountservice"
	"github.com/go-petr/ledger/internal/middleware"
	"github.com/go-petr/ledger/pkg/configpkg"
)

var (
	configDir  string
	ledgerFile string
)

// rootCmd runs the interactive menu when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:          "ledger",
	Short:        "Flat-file account ledger",
	Long:         `Create accounts, move money between them and delete them. All state lives in one text file.`,
	SilenceUsage: true,
	RunE:         runMenu,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./configs", "directory holding app.env")
	rootCmd.PersistentFlags().StringVar(&ledgerFile, "file", "", "record file path, overrides LEDGER_FILE")
}

type app struct {
	config  configpkg.Config
	logger  zerolog.Logger
	repo    *accountrepo.RepoFile
	service *accountservice.Service
}

// setup loads configuration and wires the store and the service.
func setup() (*app, error) {
	config, err := configpkg.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}

	if ledgerFile != "" {
		config.LedgerFile = ledgerFile
	}

	logger := middleware.GetLogger(config)

	repo := accountrepo.NewRepoFile(config.LedgerFile, accountrepo.WithLockRetryDelay(config.LockRetryDelay))
	service := accountservice.New(repo, accountservice.WithMaxIDAttempts(config.MaxIDAttempts))

	logger.Debug().Str("file", config.LedgerFile).Msg("record store ready")

	return &app{
		config:  config,
		logger:  logger,
		repo:    repo,
		service: service,
	}, nil
}

// terminalSecretReader reads a password from the terminal without echo.
func terminalSecretReader(out io.Writer) accountdelivery.SecretReader {
	return func() (string, error) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)

		return string(b), err
	}
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
