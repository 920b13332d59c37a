package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gravitrone/bannerdesk/internal/api"
	"github.com/gravitrone/bannerdesk/internal/cmd"
	"github.com/gravitrone/bannerdesk/internal/config"
	"github.com/gravitrone/bannerdesk/internal/logger"
	"github.com/gravitrone/bannerdesk/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bannerdesk",
		Short: "bannerdesk - banner administration",
		Long:  "bannerdesk: browse the top and bottom banners and edit their title, image, subtitle and link.",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadDotEnv()
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(cmd.LoginCmd())
	root.AddCommand(cmd.BannersCmd())
	return root
}

func init() {
	// Force truecolor so hex colors render correctly
	// Must be set before any lipgloss style initialization
	os.Setenv("COLORTERM", "truecolor")
}

func runTUI() error {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !isInteractiveTerminal(os.Stdin) || !isInteractiveTerminal(os.Stdout) {
				fmt.Println("not logged in. run 'bannerdesk login' first.")
				return err
			}
			cfg = nil
		} else {
			return err
		}
	}

	log := zerolog.Nop()
	if f, err := logger.OpenFile(cfg.ResolvedLogFile()); err == nil {
		defer f.Close()
		log = logger.New(cfg.ResolvedLogLevel(), f)
	} else {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
	}

	apiKey := ""
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	client := api.NewClient(cfg.ResolvedBaseURL(), apiKey, cfg.Timeout())
	log.Info().Str("base_url", client.BaseURL()).Msg("starting tui")

	p := tea.NewProgram(ui.NewApp(client, cfg, log), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func isInteractiveTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	return term.IsTerminal(file.Fd())
}
