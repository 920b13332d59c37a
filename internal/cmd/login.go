package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/gravitrone/bannerdesk/internal/api"
	"github.com/gravitrone/bannerdesk/internal/config"
)

// RunInteractiveLogin prompts for credentials, calls the login API against
// baseURL, and persists the returned token.
func RunInteractiveLogin(ctx context.Context, in io.Reader, out io.Writer, baseURL string) error {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	fmt.Fprint(out, "password: ")
	password, err := readPassword(in, reader, out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	if strings.TrimSpace(baseURL) == "" {
		baseURL = config.DefaultBaseURL
	}
	client := api.NewClient(baseURL, "")
	resp, err := client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("login failed: %w: missing token", api.ErrMalformedResponse)
	}

	username := resp.User.Email
	if username == "" {
		username = email
	}
	cfg := &config.Config{
		APIKey:   resp.Token,
		Username: username,
	}
	if baseURL != config.DefaultBaseURL {
		cfg.BaseURL = baseURL
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(out, "logged in as %s\n", username)
	fmt.Fprintf(out, "config saved to %s\n", config.Path())
	return nil
}

// readPassword reads without echo when in is a terminal. Piped input falls
// back to the shared line reader.
func readPassword(in io.Reader, reader *bufio.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		raw, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(raw), "\r\n"), nil
	}
	line, _ := reader.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), nil
}

// LoginCmd returns the `bannerdesk login` command.
func LoginCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the banner admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunInteractiveLogin(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), baseURL)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", config.DefaultBaseURL, "API root to log in against")
	return cmd
}
