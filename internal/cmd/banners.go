package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gravitrone/bannerdesk/internal/api"
	"github.com/gravitrone/bannerdesk/internal/banner"
	"github.com/gravitrone/bannerdesk/internal/config"
	"github.com/gravitrone/bannerdesk/internal/logger"
)

// ErrNothingToChange is returned by `banners edit` when no field flag was given.
var ErrNothingToChange = errors.New("nothing to change: pass --title, --subtitle, --url or --image")

// BannersCmd returns the `bannerdesk banners` command group.
func BannersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banners",
		Short: "List, inspect and edit banners",
	}
	cmd.AddCommand(bannersListCmd())
	cmd.AddCommand(bannersShowCmd())
	cmd.AddCommand(bannersEditCmd())
	return cmd
}

func loadClient() (*config.Config, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("not logged in: %w", err)
	}
	return cfg, api.NewClient(cfg.ResolvedBaseURL(), cfg.APIKey, cfg.Timeout()), nil
}

func bannersListCmd() *cobra.Command {
	var page string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List banners",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := resolvePage(page)
			if err != nil {
				return err
			}

			_, client, err := loadClient()
			if err != nil {
				return err
			}
			items, err := client.ListBanners(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("list banners: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "no banners found")
				return nil
			}
			for _, b := range items {
				fmt.Fprintf(out, "%-26s  %-13s  %s\n", b.ID, banner.PageOf(b), displayTitle(b))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "only banners on this page (top or bottom)")
	return cmd
}

// resolvePage maps the --page shorthand to the stored page value.
func resolvePage(page string) (string, error) {
	switch page {
	case "":
		return "", nil
	case "top", api.PageTop:
		return api.PageTop, nil
	case "bottom", api.PageBottom:
		return api.PageBottom, nil
	}
	return "", fmt.Errorf("unknown page %q (want top or bottom)", page)
}

func bannersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one banner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := loadClient()
			if err != nil {
				return err
			}
			b, err := client.GetBanner(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get banner: %w", err)
			}
			printBanner(cmd.OutOrStdout(), *b)
			return nil
		},
	}
}

func bannersEditCmd() *cobra.Command {
	var title, subtitle, url, imagePath string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a banner's title, subtitle, link or image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			changes := map[banner.Field]string{}
			if flags.Changed("title") {
				changes[banner.FieldTitle] = title
			}
			if flags.Changed("subtitle") {
				changes[banner.FieldSubtitle] = subtitle
			}
			if flags.Changed("url") {
				changes[banner.FieldURL] = url
			}
			if len(changes) == 0 && !flags.Changed("image") {
				return ErrNothingToChange
			}

			_, client, err := loadClient()
			if err != nil {
				return err
			}
			notifier := cliNotifier{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
			log := logger.New(zerolog.LevelWarnValue, cmd.ErrOrStderr())
			return runEdit(cmd.Context(), client, notifier, log, args[0], changes, imagePath)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&title, "title", "", "new title")
	flags.StringVar(&subtitle, "subtitle", "", "new subtitle")
	flags.StringVar(&url, "url", "", "new link target")
	flags.StringVar(&imagePath, "image", "", "image file to embed (max 5MB)")
	return cmd
}

// bannerAPI is what a headless edit needs from the API client.
type bannerAPI interface {
	banner.Gateway
	GetBanner(ctx context.Context, id string) (*api.Banner, error)
}

// runEdit seeds an editor from the server copy, applies changes in field
// order, embeds the image when imagePath is set, and saves once.
func runEdit(ctx context.Context, client bannerAPI, notifier banner.Notifier, log zerolog.Logger, id string, changes map[banner.Field]string, imagePath string) error {
	current, err := client.GetBanner(ctx, id)
	if err != nil {
		return fmt.Errorf("get banner: %w", err)
	}

	editor := banner.NewEditor(client, nil, notifier, log)
	editor.Open(current)
	defer editor.Close()

	for _, f := range banner.Fields {
		value, ok := changes[f]
		if !ok {
			continue
		}
		if err := editor.SetField(f, value); err != nil {
			return fmt.Errorf("set %s: %w", f, err)
		}
	}

	if imagePath != "" {
		src, err := banner.OpenFile(imagePath)
		if err != nil {
			return fmt.Errorf("image: %w", err)
		}
		if err := editor.Ingest(ctx, banner.FieldImage, src); err != nil {
			return fmt.Errorf("image: %w", err)
		}
	}

	if err := editor.Save(ctx); err != nil {
		return fmt.Errorf("save banner %s: %w", id, err)
	}
	return nil
}

type cliNotifier struct {
	out    io.Writer
	errOut io.Writer
}

func (n cliNotifier) Success(message string) { fmt.Fprintln(n.out, message) }
func (n cliNotifier) Error(message string)   { fmt.Fprintln(n.errOut, message) }

func printBanner(out io.Writer, b api.Banner) {
	fmt.Fprintf(out, "id:        %s\n", b.ID)
	fmt.Fprintf(out, "page:      %s\n", banner.PageOf(b))
	fmt.Fprintf(out, "title:     %s\n", b.Title)
	fmt.Fprintf(out, "subtitle:  %s\n", b.Subtitle)
	fmt.Fprintf(out, "url:       %s\n", b.URL)
	fmt.Fprintf(out, "image:     %s\n", imageLine(b.Image))
	if !b.UpdatedAt.IsZero() {
		fmt.Fprintf(out, "updated:   %s\n", b.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func imageLine(value string) string {
	if value == "" {
		return "-"
	}
	if info, ok := banner.ParseDataURI(value); ok {
		return fmt.Sprintf("%s, %d bytes (embedded)", info.MIME, info.Bytes)
	}
	return value
}

func displayTitle(b api.Banner) string {
	if b.Title == "" {
		return "(untitled)"
	}
	return b.Title
}
