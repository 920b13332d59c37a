package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/gravitrone/bannerdesk/internal/api"
	"github.com/gravitrone/bannerdesk/internal/banner"
	"github.com/gravitrone/bannerdesk/internal/config"
	"github.com/gravitrone/bannerdesk/internal/ui/components"
)

// --- Tab Constants ---

const (
	tabTop    = 0
	tabBottom = 1
	tabCount  = 2
)

var tabNames = []string{"Top Banners", "Bottom Banners"}

const toastDuration = 2500 * time.Millisecond

// --- Messages ---

type errMsg struct{ err error }
type clearToastMsg struct{ seq int }
type startupCheckedMsg struct {
	apiErr  error
	authErr error
}

type startupSummary struct {
	API  string
	Auth string
	Done bool
}

type appToast struct {
	level string
	text  string
}

// --- App Model ---

// App is the root TUI model that routes between the banner tabs.
type App struct {
	client *api.Client
	config *config.Config
	log    zerolog.Logger
	store  *banner.Store

	tab         int
	width       int
	height      int
	err         string
	helpOpen    bool
	quitConfirm bool

	startupChecking bool
	startup         startupSummary
	toast           *appToast
	toastSeq        int

	top    BannersModel
	bottom BannersModel
}

// NewApp creates the root application model.
func NewApp(client *api.Client, cfg *config.Config, log zerolog.Logger) App {
	store := banner.NewStore()
	return App{
		client:          client,
		config:          cfg,
		log:             log,
		store:           store,
		tab:             tabTop,
		startupChecking: client != nil,
		startup: startupSummary{
			API:  "checking",
			Auth: "checking",
		},
		top:    NewBannersModel(client, store, api.PageTop, log),
		bottom: NewBannersModel(client, store, api.PageBottom, log),
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.top.Init()}
	if a.startupChecking {
		cmds = append(cmds, a.runStartupCheckCmd())
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.top.width, a.top.height = msg.Width, msg.Height
		a.bottom.width, a.bottom.height = msg.Width, msg.Height
		return a, nil

	case toastMsg:
		return a, a.setToast(msg.level, msg.text)
	case clearToastMsg:
		// A tick from an older toast must not clear a newer one.
		if msg.seq == a.toastSeq {
			a.toast = nil
		}
		return a, nil
	case errMsg:
		a.err = msg.err.Error()
		a.log.Warn().Err(msg.err).Msg("request failed")
	case startupCheckedMsg:
		a.startupChecking = false
		a.startup.Done = true
		a.startup.API = classifyStartupAPI(msg.apiErr)
		if a.startup.API == "ok" {
			a.startup.Auth = classifyStartupAuth(msg.authErr, a.config)
		} else {
			a.startup.Auth = "missing"
		}
		a.log.Info().
			Str("api", a.startup.API).
			Str("auth", a.startup.Auth).
			Msg("startup checks finished")
		level, text := startupToastCopy(a.startup)
		return a, a.setToast(level, text)

	case bannerIngestDoneMsg, bannerSaveDoneMsg:
		// Async results go to both tabs; each modal ignores the other's.
		var topCmd, bottomCmd tea.Cmd
		a.top, topCmd = a.top.Update(msg)
		a.bottom, bottomCmd = a.bottom.Update(msg)
		return a, tea.Batch(topCmd, bottomCmd)

	case tea.KeyMsg:
		if a.quitConfirm {
			switch {
			case isKey(msg, "y"):
				return a, tea.Quit
			case isKey(msg, "n"), isBack(msg):
				a.quitConfirm = false
			}
			return a, nil
		}
		if a.helpOpen {
			if isBack(msg) || isKey(msg, "?") {
				a.helpOpen = false
			}
			return a, nil
		}
		if a.err != "" {
			a.err = ""
		}
		if isKey(msg, "ctrl+c") {
			return a.requestQuit()
		}

		// A modal or an active filter owns every other key.
		if !a.active().busy() {
			if isKey(msg, "?") {
				a.helpOpen = true
				return a, nil
			}
			if isQuit(msg) {
				return a.requestQuit()
			}
			if idx, ok := tabIndexForKey(msg.String()); ok {
				return a.switchTab(idx)
			}
			if a.active().view == bannersViewList {
				switch {
				case isKey(msg, "left"):
					return a.switchTab((a.tab - 1 + tabCount) % tabCount)
				case isKey(msg, "right"):
					return a.switchTab((a.tab + 1) % tabCount)
				}
			}
		}
	}

	// Delegate to active tab
	var cmd tea.Cmd
	switch a.tab {
	case tabTop:
		a.top, cmd = a.top.Update(msg)
	case tabBottom:
		a.bottom, cmd = a.bottom.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	logo := centerBlockUniform(RenderLogo(), a.width)
	tabs := centerBlockUniform(a.renderTabs(), a.width)
	startupPanel := ""
	if a.startupChecking {
		startupPanel = "\n\n" + centerBlockUniform(a.renderStartupPanel(), a.width)
	}

	content := a.active().View()
	if a.quitConfirm {
		content = a.renderQuitConfirm()
	} else if a.helpOpen {
		content = a.renderHelp()
	}
	content = centerBlockUniform(content, a.width)

	hints := components.StatusBar(a.statusHints(), a.width)

	feedback := ""
	if a.err != "" {
		feedback = "\n\n" + centerBlockUniform(components.ErrorBox("Error", components.SanitizeOneLine(a.err), a.width), a.width)
	} else if a.toast != nil {
		feedback = "\n\n" + centerBlockUniform(a.renderToast(), a.width)
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s\n\n\n%s%s", logo, tabs, startupPanel, content, hints, feedback)
}

func (a App) active() BannersModel {
	if a.tab == tabBottom {
		return a.bottom
	}
	return a.top
}

func (a *App) switchTab(newTab int) (App, tea.Cmd) {
	oldTab := a.tab
	a.tab = newTab
	if oldTab != newTab {
		return *a, a.initTab(newTab)
	}
	return *a, nil
}

func (a App) initTab(tab int) tea.Cmd {
	switch tab {
	case tabTop:
		return a.top.Init()
	case tabBottom:
		return a.bottom.Init()
	}
	return nil
}

func (a App) requestQuit() (App, tea.Cmd) {
	if a.hasUnsaved() {
		a.quitConfirm = true
		return a, nil
	}
	return a, tea.Quit
}

func (a App) hasUnsaved() bool {
	return a.top.editing() || a.bottom.editing()
}

func (a App) renderTabs() string {
	segments := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		if i == a.tab {
			segments = append(segments, TabActiveStyle.Render(name))
		} else {
			segments = append(segments, TabInactiveStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, segments...)
}

func (a App) statusHints() []string {
	if a.quitConfirm {
		return []string{
			components.Hint("y", "Confirm"),
			components.Hint("n", "Cancel"),
		}
	}
	if a.helpOpen {
		return []string{
			components.Hint("esc", "Back"),
		}
	}
	return a.statusHintsForTab()
}

func (a App) statusHintsForTab() []string {
	m := a.active()
	if m.modal.IsOpen() {
		if m.modal.alert != nil {
			return []string{components.Hint("enter", "Dismiss")}
		}
		hints := []string{
			components.Hint("↑/↓", "Fields"),
			components.Hint("ctrl+s", "Save"),
			components.Hint("esc", "Cancel"),
		}
		if m.modal.focus == modalFocusImage {
			hints = append(hints, components.Hint("enter", "Load File"))
		}
		return hints
	}
	if m.filtering {
		return []string{
			components.Hint("enter", "Apply"),
			components.Hint("esc", "Clear"),
		}
	}

	base := []string{
		components.Hint("1-2", "Tabs"),
		components.Hint("?", "Help"),
		components.Hint("q", "Quit"),
	}
	if m.view == bannersViewDetail {
		return append(base,
			components.Hint("e", "Edit"),
			components.Hint("esc", "Back"),
		)
	}
	return append(base,
		components.Hint("↑/↓", "Scroll"),
		components.Hint("enter", "Details"),
		components.Hint("e", "Edit"),
		components.Hint("f", "Filter"),
		components.Hint("r", "Reload"),
	)
}

func (a App) renderHelp() string {
	hints := a.statusHintsForTab()
	lines := make([]string, 0, len(hints)+2)
	lines = append(lines, MutedStyle.Render("esc to close"))
	lines = append(lines, "")
	for _, hint := range hints {
		lines = append(lines, "  "+hint)
	}
	return components.Indent(components.TitledBox("Help", strings.Join(lines, "\n"), a.width), 1)
}

func (a App) renderQuitConfirm() string {
	var diffs []components.DiffRow
	for _, m := range []BannersModel{a.top, a.bottom} {
		if m.editing() {
			diffs = append(diffs, m.modal.Changes()...)
		}
	}
	if len(diffs) == 0 {
		// Only a pending image path is dirty, so there is nothing to diff.
		return components.Indent(components.ConfirmDialog("Quit", "You have unsaved changes. Quit anyway?"), 1)
	}
	summary := []components.TableRow{
		{Label: "Unsaved", Value: "You have unsaved changes. Quit anyway?"},
	}
	return components.Indent(components.ConfirmPreviewDialog("Quit", summary, diffs, a.width), 1)
}

// --- Startup ---

func (a App) runStartupCheckCmd() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		checkClient := client.WithTimeout(700 * time.Millisecond)
		ctx := context.Background()

		msg := startupCheckedMsg{}
		if _, err := checkClient.Health(ctx); err != nil {
			msg.apiErr = err
			return msg
		}
		if _, err := checkClient.ListBanners(ctx, api.PageTop); err != nil {
			msg.authErr = err
		}
		return msg
	}
}

func classifyStartupAPI(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
		return "timeout"
	}
	return "down"
}

func classifyStartupAuth(err error, cfg *config.Config) string {
	if cfg == nil || strings.TrimSpace(cfg.APIKey) == "" {
		return "missing"
	}
	if err == nil {
		return "ok"
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		return "invalid"
	}
	return "failed"
}

func startupToastCopy(summary startupSummary) (string, string) {
	if summary.API == "ok" && summary.Auth == "ok" {
		return "success", "Startup checks passed: API and auth are healthy."
	}
	if summary.API != "ok" {
		return "error", fmt.Sprintf("Startup checks failed: API is %s.", summary.API)
	}
	return "warning", fmt.Sprintf("Startup checks: auth=%s. Run bannerdesk login.", summary.Auth)
}

func startupStatusColor(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "ok":
		return string(ColorSuccess)
	case "missing", "timeout":
		return string(ColorWarning)
	case "invalid", "down", "failed":
		return string(ColorError)
	default:
		return string(ColorMuted)
	}
}

func (a App) renderStartupPanel() string {
	rows := []components.TableRow{
		{Label: "API", Value: a.startup.API, ValueColor: startupStatusColor(a.startup.API)},
		{Label: "Auth", Value: a.startup.Auth, ValueColor: startupStatusColor(a.startup.Auth)},
	}
	return components.Table("Startup Checks", rows, a.width)
}

// --- Toasts ---

func (a *App) setToast(level, text string) tea.Cmd {
	a.toast = &appToast{
		level: level,
		text:  components.SanitizeOneLine(text),
	}
	a.toastSeq++
	seq := a.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return clearToastMsg{seq: seq}
	})
}

func (a App) renderToast() string {
	if a.toast == nil {
		return ""
	}
	title := "Info"
	switch a.toast.level {
	case "success":
		title = "Success"
	case "warning":
		title = "Warning"
	case "error":
		return components.ErrorBox("Error", a.toast.text, a.width)
	}
	return components.TitledBox(title, a.toast.text, a.width)
}

// --- Layout ---

func centerBlockUniform(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	maxWidth := 0
	for _, line := range lines {
		if w := lipgloss.Width(line); w > maxWidth {
			maxWidth = w
		}
	}
	if maxWidth <= 0 || maxWidth >= width {
		return s
	}
	pad := (width - maxWidth) / 2
	if pad <= 0 {
		return s
	}
	prefix := strings.Repeat(" ", pad)
	for i := range lines {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func tabIndexForKey(key string) (int, bool) {
	switch key {
	case "1", "2":
		idx := int(key[0] - '1')
		if idx < tabCount {
			return idx, true
		}
	}
	return 0, false
}
