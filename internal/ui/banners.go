package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/gravitrone/bannerdesk/internal/api"
	"github.com/gravitrone/bannerdesk/internal/banner"
	"github.com/gravitrone/bannerdesk/internal/ui/components"
)

// --- Messages ---

type bannersLoadedMsg struct{ items []api.Banner }

// --- Views ---

type bannersView int

const (
	bannersViewList bannersView = iota
	bannersViewDetail
)

// --- Banners Model ---

// BannersModel lists the banners of one page and hosts the edit modal.
type BannersModel struct {
	client    *api.Client
	store     *banner.Store
	log       zerolog.Logger
	page      string
	title     string
	items     []api.Banner
	list      *components.List
	loading   bool
	view      bannersView
	detail    *api.Banner
	filtering bool
	searchBuf string
	errText   string
	seen      uint64
	modal     BannerEditModal
	width     int
	height    int
}

// NewBannersModel builds the list for page backed by the shared store.
func NewBannersModel(client *api.Client, store *banner.Store, page string, log zerolog.Logger) BannersModel {
	title := "Bottom Banners"
	if page == api.PageTop {
		title = "Top Banners"
	}
	var gateway banner.Gateway
	if client != nil {
		gateway = client
	}
	return BannersModel{
		client: client,
		store:  store,
		log:    log,
		page:   page,
		title:  title,
		list:   components.NewList(12),
		view:   bannersViewList,
		modal:  NewBannerEditModal(gateway, store, log.With().Str("page", page).Logger()),
	}
}

func (m BannersModel) Init() tea.Cmd {
	if m.client == nil {
		return nil
	}
	return m.loadBanners()
}

func (m BannersModel) Update(msg tea.Msg) (BannersModel, tea.Cmd) {
	m.sync()
	switch msg := msg.(type) {
	case bannersLoadedMsg:
		m.loading = false
		m.errText = ""
		m.store.Replace(msg.items)
		m.sync()
		return m, nil
	case errMsg:
		m.loading = false
		m.errText = msg.err.Error()
		return m, nil
	case bannerIngestDoneMsg, bannerSaveDoneMsg:
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Update(msg)
		m.sync()
		return m, cmd
	case tea.KeyMsg:
		if m.modal.IsOpen() {
			var cmd tea.Cmd
			m.modal, cmd = m.modal.Update(msg)
			return m, cmd
		}
		if m.view == bannersViewDetail {
			return m.handleDetailKeys(msg)
		}
		if m.filtering {
			return m.handleFilterKeys(msg)
		}
		return m.handleListKeys(msg)
	}
	return m, nil
}

func (m BannersModel) View() string {
	if m.modal.IsOpen() {
		m.modal.width = m.width
		return m.modal.View()
	}
	var body string
	switch m.view {
	case bannersViewDetail:
		body = m.renderDetail()
	default:
		body = m.renderList()
		if m.filtering {
			body = components.InputDialog("Filter banners", m.searchBuf) + "\n\n" + body
		}
	}
	if m.errText != "" {
		body += "\n\n" + ErrorStyle.Render(components.SanitizeOneLine(m.errText))
	}
	return components.Indent(body, 1)
}

// editing reports whether a modal is open with unsaved changes.
func (m BannersModel) editing() bool {
	return m.modal.IsOpen() && m.modal.Dirty()
}

// busy reports whether the model is consuming keys the app would otherwise
// treat as global.
func (m BannersModel) busy() bool {
	return m.modal.IsOpen() || m.filtering
}

// --- Store Sync ---

// sync refreshes the visible rows when the shared store has changed.
func (m *BannersModel) sync() {
	if m.store == nil || m.store.Version() == m.seen {
		return
	}
	m.seen = m.store.Version()
	m.list.ReplaceItems(m.filterItems())
	if m.detail != nil {
		if b, ok := m.store.Get(m.detail.ID); ok {
			m.detail = &b
		}
	}
}

// applySearch refilters after the query changed and moves the cursor to the top.
func (m *BannersModel) applySearch() {
	m.list.SetItems(m.filterItems())
}

// filterItems narrows the page's banners to the query and returns their labels.
func (m *BannersModel) filterItems() []string {
	all := m.store.ListByPage(m.page)
	query := strings.ToLower(strings.TrimSpace(m.searchBuf))
	if query == "" {
		m.items = all
	} else {
		filtered := make([]api.Banner, 0, len(all))
		for _, b := range all {
			hay := strings.ToLower(strings.Join([]string{b.Title, b.Subtitle, b.URL, b.ID}, " "))
			if strings.Contains(hay, query) {
				filtered = append(filtered, b)
			}
		}
		m.items = filtered
	}
	labels := make([]string, len(m.items))
	for i, b := range m.items {
		labels[i] = formatBannerLine(b)
	}
	return labels
}

func (m BannersModel) selected() (api.Banner, bool) {
	idx := m.list.Selected()
	if idx < 0 || idx >= len(m.items) {
		return api.Banner{}, false
	}
	return m.items[idx], true
}

// openEditor is the trigger: it opens the modal seeded with b.
func (m BannersModel) openEditor(b api.Banner) (BannersModel, tea.Cmd) {
	if m.client == nil {
		return m, nil
	}
	if m.modal.Open(b) {
		m.log.Debug().Str("banner_id", b.ID).Msg("edit modal opened")
	}
	return m, nil
}

// --- List View ---

func (m BannersModel) handleListKeys(msg tea.KeyMsg) (BannersModel, tea.Cmd) {
	switch {
	case isDown(msg):
		m.list.Down()
	case isUp(msg):
		m.list.Up()
	case isEnter(msg), isSpace(msg):
		if b, ok := m.selected(); ok {
			m.detail = &b
			m.view = bannersViewDetail
		}
	case isKey(msg, "e"):
		if b, ok := m.selected(); ok {
			return m.openEditor(b)
		}
	case isKey(msg, "r"):
		m.loading = true
		m.errText = ""
		return m, m.loadBanners()
	case isKey(msg, "f"):
		m.filtering = true
	case isBack(msg):
		if m.searchBuf != "" {
			m.searchBuf = ""
			m.applySearch()
		}
	}
	return m, nil
}

func (m BannersModel) handleFilterKeys(msg tea.KeyMsg) (BannersModel, tea.Cmd) {
	switch {
	case isEnter(msg):
		m.filtering = false
	case isBack(msg):
		m.filtering = false
		m.searchBuf = ""
		m.applySearch()
	case isKey(msg, "backspace", "delete"):
		if m.searchBuf != "" {
			m.searchBuf = dropLastRune(m.searchBuf)
			m.applySearch()
		}
	case isKey(msg, "ctrl+u"):
		m.searchBuf = ""
		m.applySearch()
	default:
		if text := typedText(msg); text != "" {
			if text == " " && m.searchBuf == "" {
				return m, nil
			}
			m.searchBuf += text
			m.applySearch()
		}
	}
	return m, nil
}

func (m BannersModel) renderList() string {
	if m.loading && len(m.items) == 0 {
		return "  " + MutedStyle.Render("Loading banners...")
	}
	if len(m.items) == 0 {
		message := "No banners found."
		if m.searchBuf != "" {
			message = fmt.Sprintf("No banners match %q.", m.searchBuf)
		}
		return components.EmptyStateBox(
			m.title,
			message,
			[]string{"Press r to reload", "Press f to filter"},
			m.width,
		)
	}

	contentWidth := components.BoxContentWidth(m.width)
	previewWidth := preferredPreviewWidth(contentWidth)

	gap := 3
	tableWidth := contentWidth
	sideBySide := contentWidth >= 110
	if sideBySide {
		tableWidth = contentWidth - previewWidth - gap
		if tableWidth < 60 {
			sideBySide = false
			tableWidth = contentWidth
		}
	}

	sepWidth := 1
	if b := lipgloss.RoundedBorder().Left; b != "" {
		sepWidth = lipgloss.Width(b)
	}

	// 3 columns -> 2 separators.
	availableCols := tableWidth - (2 * sepWidth)
	if availableCols < 30 {
		availableCols = 30
	}
	imageWidth := 10
	atWidth := 11
	titleWidth := availableCols - (imageWidth + atWidth)
	if titleWidth < 12 {
		titleWidth = 12
	}
	cols := []components.TableColumn{
		{Header: "Title", Width: titleWidth, Align: lipgloss.Left},
		{Header: "Image", Width: imageWidth, Align: lipgloss.Left},
		{Header: "At", Width: atWidth, Align: lipgloss.Left},
	}

	visible := m.list.Visible()
	rows := make([][]string, 0, len(visible))
	activeRowRel := -1
	for i := range visible {
		absIdx := m.list.RelToAbs(i)
		if absIdx < 0 || absIdx >= len(m.items) {
			continue
		}
		b := m.items[absIdx]
		if m.list.IsSelected(absIdx) {
			activeRowRel = len(rows)
		}
		at := "-"
		if ts := bannerTimestamp(b); !ts.IsZero() {
			at = ts.Format("01-02 15:04")
		}
		rows = append(rows, []string{
			components.ClampTextWidthEllipsis(bannerDisplayTitle(b), titleWidth),
			imageKind(b.Image),
			at,
		})
	}

	countLine := fmt.Sprintf("%d total", len(m.items))
	if m.loading {
		countLine += " · reloading"
	}
	if m.filtering || strings.TrimSpace(m.searchBuf) != "" {
		countLine = fmt.Sprintf("%s · filter: %s", countLine, m.searchBuf)
	}

	table := components.TableGridWithActiveRow(cols, rows, tableWidth, activeRowRel)
	preview := ""
	if b, ok := m.selected(); ok {
		preview = renderPreviewBox(m.renderBannerPreview(b, previewBoxContentWidth(previewWidth)), previewWidth)
	}

	body := table
	if sideBySide && preview != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, table, strings.Repeat(" ", gap), preview)
	} else if preview != "" {
		body = table + "\n\n" + preview
	}

	content := MutedStyle.Render(countLine) + "\n\n" + body + "\n"
	return components.TitledBox(m.title, content, m.width)
}

func (m BannersModel) renderBannerPreview(b api.Banner, width int) string {
	if width <= 0 {
		return ""
	}
	var lines []string
	lines = append(lines, MetaKeyStyle.Render("Selected"))
	for _, part := range wrapPreviewText(bannerDisplayTitle(b), width) {
		lines = append(lines, SelectedStyle.Render(part))
	}
	lines = append(lines, "")
	if b.Subtitle != "" {
		lines = append(lines, renderPreviewRow("Sub", b.Subtitle, width))
	}
	lines = append(lines, renderPreviewRow("Image", imageSummary(b.Image), width))
	if b.URL != "" {
		lines = append(lines, renderPreviewRow("URL", b.URL, width))
	}
	lines = append(lines, renderPreviewRow("ID", b.ID, width))
	return padPreviewLines(lines, width)
}

// --- Detail View ---

func (m BannersModel) handleDetailKeys(msg tea.KeyMsg) (BannersModel, tea.Cmd) {
	switch {
	case isBack(msg):
		m.detail = nil
		m.view = bannersViewList
	case isKey(msg, "e"):
		if m.detail != nil {
			return m.openEditor(*m.detail)
		}
	}
	return m, nil
}

func (m BannersModel) renderDetail() string {
	if m.detail == nil {
		return m.renderList()
	}
	b := m.detail
	rows := []components.TableRow{
		{Label: "ID", Value: b.ID},
		{Label: "Title", Value: b.Title},
		{Label: "Sub Title", Value: b.Subtitle},
		{Label: "Image", Value: imageSummary(b.Image)},
		{Label: "URL", Value: b.URL},
		{Label: "Page", Value: banner.PageOf(*b)},
	}
	if !b.CreatedAt.IsZero() {
		rows = append(rows, components.TableRow{Label: "Created", Value: b.CreatedAt.Format("2006-01-02 15:04")})
	}
	if !b.UpdatedAt.IsZero() {
		rows = append(rows, components.TableRow{Label: "Updated", Value: b.UpdatedAt.Format("2006-01-02 15:04")})
	}
	return components.Table("Banner", rows, m.width)
}

// --- Data ---

func (m BannersModel) loadBanners() tea.Cmd {
	client := m.client
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		items, err := client.ListBanners(context.Background(), "")
		if err != nil {
			return errMsg{err}
		}
		return bannersLoadedMsg{items}
	}
}

func formatBannerLine(b api.Banner) string {
	segments := []string{bannerDisplayTitle(b)}
	if b.Subtitle != "" {
		segments = append(segments, components.SanitizeOneLine(b.Subtitle))
	}
	segments = append(segments, imageKind(b.Image))
	return strings.Join(segments, " · ")
}

func bannerDisplayTitle(b api.Banner) string {
	title := components.SanitizeOneLine(b.Title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

func bannerTimestamp(b api.Banner) time.Time {
	if !b.UpdatedAt.IsZero() {
		return b.UpdatedAt
	}
	return b.CreatedAt
}

func imageKind(value string) string {
	switch {
	case value == "":
		return "-"
	case strings.HasPrefix(value, "data:"):
		return "embedded"
	}
	return "url"
}
