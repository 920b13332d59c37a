package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/gravitrone/bannerdesk/internal/api"
	"github.com/gravitrone/bannerdesk/internal/banner"
	"github.com/gravitrone/bannerdesk/internal/ui/components"
)

// --- Messages ---

type bannerIngestDoneMsg struct {
	editor *banner.Editor
	result banner.IngestResult
}

type bannerSaveDoneMsg struct {
	editor *banner.Editor
	result banner.SaveResult
}

// --- Focus ---

const (
	modalFocusTitle = iota
	modalFocusImage
	modalFocusSubtitle
	modalFocusURL
	modalFocusCancel
	modalFocusSave
	modalFocusCount
)

type modalAlert struct {
	title   string
	message string
}

// --- Edit Modal ---

// BannerEditModal edits one banner's draft and saves it through the editor.
type BannerEditModal struct {
	editor    *banner.Editor
	notifier  *uiNotifier
	page      string
	focus     int
	imagePath string
	ingesting bool
	alert     *modalAlert
	width     int
}

// NewBannerEditModal builds a closed modal that saves through gateway and
// writes successful saves to cache.
func NewBannerEditModal(gateway banner.Gateway, cache banner.Cache, log zerolog.Logger) BannerEditModal {
	notifier := &uiNotifier{}
	return BannerEditModal{
		editor:   banner.NewEditor(gateway, cache, notifier, log),
		notifier: notifier,
	}
}

// Open seeds the modal from b. It is a no-op while the modal is already open.
func (m *BannerEditModal) Open(b api.Banner) bool {
	if !m.editor.Open(&b) {
		return false
	}
	m.page = banner.PageOf(b)
	m.focus = modalFocusTitle
	m.imagePath = ""
	m.ingesting = false
	m.alert = nil
	return true
}

func (m BannerEditModal) IsOpen() bool {
	return m.editor != nil && m.editor.Session().IsOpen()
}

func (m BannerEditModal) Dirty() bool {
	return m.editor != nil && (m.editor.Session().Dirty() || strings.TrimSpace(m.imagePath) != "")
}

// Title is the modal header for the banner's page.
func (m BannerEditModal) Title() string {
	if m.page == api.PageTop {
		return "Edit Banner Top"
	}
	return "Edit Banner Bottom"
}

func (m *BannerEditModal) close() {
	m.editor.Close()
	m.imagePath = ""
	m.ingesting = false
	m.alert = nil
}

func (m BannerEditModal) Update(msg tea.Msg) (BannerEditModal, tea.Cmd) {
	switch msg := msg.(type) {
	case bannerIngestDoneMsg:
		if msg.editor != m.editor {
			return m, nil
		}
		applied, err := m.editor.CompleteIngest(msg.result)
		if err != nil {
			m.ingesting = false
			m.alert = &modalAlert{title: "Image", message: ingestAlertText(err)}
			return m, nil
		}
		if applied {
			m.ingesting = false
			m.imagePath = ""
		}
		return m, nil
	case bannerSaveDoneMsg:
		if msg.editor != m.editor {
			return m, nil
		}
		m.editor.Complete(msg.result)
		if !m.IsOpen() {
			m.imagePath = ""
			m.ingesting = false
		}
		return m, m.notifier.drain()
	case tea.KeyMsg:
		if !m.IsOpen() {
			return m, nil
		}
		if m.alert != nil {
			if isEnter(msg) || isBack(msg) {
				m.alert = nil
			}
			return m, nil
		}
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m BannerEditModal) handleKeys(msg tea.KeyMsg) (BannerEditModal, tea.Cmd) {
	switch {
	case isBack(msg):
		m.close()
		return m, nil
	case isKey(msg, "ctrl+s"):
		return m.save()
	case isDown(msg), isKey(msg, "tab"):
		m.focus = (m.focus + 1) % modalFocusCount
	case isUp(msg), isKey(msg, "shift+tab"):
		m.focus = (m.focus - 1 + modalFocusCount) % modalFocusCount
	case isKey(msg, "left") && m.focus == modalFocusSave:
		m.focus = modalFocusCancel
	case isKey(msg, "right") && m.focus == modalFocusCancel:
		m.focus = modalFocusSave
	case isEnter(msg):
		switch m.focus {
		case modalFocusCancel:
			m.close()
		case modalFocusSave:
			return m.save()
		case modalFocusImage:
			return m.ingest()
		default:
			m.focus++
		}
	case isKey(msg, "backspace", "delete"):
		m.editFocused(func(v string) string { return dropLastRune(v) })
	case isKey(msg, "ctrl+u"):
		m.editFocused(func(string) string { return "" })
	default:
		text := typedText(msg)
		if text != "" {
			m.editFocused(func(v string) string { return v + text })
		}
	}
	return m, nil
}

// editFocused rewrites the focused text input. The image input holds a
// file path; the draft's image only changes through ingestion.
func (m *BannerEditModal) editFocused(edit func(string) string) {
	if m.focus == modalFocusImage {
		m.imagePath = edit(m.imagePath)
		return
	}
	f, ok := m.focusedField()
	if !ok {
		return
	}
	current, _ := m.editor.Session().Draft().Get(f)
	_ = m.editor.SetField(f, edit(current))
}

func (m BannerEditModal) focusedField() (banner.Field, bool) {
	if m.focus < 0 || m.focus >= len(banner.Fields) {
		return "", false
	}
	return banner.Fields[m.focus], true
}

func (m BannerEditModal) ingest() (BannerEditModal, tea.Cmd) {
	path := strings.TrimSpace(m.imagePath)
	if path == "" {
		return m, nil
	}
	src, err := banner.OpenFile(path)
	if err != nil {
		m.alert = &modalAlert{title: "Image", message: ingestAlertText(err)}
		return m, nil
	}
	ticket, err := m.editor.BeginIngest(context.Background(), banner.FieldImage, src)
	if err != nil {
		m.alert = &modalAlert{title: "Image", message: ingestAlertText(err)}
		return m, nil
	}
	m.ingesting = true
	editor := m.editor
	return m, func() tea.Msg {
		return bannerIngestDoneMsg{editor: editor, result: editor.RunIngest(ticket)}
	}
}

func (m BannerEditModal) save() (BannerEditModal, tea.Cmd) {
	ticket, err := m.editor.BeginSave(context.Background())
	if err != nil {
		if errors.Is(err, banner.ErrSaveInFlight) {
			return m, nil
		}
		m.alert = &modalAlert{title: "Save", message: err.Error()}
		return m, nil
	}
	editor := m.editor
	return m, func() tea.Msg {
		return bannerSaveDoneMsg{editor: editor, result: editor.Dispatch(ticket)}
	}
}

func ingestAlertText(err error) string {
	switch {
	case errors.Is(err, banner.ErrFileTooLarge):
		return banner.ErrFileTooLarge.Error()
	case errors.Is(err, banner.ErrUnsupportedImage):
		return "Please choose an image file."
	}
	return fmt.Sprintf("Could not read image: %v", err)
}

// Changes lists fields whose draft value differs from the banner being edited.
func (m BannerEditModal) Changes() []components.DiffRow {
	if !m.IsOpen() {
		return nil
	}
	seed := banner.DraftFrom(m.editor.Session().Entity())
	draft := m.editor.Session().Draft()
	var rows []components.DiffRow
	for _, f := range banner.Fields {
		from, _ := seed.Get(f)
		to, _ := draft.Get(f)
		if from == to {
			continue
		}
		if f == banner.FieldImage {
			from, to = imageSummary(from), imageSummary(to)
		}
		rows = append(rows, components.DiffRow{Label: f.Label(), From: from, To: to})
	}
	return rows
}

// --- View ---

func (m BannerEditModal) View() string {
	if !m.IsOpen() {
		return ""
	}
	if m.alert != nil {
		return components.Indent(components.AlertDialog(m.alert.title, m.alert.message), 1)
	}

	session := m.editor.Session()
	draft := session.Draft()
	var b strings.Builder

	if entity := session.Entity(); entity != nil {
		b.WriteString(components.InfoRow("Banner", entity.ID) + "\n\n")
	}

	for i, f := range banner.Fields {
		focused := i == m.focus
		label := MutedStyle.Render(f.Label() + ":")
		if focused {
			label = SelectedStyle.Render("> " + f.Label() + ":")
		} else {
			label = "  " + label
		}
		b.WriteString(label + "\n")
		if f == banner.FieldImage {
			m.renderImageField(&b, draft.Image, focused)
		} else {
			value, _ := draft.Get(f)
			renderTextField(&b, components.SanitizeOneLine(value), focused)
		}
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderButtons(session.State()))
	if session.State() == banner.SaveFailed && session.Err() != nil {
		b.WriteString("\n\n" + ErrorStyle.Render("Last save failed: "+components.SanitizeOneLine(session.Err().Error())))
	}
	return components.Indent(components.TitledBox(m.Title(), b.String(), m.width), 1)
}

func (m BannerEditModal) renderImageField(b *strings.Builder, current string, focused bool) {
	switch {
	case focused:
		b.WriteString(NormalStyle.Render("  File: " + m.imagePath + AccentStyle.Render("█")))
	case m.imagePath != "":
		b.WriteString(NormalStyle.Render("  File: " + m.imagePath))
	default:
		b.WriteString(MutedStyle.Render("  File: -"))
	}
	b.WriteString("\n")
	preview := imageSummary(current)
	if m.ingesting {
		preview = "Converting..."
	}
	width := components.BoxContentWidth(m.width) - 11
	b.WriteString(MutedStyle.Render("  Current: ") + NormalStyle.Render(components.ClampTextWidthEllipsis(preview, width)))
}

func (m BannerEditModal) renderButtons(state banner.SaveState) string {
	cancel := "[ Cancel ]"
	save := "[ Save ]"
	if state == banner.SavePending {
		save = "[ Saving... ]"
	}
	cancelStyle, saveStyle := MutedStyle, MutedStyle
	switch m.focus {
	case modalFocusCancel:
		cancelStyle = SelectedStyle
	case modalFocusSave:
		saveStyle = SelectedStyle
	}
	return "  " + cancelStyle.Render(cancel) + "  " + saveStyle.Render(save)
}

// imageSummary describes an image value without printing base64 payloads.
func imageSummary(value string) string {
	if value == "" {
		return "-"
	}
	if info, ok := banner.ParseDataURI(value); ok {
		return fmt.Sprintf("%s · %s (embedded)", info.MIME, formatByteSize(int64(info.Bytes)))
	}
	return components.SanitizeOneLine(value)
}

func typedText(msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyRunes:
		return string(msg.Runes)
	case tea.KeySpace:
		return " "
	}
	return ""
}

func dropLastRune(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	return string(runes[:len(runes)-1])
}

func renderTextField(b *strings.Builder, value string, focused bool) {
	if value == "" && !focused {
		b.WriteString(NormalStyle.Render("  -"))
		return
	}
	if focused {
		b.WriteString(NormalStyle.Render("  " + value + AccentStyle.Render("█")))
		return
	}
	b.WriteString(NormalStyle.Render("  " + value))
}

func formatByteSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	kb := float64(size) / 1024
	if kb < 1024 {
		return fmt.Sprintf("%.1f KB", kb)
	}
	return fmt.Sprintf("%.1f MB", kb/1024)
}
