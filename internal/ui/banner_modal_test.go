package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/bannerdesk/internal/api"
	"github.com/gravitrone/bannerdesk/internal/banner"
)

type stubGateway struct {
	calls  atomic.Int32
	got    api.UpdateBannerInput
	result *api.UpdateBannerResult
	err    error
}

func (g *stubGateway) UpdateBanner(_ context.Context, _ string, input api.UpdateBannerInput) (*api.UpdateBannerResult, error) {
	g.calls.Add(1)
	g.got = input
	if g.err != nil {
		return nil, g.err
	}
	if g.result != nil {
		return g.result, nil
	}
	return &api.UpdateBannerResult{}, nil
}

var testPNGHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func testBanner() api.Banner {
	return api.Banner{
		ID:       "b1",
		Title:    "Sale",
		Subtitle: "Today",
		Image:    "https://cdn/a.png",
		URL:      "https://shop",
		Page:     api.PageTop,
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func pngFile(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	copy(data, testPNGHeader)
	return writeTestFile(t, "banner.png", data)
}

func openModal(t *testing.T, gw banner.Gateway) (BannerEditModal, *banner.Store) {
	t.Helper()
	store := banner.NewStore()
	store.Replace([]api.Banner{testBanner()})
	m := NewBannerEditModal(gw, store, zerolog.Nop())
	require.True(t, m.Open(testBanner()))
	return m, store
}

func TestBannerEditModalTitleFollowsPage(t *testing.T) {
	m := NewBannerEditModal(&stubGateway{}, nil, zerolog.Nop())
	require.True(t, m.Open(testBanner()))
	assert.Equal(t, "Edit Banner Top", m.Title())
	assert.Contains(t, m.View(), "Edit Banner Top")
	m.close()

	bottom := testBanner()
	bottom.Page = api.PageBottom
	require.True(t, m.Open(bottom))
	assert.Equal(t, "Edit Banner Bottom", m.Title())
	m.close()

	unpaged := testBanner()
	unpaged.Page = ""
	require.True(t, m.Open(unpaged))
	assert.Equal(t, "Edit Banner Top", m.Title())
}

func TestBannerEditModalOpenWhileOpenIsNoop(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	other := testBanner()
	other.ID = "b2"
	assert.False(t, m.Open(other))
	assert.Equal(t, "b1", m.editor.Session().Entity().ID)
}

func TestBannerEditModalTypingEditsOnlyFocusedField(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})

	m, _ = m.Update(runes("!"))
	assert.Equal(t, "Sale!", m.editor.Session().Draft().Title)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "Sal", m.editor.Session().Draft().Title)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, modalFocusSubtitle, m.focus)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m, _ = m.Update(runes("only"))

	draft := m.editor.Session().Draft()
	assert.Equal(t, "Sal", draft.Title)
	assert.Equal(t, "Today only", draft.Subtitle)
	assert.Equal(t, "https://cdn/a.png", draft.Image)
	assert.Equal(t, "https://shop", draft.URL)
	assert.True(t, m.Dirty())
}

func TestBannerEditModalCtrlUClearsField(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Equal(t, "", m.editor.Session().Draft().Title)
}

func TestBannerEditModalFocusWraps(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, modalFocusSave, m.focus)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, modalFocusCancel, m.focus)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, modalFocusSave, m.focus)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, modalFocusTitle, m.focus)
}

func TestBannerEditModalEnterAdvancesFromTextField(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, modalFocusImage, m.focus)
}

func TestBannerEditModalEscClearsDraft(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	m, _ = m.Update(runes("xyz"))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.IsOpen())
	assert.True(t, m.editor.Session().Draft().IsZero())
	assert.Equal(t, "", m.View())
}

func TestBannerEditModalEnterOnCancelCloses(t *testing.T) {
	gw := &stubGateway{}
	m, _ := openModal(t, gw)
	m.focus = modalFocusCancel

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.IsOpen())
	assert.Equal(t, int32(0), gw.calls.Load())
}

func TestBannerEditModalSaveSuccess(t *testing.T) {
	gw := &stubGateway{}
	m, store := openModal(t, gw)
	m, _ = m.Update(runes("!"))

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.Equal(t, banner.SavePending, m.editor.Session().State())
	assert.Contains(t, m.View(), "Saving...")

	// A second save while pending is ignored.
	m, again := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, again)

	msg := cmd()
	done, ok := msg.(bannerSaveDoneMsg)
	require.True(t, ok)
	m, cmd = m.Update(done)
	require.NotNil(t, cmd)

	toast, ok := cmd().(toastMsg)
	require.True(t, ok)
	assert.Equal(t, "success", toast.level)
	assert.Equal(t, banner.DefaultSuccessMessage, toast.text)

	assert.False(t, m.IsOpen())
	assert.Equal(t, int32(1), gw.calls.Load())
	assert.Equal(t, "Sale!", gw.got.Title)
	assert.Equal(t, "Today", gw.got.Subtitle)

	saved, ok := store.Get("b1")
	require.True(t, ok)
	assert.Equal(t, "Sale!", saved.Title)
	assert.Equal(t, api.PageTop, saved.Page)
}

func TestBannerEditModalSaveUsesServerMessage(t *testing.T) {
	gw := &stubGateway{result: &api.UpdateBannerResult{Message: "Saved!"}}
	m, _ := openModal(t, gw)
	m.focus = modalFocusSave

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, cmd = m.Update(cmd())
	require.NotNil(t, cmd)
	assert.Equal(t, toastMsg{level: "success", text: "Saved!"}, cmd())
}

func TestBannerEditModalSaveFailureKeepsDraft(t *testing.T) {
	gw := &stubGateway{err: &api.Error{Status: 500, Message: "boom"}}
	m, store := openModal(t, gw)
	m, _ = m.Update(runes("!"))

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	m, cmd = m.Update(cmd())
	require.NotNil(t, cmd)
	assert.Equal(t, toastMsg{level: "error", text: banner.GatewayErrorMessage}, cmd())

	assert.True(t, m.IsOpen())
	assert.Equal(t, banner.SaveFailed, m.editor.Session().State())
	assert.Equal(t, "Sale!", m.editor.Session().Draft().Title)
	assert.Contains(t, m.View(), "Last save failed: boom")

	stored, _ := store.Get("b1")
	assert.Equal(t, "Sale", stored.Title)

	// The draft can be retried after a failure.
	gw.err = nil
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.False(t, m.IsOpen())
	assert.Equal(t, int32(2), gw.calls.Load())
}

func TestBannerEditModalUnexpectedFailureToast(t *testing.T) {
	gw := &stubGateway{err: errors.Join(api.ErrMalformedResponse, errors.New("bad json"))}
	m, _ := openModal(t, gw)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	_, cmd = m.Update(cmd())
	require.NotNil(t, cmd)
	assert.Equal(t, toastMsg{level: "error", text: banner.UnexpectedErrorMessage}, cmd())
}

func TestBannerEditModalIgnoresOtherEditorsResults(t *testing.T) {
	gwA := &stubGateway{}
	a, _ := openModal(t, gwA)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	msg := cmd()

	b, _ := openModal(t, &stubGateway{})
	b, out := b.Update(msg)
	assert.Nil(t, out)
	assert.True(t, b.IsOpen())
	assert.Equal(t, banner.SaveIdle, b.editor.Session().State())
}

func TestBannerEditModalSaveAfterCloseIsDiscarded(t *testing.T) {
	gw := &stubGateway{}
	m, store := openModal(t, gw)
	m, _ = m.Update(runes("!"))

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.IsOpen())

	m, out := m.Update(cmd())
	assert.Nil(t, out)
	stored, _ := store.Get("b1")
	assert.Equal(t, "Sale", stored.Title)
}

func TestBannerEditModalIngestsImage(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	path := pngFile(t, 128)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, modalFocusImage, m.focus)
	m, _ = m.Update(runes(path))
	assert.Equal(t, path, m.imagePath)
	assert.Equal(t, "https://cdn/a.png", m.editor.Session().Draft().Image)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.ingesting)
	assert.Contains(t, m.View(), "Converting...")

	m, _ = m.Update(cmd())
	assert.False(t, m.ingesting)
	assert.Equal(t, "", m.imagePath)
	assert.True(t, strings.HasPrefix(m.editor.Session().Draft().Image, "data:image/png;base64,"))
	assert.Contains(t, m.View(), "image/png · 128 B (embedded)")

	changes := m.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, "https://cdn/a.png", changes[0].From)
	assert.Equal(t, "image/png · 128 B (embedded)", changes[0].To)
}

func TestBannerEditModalOversizeImageAlerts(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	path := pngFile(t, int(banner.MaxImageBytes)+1)

	m.focus = modalFocusImage
	m, _ = m.Update(runes(path))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	require.NotNil(t, m.alert)
	assert.Equal(t, "file size must be less than 5MB", m.alert.message)
	assert.Contains(t, m.View(), "file size must be less than 5MB")
	assert.Equal(t, "https://cdn/a.png", m.editor.Session().Draft().Image)

	// The alert blocks editing until it is dismissed.
	m, _ = m.Update(runes("x"))
	assert.Equal(t, path, m.imagePath)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.alert)
	assert.True(t, m.IsOpen())
}

func TestBannerEditModalExactLimitImageAccepted(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	path := pngFile(t, int(banner.MaxImageBytes))

	m.focus = modalFocusImage
	m, _ = m.Update(runes(path))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Nil(t, m.alert)
	assert.True(t, strings.HasPrefix(m.editor.Session().Draft().Image, "data:image/png;base64,"))
}

func TestBannerEditModalNonImageAlerts(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	path := writeTestFile(t, "notes.txt", []byte("just some text\n"))

	m.focus = modalFocusImage
	m, _ = m.Update(runes(path))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	require.NotNil(t, m.alert)
	assert.Equal(t, "Please choose an image file.", m.alert.message)
	assert.Equal(t, "https://cdn/a.png", m.editor.Session().Draft().Image)
}

func TestBannerEditModalMissingFileAlerts(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	m.focus = modalFocusImage
	m, _ = m.Update(runes(filepath.Join(t.TempDir(), "nope.png")))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	require.NotNil(t, m.alert)
	assert.Contains(t, m.alert.message, "Could not read image")
}

func TestBannerEditModalEmptyPathEnterIsNoop(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	m.focus = modalFocusImage
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Nil(t, m.alert)
}

func TestBannerEditModalNewerIngestWins(t *testing.T) {
	m, _ := openModal(t, &stubGateway{})
	first := pngFile(t, 64)
	second := pngFile(t, 256)

	m.focus = modalFocusImage
	m, _ = m.Update(runes(first))
	m, firstCmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, firstCmd)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	m, _ = m.Update(runes(second))
	m, secondCmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, secondCmd)

	m, _ = m.Update(secondCmd())
	m, _ = m.Update(firstCmd())

	info, ok := banner.ParseDataURI(m.editor.Session().Draft().Image)
	require.True(t, ok)
	assert.Equal(t, 256, info.Bytes)
}

func TestImageSummary(t *testing.T) {
	assert.Equal(t, "-", imageSummary(""))
	assert.Equal(t, "https://cdn/a.png", imageSummary("https://cdn/a.png"))
	assert.Equal(t, "image/png · 3 B (embedded)", imageSummary("data:image/png;base64,AAAA"))
}

func TestFormatByteSize(t *testing.T) {
	assert.Equal(t, "512 B", formatByteSize(512))
	assert.Equal(t, "1.5 KB", formatByteSize(1536))
	assert.Equal(t, "5.0 MB", formatByteSize(banner.MaxImageBytes))
}
