package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/bannerdesk/internal/api"
	"github.com/gravitrone/bannerdesk/internal/banner"
	"github.com/gravitrone/bannerdesk/internal/config"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// loggedIn points the saved config at a test server running handler.
func loggedIn(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	require.NoError(t, (&config.Config{APIKey: "tok_test", BaseURL: srv.URL}).Save())
}

func runBanners(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := BannersCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeImage(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	copy(data, pngHeader)
	path := filepath.Join(t.TempDir(), "banner.png")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func storedBanner() api.Banner {
	return api.Banner{
		ID:       "b1",
		Title:    "Sale",
		Subtitle: "Today",
		Image:    "https://cdn/a.png",
		URL:      "https://shop",
		Page:     api.PageBottom,
	}
}

// editServer serves GET for b1 and records every PUT body.
func editServer(t *testing.T, status int, puts *atomic.Int32, got *api.UpdateBannerInput) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/banners/b1":
			_ = json.NewEncoder(w).Encode(map[string]any{"banner": storedBanner()})
		case r.Method == http.MethodPut && r.URL.Path == "/api/banners/update/b1":
			puts.Add(1)
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
			w.WriteHeader(status)
			if status >= 400 {
				_, _ = w.Write([]byte(`{"message":"boom"}`))
				return
			}
			_, _ = w.Write([]byte(`{"message":"Banner saved"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestBannersListNotLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, _, err := runBanners(t, "list")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestBannersListFiltersByPage(t *testing.T) {
	var gotPage string
	loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok_test", r.Header.Get("Authorization"))
		gotPage = r.URL.Query().Get("page")
		_ = json.NewEncoder(w).Encode(map[string]any{"banners": []api.Banner{storedBanner(), {ID: "b2"}}})
	})

	out, _, err := runBanners(t, "list", "--page", "bottom")
	require.NoError(t, err)
	assert.Equal(t, api.PageBottom, gotPage)
	assert.Contains(t, out, "b1")
	assert.Contains(t, out, "Sale")
	assert.Contains(t, out, "(untitled)")
}

func TestBannersListEmpty(t *testing.T) {
	loggedIn(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"banners":[]}`))
	})

	out, _, err := runBanners(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no banners found")
}

func TestBannersListRejectsUnknownPage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, _, err := runBanners(t, "list", "--page", "middle")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown page")
}

func TestBannersShowSummarizesEmbeddedImage(t *testing.T) {
	loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/banners/b1", r.URL.Path)
		b := storedBanner()
		b.Image = "data:image/png;base64,AAAA"
		_ = json.NewEncoder(w).Encode(map[string]any{"banner": b})
	})

	out, _, err := runBanners(t, "show", "b1")
	require.NoError(t, err)
	assert.Contains(t, out, "title:     Sale")
	assert.Contains(t, out, "page:      bannerBottom")
	assert.Contains(t, out, "image/png, 3 bytes (embedded)")
	assert.NotContains(t, out, "AAAA")
}

func TestBannersShowRequiresID(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, _, err := runBanners(t, "show")
	assert.Error(t, err)
}

func TestBannersEditRequiresAChange(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, _, err := runBanners(t, "edit", "b1")
	assert.ErrorIs(t, err, ErrNothingToChange)
}

func TestBannersEditSendsMergedPayload(t *testing.T) {
	var puts atomic.Int32
	var got api.UpdateBannerInput
	loggedIn(t, editServer(t, http.StatusOK, &puts, &got))

	out, _, err := runBanners(t, "edit", "b1", "--title", "Big Sale", "--url", "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), puts.Load())
	assert.Equal(t, api.UpdateBannerInput{
		Title:    "Big Sale",
		Image:    "https://cdn/a.png",
		URL:      "",
		Subtitle: "Today",
	}, got)
	assert.Contains(t, out, "Banner saved")
}

func TestBannersEditEmbedsImage(t *testing.T) {
	var puts atomic.Int32
	var got api.UpdateBannerInput
	loggedIn(t, editServer(t, http.StatusOK, &puts, &got))

	path := writeImage(t, 64)
	_, _, err := runBanners(t, "edit", "b1", "--image", path)
	require.NoError(t, err)
	assert.Equal(t, int32(1), puts.Load())
	assert.True(t, strings.HasPrefix(got.Image, "data:image/png;base64,"))
	assert.Equal(t, "Sale", got.Title)
}

func TestBannersEditOversizeImageNeverSaves(t *testing.T) {
	var puts atomic.Int32
	var got api.UpdateBannerInput
	loggedIn(t, editServer(t, http.StatusOK, &puts, &got))

	path := writeImage(t, int(banner.MaxImageBytes)+1)
	_, _, err := runBanners(t, "edit", "b1", "--image", path)
	assert.ErrorIs(t, err, banner.ErrFileTooLarge)
	assert.Equal(t, int32(0), puts.Load())
}

func TestBannersEditFailureReportsOnStderr(t *testing.T) {
	var puts atomic.Int32
	var got api.UpdateBannerInput
	loggedIn(t, editServer(t, http.StatusInternalServerError, &puts, &got))

	out, errOut, err := runBanners(t, "edit", "b1", "--subtitle", "Tomorrow")
	require.Error(t, err)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, errOut, banner.GatewayErrorMessage)
	assert.NotContains(t, out, banner.DefaultSuccessMessage)
	assert.Equal(t, int32(1), puts.Load())
}

func TestBannersEditUnknownBanner(t *testing.T) {
	var puts atomic.Int32
	var got api.UpdateBannerInput
	loggedIn(t, editServer(t, http.StatusOK, &puts, &got))

	_, _, err := runBanners(t, "edit", "missing", "--title", "x")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "get banner")
	assert.Equal(t, int32(0), puts.Load())
}
