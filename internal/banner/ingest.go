package banner

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes is the largest image accepted for upload (5 MiB, inclusive).
const MaxImageBytes int64 = 5 * 1024 * 1024

var (
	ErrFileTooLarge     = errors.New("file size must be less than 5MB")
	ErrUnsupportedImage = errors.New("file is not a supported image")
)

// Source is a user-selected file.
type Source interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type fileSource struct {
	path string
	size int64
}

// OpenFile stats a local file and returns it as a Source.
func OpenFile(path string) (Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("image path is required")
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("image path %s is a directory", path)
	}
	return fileSource{path: path, size: info.Size()}, nil
}

func (f fileSource) Name() string                 { return filepath.Base(f.path) }
func (f fileSource) Size() int64                  { return f.size }
func (f fileSource) Open() (io.ReadCloser, error) { return os.Open(f.path) }

// CheckSize rejects sources larger than MaxImageBytes.
func CheckSize(src Source) error {
	if src == nil {
		return fmt.Errorf("no file selected")
	}
	if src.Size() > MaxImageBytes {
		return ErrFileTooLarge
	}
	return nil
}

// EncodeDataURI reads src and returns it as a base64 data URI suitable for
// direct use as an image source.
func EncodeDataURI(ctx context.Context, src Source) (string, error) {
	if err := CheckSize(src); err != nil {
		return "", err
	}
	rc, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer rc.Close()

	// The file may have grown since it was stat'ed.
	data, err := io.ReadAll(io.LimitReader(rc, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > MaxImageBytes {
		return "", ErrFileTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mime.String())
	}

	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mime.String()) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mime.String())
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String(), nil
}

// DataURIInfo describes an embedded image for previews.
type DataURIInfo struct {
	MIME  string
	Bytes int
}

// ParseDataURI extracts the MIME type and decoded size of a base64 data URI.
// ok is false for anything else, such as a plain URL.
func ParseDataURI(value string) (DataURIInfo, bool) {
	rest, found := strings.CutPrefix(value, "data:")
	if !found {
		return DataURIInfo{}, false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return DataURIInfo{}, false
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return DataURIInfo{MIME: mime, Bytes: len(payload)}, true
	}
	return DataURIInfo{MIME: mime, Bytes: base64.StdEncoding.DecodedLen(len(payload)) - padding(payload)}, true
}

func padding(payload string) int {
	switch {
	case strings.HasSuffix(payload, "=="):
		return 2
	case strings.HasSuffix(payload, "="):
		return 1
	}
	return 0
}
