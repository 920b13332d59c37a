// Package banner holds the banner editing core: the draft, the edit session
// state machine, image ingestion and the shared banner store.
package banner

import (
	"errors"
	"fmt"

	"github.com/gravitrone/bannerdesk/internal/api"
)

// ErrUnknownField is returned when a field name is not part of the draft.
var ErrUnknownField = errors.New("unknown banner field")

// Field names one editable banner attribute.
type Field string

const (
	FieldTitle    Field = "title"
	FieldImage    Field = "image"
	FieldSubtitle Field = "subtitle"
	FieldURL      Field = "url"
)

// Fields lists the editable fields in form order.
var Fields = []Field{FieldTitle, FieldImage, FieldSubtitle, FieldURL}

// Label returns the form label for a field.
func (f Field) Label() string {
	switch f {
	case FieldTitle:
		return "Title"
	case FieldImage:
		return "Image"
	case FieldSubtitle:
		return "Sub Title"
	case FieldURL:
		return "URL"
	}
	return string(f)
}

// ParseField maps a field name to a Field.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Draft is the in-memory copy of a banner's editable fields.
type Draft struct {
	Title    string `json:"title"`
	Image    string `json:"image"`
	URL      string `json:"url"`
	Subtitle string `json:"subtitle"`
}

// DraftFrom seeds a draft from a banner. A nil banner yields an empty draft.
func DraftFrom(b *api.Banner) Draft {
	if b == nil {
		return Draft{}
	}
	return Draft{
		Title:    b.Title,
		Image:    b.Image,
		URL:      b.URL,
		Subtitle: b.Subtitle,
	}
}

// Get returns the value stored at f.
func (d Draft) Get(f Field) (string, error) {
	switch f {
	case FieldTitle:
		return d.Title, nil
	case FieldImage:
		return d.Image, nil
	case FieldSubtitle:
		return d.Subtitle, nil
	case FieldURL:
		return d.URL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, f)
}

// With returns a copy of d with only f replaced.
func (d Draft) With(f Field, value string) (Draft, error) {
	switch f {
	case FieldTitle:
		d.Title = value
	case FieldImage:
		d.Image = value
	case FieldSubtitle:
		d.Subtitle = value
	case FieldURL:
		d.URL = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return d, nil
}

// IsZero reports whether every field is empty.
func (d Draft) IsZero() bool {
	return d == Draft{}
}

// Input converts the draft into the update payload.
func (d Draft) Input() api.UpdateBannerInput {
	return api.UpdateBannerInput{
		Title:    d.Title,
		Image:    d.Image,
		URL:      d.URL,
		Subtitle: d.Subtitle,
	}
}

// Apply returns b with the draft's fields written over it.
func (d Draft) Apply(b api.Banner) api.Banner {
	b.Title = d.Title
	b.Image = d.Image
	b.URL = d.URL
	b.Subtitle = d.Subtitle
	return b
}
