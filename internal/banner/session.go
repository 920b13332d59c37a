package banner

import (
	"context"
	"errors"

	"github.com/gravitrone/bannerdesk/internal/api"
)

var (
	ErrNotOpen      = errors.New("editor is not open")
	ErrSaveInFlight = errors.New("save already in progress")
	ErrNoEntity     = errors.New("no banner to update")
)

// SaveState tracks the single outstanding update a session may have.
type SaveState int

const (
	SaveIdle SaveState = iota
	SavePending
	SaveSucceeded
	SaveFailed
)

func (s SaveState) String() string {
	switch s {
	case SaveIdle:
		return "idle"
	case SavePending:
		return "pending"
	case SaveSucceeded:
		return "succeeded"
	case SaveFailed:
		return "failed"
	}
	return "unknown"
}

// IngestTicket identifies one file conversion started by BeginIngest.
type IngestTicket struct {
	Field  Field
	Source Source

	ctx   context.Context
	epoch uint64
	seq   uint64
}

// SaveTicket identifies one update request started by BeginSave.
type SaveTicket struct {
	ID    string
	Input api.UpdateBannerInput

	ctx      context.Context
	epoch    uint64
	fallback api.Banner
}

// Session is the state of one edit modal: visibility, the draft and the
// save state. Drive it from a single goroutine.
type Session struct {
	open    bool
	entity  *api.Banner
	draft   Draft
	state   SaveState
	err     error
	epoch   uint64
	fileSeq uint64
}

// Open seeds the draft from entity on a closed to open transition. It returns
// false and changes nothing when the session is already open.
func (s *Session) Open(entity *api.Banner) bool {
	if s.open {
		return false
	}
	s.open = true
	s.epoch++
	s.entity = nil
	if entity != nil {
		snapshot := *entity
		s.entity = &snapshot
	}
	s.draft = DraftFrom(entity)
	s.state = SaveIdle
	s.err = nil
	return true
}

// Close hides the modal and clears the draft to its empty shape. Work started
// before Close can no longer touch the session.
func (s *Session) Close() {
	s.open = false
	s.epoch++
	s.draft = Draft{}
	s.state = SaveIdle
	s.err = nil
}

func (s *Session) IsOpen() bool     { return s.open }
func (s *Session) Draft() Draft     { return s.draft }
func (s *Session) State() SaveState { return s.state }
func (s *Session) Err() error       { return s.err }

// Entity returns a copy of the banner being edited, or nil.
func (s *Session) Entity() *api.Banner {
	if s.entity == nil {
		return nil
	}
	b := *s.entity
	return &b
}

// Dirty reports whether the draft differs from the seeded entity.
func (s *Session) Dirty() bool {
	return s.open && s.draft != DraftFrom(s.entity)
}

// SetField updates a single draft field.
func (s *Session) SetField(f Field, value string) error {
	if !s.open {
		return ErrNotOpen
	}
	next, err := s.draft.With(f, value)
	if err != nil {
		return err
	}
	s.draft = next
	return nil
}

// BeginIngest validates src synchronously and hands back a ticket for the
// asynchronous conversion. Oversized files are rejected before any state
// changes.
func (s *Session) BeginIngest(f Field, src Source) (IngestTicket, error) {
	if !s.open {
		return IngestTicket{}, ErrNotOpen
	}
	if _, err := s.draft.Get(f); err != nil {
		return IngestTicket{}, err
	}
	if err := CheckSize(src); err != nil {
		return IngestTicket{}, err
	}
	s.fileSeq++
	return IngestTicket{
		Field:  f,
		Source: src,
		ctx:    context.Background(),
		epoch:  s.epoch,
		seq:    s.fileSeq,
	}, nil
}

// ApplyIngest writes a finished conversion into the draft. Only the most
// recent selection of the current open cycle is applied.
func (s *Session) ApplyIngest(t IngestTicket, value string) bool {
	if !s.isCurrentIngest(t) {
		return false
	}
	next, err := s.draft.With(t.Field, value)
	if err != nil {
		return false
	}
	s.draft = next
	return true
}

func (s *Session) isCurrentIngest(t IngestTicket) bool {
	return s.open && t.epoch == s.epoch && t.seq == s.fileSeq
}

// BeginSave snapshots the draft for one update request and marks the
// session pending.
func (s *Session) BeginSave() (SaveTicket, error) {
	if !s.open {
		return SaveTicket{}, ErrNotOpen
	}
	if s.state == SavePending {
		return SaveTicket{}, ErrSaveInFlight
	}
	if s.entity == nil || s.entity.ID == "" {
		return SaveTicket{}, ErrNoEntity
	}
	s.state = SavePending
	s.err = nil
	return SaveTicket{
		ID:       s.entity.ID,
		Input:    s.draft.Input(),
		ctx:      context.Background(),
		epoch:    s.epoch,
		fallback: s.draft.Apply(*s.entity),
	}, nil
}

// FinishSave records the outcome of t. Success closes the session; failure
// leaves the draft and visibility untouched. It returns false for a ticket
// from an earlier open cycle.
func (s *Session) FinishSave(t SaveTicket, err error) bool {
	if !s.open || t.epoch != s.epoch || s.state != SavePending {
		return false
	}
	if err != nil {
		s.state = SaveFailed
		s.err = err
		return true
	}
	s.state = SaveSucceeded
	s.Close()
	return true
}
