package banner

import (
	"context"
	"errors"
	"fmt"

	stackerr "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gravitrone/bannerdesk/internal/api"
)

const (
	DefaultSuccessMessage  = "Banner updated successfully!"
	GatewayErrorMessage    = "Error updating banner."
	UnexpectedErrorMessage = "Unexpected error occurred."
)

// ErrGatewayPanic wraps a panic recovered from a gateway call.
var ErrGatewayPanic = errors.New("gateway panicked")

// Gateway persists a banner update.
type Gateway interface {
	UpdateBanner(ctx context.Context, id string, input api.UpdateBannerInput) (*api.UpdateBannerResult, error)
}

// Cache receives banners after a successful save so other views stay in sync.
type Cache interface {
	UpdateInState(b api.Banner)
}

// Notifier surfaces save outcomes to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Outcome is what Complete did with a save result.
type Outcome int

const (
	OutcomeStale Outcome = iota
	OutcomeSaved
	OutcomeFailed
)

// IngestResult carries a finished file conversion back to the event loop.
type IngestResult struct {
	Ticket IngestTicket
	Value  string
	Err    error
}

// SaveResult carries a finished update request back to the event loop.
type SaveResult struct {
	Ticket SaveTicket
	Result *api.UpdateBannerResult
	Err    error
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// Editor runs an edit Session against its collaborators. Begin*/Complete*
// and the session accessors belong to the event loop; Dispatch and RunIngest
// may run on any goroutine.
type Editor struct {
	session  Session
	gateway  Gateway
	cache    Cache
	notifier Notifier
	log      zerolog.Logger

	cancelSave   context.CancelFunc
	cancelIngest context.CancelFunc
}

// NewEditor wires an editor. A nil notifier discards notifications and a nil
// cache skips propagation.
func NewEditor(gateway Gateway, cache Cache, notifier Notifier, log zerolog.Logger) *Editor {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Editor{
		gateway:  gateway,
		cache:    cache,
		notifier: notifier,
		log:      log,
	}
}

// Session exposes the underlying session state.
func (e *Editor) Session() *Session {
	return &e.session
}

// Open seeds the draft from entity when the editor was closed.
func (e *Editor) Open(entity *api.Banner) bool {
	opened := e.session.Open(entity)
	if opened {
		ev := e.log.Debug()
		if entity != nil {
			ev = ev.Str("banner_id", entity.ID)
		}
		ev.Msg("edit session opened")
	}
	return opened
}

// Close cancels in-flight work and clears the draft.
func (e *Editor) Close() {
	e.cancelPending()
	e.session.Close()
}

func (e *Editor) cancelPending() {
	if e.cancelSave != nil {
		e.cancelSave()
		e.cancelSave = nil
	}
	if e.cancelIngest != nil {
		e.cancelIngest()
		e.cancelIngest = nil
	}
}

// SetField updates one draft field.
func (e *Editor) SetField(f Field, value string) error {
	return e.session.SetField(f, value)
}

// --- Ingest ---

// BeginIngest checks the file size and returns a ticket for RunIngest. A
// newer selection cancels the previous conversion.
func (e *Editor) BeginIngest(ctx context.Context, f Field, src Source) (IngestTicket, error) {
	t, err := e.session.BeginIngest(f, src)
	if err != nil {
		ev := e.log.Warn().Err(err).Str("field", string(f))
		if src != nil {
			ev = ev.Str("file", src.Name()).Int64("size", src.Size())
		}
		ev.Msg("image rejected")
		return IngestTicket{}, err
	}
	if e.cancelIngest != nil {
		e.cancelIngest()
	}
	t.ctx, e.cancelIngest = context.WithCancel(ctx)
	return t, nil
}

// RunIngest converts the ticket's file into a data URI.
func (e *Editor) RunIngest(t IngestTicket) IngestResult {
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	value, err := EncodeDataURI(ctx, t.Source)
	return IngestResult{Ticket: t, Value: value, Err: err}
}

// CompleteIngest applies a conversion result. It reports whether the draft
// changed; stale results are dropped without error.
func (e *Editor) CompleteIngest(r IngestResult) (bool, error) {
	if !e.session.isCurrentIngest(r.Ticket) {
		e.log.Debug().Str("field", string(r.Ticket.Field)).Msg("stale image conversion discarded")
		return false, nil
	}
	if e.cancelIngest != nil {
		e.cancelIngest()
		e.cancelIngest = nil
	}
	if r.Err != nil {
		e.log.Warn().Err(r.Err).Str("field", string(r.Ticket.Field)).Msg("image conversion failed")
		return false, r.Err
	}
	return e.session.ApplyIngest(r.Ticket, r.Value), nil
}

// Ingest runs a full conversion synchronously.
func (e *Editor) Ingest(ctx context.Context, f Field, src Source) error {
	t, err := e.BeginIngest(ctx, f, src)
	if err != nil {
		return err
	}
	_, err = e.CompleteIngest(e.RunIngest(t))
	return err
}

// --- Save ---

// BeginSave marks the session pending and returns a ticket for Dispatch.
func (e *Editor) BeginSave(ctx context.Context) (SaveTicket, error) {
	t, err := e.session.BeginSave()
	if err != nil {
		e.log.Debug().Err(err).Msg("save refused")
		return SaveTicket{}, err
	}
	t.ctx, e.cancelSave = context.WithCancel(ctx)
	return t, nil
}

// Dispatch issues exactly one update request for t. Panics in the gateway
// are returned as errors wrapping ErrGatewayPanic.
func (e *Editor) Dispatch(t SaveTicket) (r SaveResult) {
	r.Ticket = t
	defer func() {
		if p := recover(); p != nil {
			r.Result = nil
			r.Err = stackerr.WithStack(fmt.Errorf("%w: %v", ErrGatewayPanic, p))
		}
	}()
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	r.Result, r.Err = e.gateway.UpdateBanner(ctx, t.ID, t.Input)
	return r
}

// Complete applies a save result: on success it notifies, updates the cache
// and closes; on failure it notifies and leaves the session open.
func (e *Editor) Complete(r SaveResult) Outcome {
	if !e.session.open || r.Ticket.epoch != e.session.epoch {
		e.log.Debug().Str("banner_id", r.Ticket.ID).Msg("stale save result discarded")
		return OutcomeStale
	}
	if e.cancelSave != nil {
		e.cancelSave()
		e.cancelSave = nil
	}

	err := r.Err
	if err == nil && r.Result == nil {
		err = stackerr.WithStack(fmt.Errorf("update banner %s: %w: empty result", r.Ticket.ID, api.ErrMalformedResponse))
	}
	if err != nil {
		if !e.session.FinishSave(r.Ticket, err) {
			return OutcomeStale
		}
		e.reportFailure(r.Ticket, err)
		return OutcomeFailed
	}

	updated := r.Ticket.fallback
	if r.Result.Banner != nil {
		updated = *r.Result.Banner
		if updated.ID == "" {
			updated.ID = r.Ticket.ID
		}
		if updated.Page == "" {
			updated.Page = r.Ticket.fallback.Page
		}
	}
	if !e.session.FinishSave(r.Ticket, nil) {
		return OutcomeStale
	}
	e.cancelPending()

	message := r.Result.Message
	if message == "" {
		message = DefaultSuccessMessage
	}
	e.notifier.Success(message)
	if e.cache != nil {
		e.cache.UpdateInState(updated)
	}
	e.log.Info().Str("banner_id", updated.ID).Msg("banner updated")
	return OutcomeSaved
}

func (e *Editor) reportFailure(t SaveTicket, err error) {
	var apiErr *api.Error
	requestID := ""
	if errors.As(err, &apiErr) {
		requestID = apiErr.RequestID
	}
	if IsUnexpected(err) {
		e.notifier.Error(UnexpectedErrorMessage)
		e.log.Error().Stack().Err(err).
			Str("kind", "unexpected").
			Str("banner_id", t.ID).
			Msg("Error in save")
		return
	}
	e.notifier.Error(GatewayErrorMessage)
	e.log.Error().Err(err).
		Str("kind", "gateway").
		Str("banner_id", t.ID).
		Str("request_id", requestID).
		Msg("Error updating banner")
}

// IsUnexpected reports whether err came from something other than the
// server refusing the update or the transport failing.
func IsUnexpected(err error) bool {
	return errors.Is(err, api.ErrMalformedResponse) || errors.Is(err, ErrGatewayPanic)
}

// Save runs BeginSave, Dispatch and Complete synchronously.
func (e *Editor) Save(ctx context.Context) error {
	t, err := e.BeginSave(ctx)
	if err != nil {
		return err
	}
	r := e.Dispatch(t)
	switch e.Complete(r) {
	case OutcomeSaved:
		return nil
	case OutcomeFailed:
		return e.session.Err()
	}
	return fmt.Errorf("save of %s was superseded", t.ID)
}
