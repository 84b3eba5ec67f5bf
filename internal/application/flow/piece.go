// Package flow provides the capability every authentication-flow step is
// composed with: an input buffer, error reporting, and a handle on the flow
// controller that decides which screen is active.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/go-auth-flow/internal/domain"
	"github.com/go-auth-flow/internal/pkg/i18n"
	"github.com/go-auth-flow/internal/ui"
)

// Controller moves the flow to another screen. data is nil when the
// transition carries no payload.
type Controller interface {
	ChangeState(ctx context.Context, next domain.AuthState, data *domain.AuthData) error
}

// ValidationError is a local, user-facing error raised before any network
// call. Its message is a translation key.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// msgUnexpected replaces errors whose text is not meant for the user.
const msgUnexpected = "Something went wrong, please try again"

// userFacing is implemented by errors that carry a message written for the
// user, such as a rejection from the auth backend.
type userFacing interface {
	UserFacing() bool
}

// publicSentinels are domain errors whose wrapped text may be shown.
var publicSentinels = []error{
	domain.ErrBadRequest,
	domain.ErrUnauthorized,
	domain.ErrForbidden,
	domain.ErrNotFound,
	domain.ErrConflict,
	domain.ErrBusy,
}

// displayMessage returns the text to display for err: a translated validation
// message, the error text when it is meant for the user, or a generic
// translated message otherwise.
func displayMessage(tr *i18n.Translator, err error) (msg string, internal bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return tr.Get(ve.Message), false
	}
	var uf userFacing
	if errors.As(err, &uf) && uf.UserFacing() {
		return err.Error(), false
	}
	for _, s := range publicSentinels {
		if errors.Is(err, s) {
			return err.Error(), false
		}
	}
	return tr.Get(msgUnexpected), true
}

// Props is what the parent flow hands a step on each render.
type Props struct {
	AuthState domain.AuthState
	AuthData  *domain.AuthData
	Theme     *ui.Theme
	Hide      []string
	// Busy is true while an earlier action on this flow is still outstanding.
	Busy bool
}

// Hidden reports whether the component identity is listed in Hide.
func (p Props) Hidden(identity string) bool {
	return slices.Contains(p.Hide, identity)
}

// Piece is the shared step behavior. The zero value is not usable; build it
// with NewPiece.
type Piece struct {
	ctrl   Controller
	tr     *i18n.Translator
	log    *slog.Logger
	inputs map[string]string
	errs   []string
}

func NewPiece(ctrl Controller, tr *i18n.Translator, log *slog.Logger) *Piece {
	if log == nil {
		log = slog.Default()
	}
	return &Piece{ctrl: ctrl, tr: tr, log: log, inputs: make(map[string]string)}
}

// HandleInputChange records a form field edit. An empty value clears the field.
func (p *Piece) HandleInputChange(name, value string) {
	if value == "" {
		delete(p.inputs, name)
		return
	}
	p.inputs[name] = value
}

// Inputs returns the current form buffer. Callers must not modify it.
func (p *Piece) Inputs() map[string]string { return p.inputs }

// Input returns one field of the form buffer.
func (p *Piece) Input(name string) string { return p.inputs[name] }

// Error surfaces err to the user. Validation messages are translated;
// infrastructure failures are replaced by a generic message and logged.
func (p *Piece) Error(err error) {
	if err == nil {
		return
	}
	msg, internal := displayMessage(p.tr, err)
	if internal {
		p.log.Warn("flow step failed", "err", err)
	} else {
		p.log.Debug("flow step error", "err", err)
	}
	p.errs = append(p.errs, msg)
}

// Errors returns the messages recorded by Error, oldest first.
func (p *Piece) Errors() []string { return p.errs }

// ChangeState asks the controller to move the flow to next.
func (p *Piece) ChangeState(ctx context.Context, next domain.AuthState, data *domain.AuthData) error {
	p.log.Debug("change state", "next", next)
	return p.ctrl.ChangeState(ctx, next, data)
}

// T translates a display key.
func (p *Piece) T(key string) string { return p.tr.Get(key) }

// Logger is the step's debug sink.
func (p *Piece) Logger() *slog.Logger { return p.log }
