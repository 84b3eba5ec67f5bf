// Package authflow drives the authentication flow for one session: it loads
// the persisted screen, builds the active step, runs its actions and stores
// the result.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-auth-flow/internal/application/flow"
	"github.com/go-auth-flow/internal/application/verifycontact"
	"github.com/go-auth-flow/internal/domain"
	"github.com/go-auth-flow/internal/pkg/i18n"
	"github.com/go-auth-flow/internal/pkg/id"
	"github.com/go-auth-flow/internal/pkg/validate"
	"github.com/go-auth-flow/internal/ui"
)

// Step actions accepted by Act.
const (
	ActionVerify = "verify"
	ActionSubmit = "submit"
	ActionSkip   = "skip"
)

const msgBusy = "A request is already in progress"

// FlowStore persists flow sessions.
type FlowStore interface {
	Get(ctx context.Context, sessionID string) (*domain.FlowSession, error)
	Put(ctx context.Context, s *domain.FlowSession) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	TryAcquire(ctx context.Context, sessionID, owner string, ttl time.Duration) error
	Release(ctx context.Context, sessionID, owner string) error
}

// UserClient is the auth backend acting as the signed-in user.
type UserClient interface {
	verifycontact.AuthClient
	VerifiedContact(ctx context.Context, userID string) (*domain.AuthData, error)
}

// ClientFactory binds the auth backend to a bearer token.
type ClientFactory func(bearer string) UserClient

// Identity is who is driving the flow, taken from the verified access token.
type Identity struct {
	SessionID string
	UserID    string
	Bearer    string
}

// Options configure every step the service builds.
type Options struct {
	SessionTTL time.Duration
	BusyTTL    time.Duration
	Hide       []string
	Theme      *ui.Theme
	Actions    verifycontact.Actions
}

// Screen is the outcome of a render or an action.
type Screen struct {
	Session *domain.FlowSession
	// Root is nil when the active screen has nothing to show.
	Root   *ui.Node
	Errors []string
}

type Service struct {
	store   FlowStore
	clients ClientFactory
	opts    Options
	log     *slog.Logger
	now     func() time.Time
}

func NewService(store FlowStore, clients ClientFactory, opts Options, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, clients: clients, opts: opts, log: log, now: time.Now}
}

// Load returns the session's flow state, starting the flow when there is
// none yet. A new flow lands on verifyContact only if the user has an
// unverified contact attribute; otherwise it is already signedIn.
func (s *Service) Load(ctx context.Context, who Identity) (*domain.FlowSession, error) {
	sess, err := s.store.Get(ctx, who.SessionID)
	if err == nil {
		if sess.UserID != who.UserID {
			return nil, fmt.Errorf("flow session belongs to another user: %w", domain.ErrForbidden)
		}
		if err := validate.Struct(sess); err != nil {
			return nil, fmt.Errorf("stored flow session %s: %v", who.SessionID, err)
		}
		return sess, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.start(ctx, who)
}

func (s *Service) start(ctx context.Context, who Identity) (*domain.FlowSession, error) {
	data, err := s.clients(who.Bearer).VerifiedContact(ctx, who.UserID)
	if err != nil {
		return nil, fmt.Errorf("check contact: %w", err)
	}
	state := domain.StateSignedIn
	if !data.Unverified.IsEmpty() {
		state = domain.StateVerifyContact
	}
	now := s.now().UTC()
	sess := &domain.FlowSession{
		SessionID: who.SessionID,
		UserID:    who.UserID,
		AuthState: state,
		AuthData:  data,
		ExpiresAt: now.Add(s.opts.SessionTTL).Unix(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info("flow started", "session_id", sess.SessionID, "user_id", sess.UserID, "auth_state", state)
	return sess, nil
}

// Render builds the current screen without running any action.
func (s *Service) Render(ctx context.Context, who Identity, tr *i18n.Translator) (*Screen, error) {
	sess, err := s.Load(ctx, who)
	if err != nil {
		return nil, err
	}
	c := s.component(who, sess, tr)
	return &Screen{Session: sess, Root: c.Render(), Errors: c.Errors()}, nil
}

// Act feeds form into the active step and runs action. When the step
// refuses because an earlier action is still outstanding the screen is
// still returned together with an error wrapping domain.ErrBusy.
func (s *Service) Act(ctx context.Context, who Identity, tr *i18n.Translator, action string, form map[string]string) (*Screen, error) {
	sess, err := s.Load(ctx, who)
	if err != nil {
		return nil, err
	}
	if sess.AuthState != domain.StateVerifyContact {
		return nil, fmt.Errorf("no %s action in state %s: %w", action, sess.AuthState, domain.ErrConflict)
	}
	if slices.Contains(s.opts.Hide, verifycontact.Identity) {
		return nil, fmt.Errorf("%s is hidden: %w", verifycontact.Identity, domain.ErrConflict)
	}

	c := s.component(who, sess, tr)
	for k, v := range form {
		c.HandleInputChange(k, v)
	}
	before := verifycontact.PendingAttribute(c.State())

	switch action {
	case ActionVerify:
		err = c.Verify(ctx)
	case ActionSubmit:
		err = c.Submit(ctx)
	case ActionSkip:
		err = c.Skip(ctx)
	default:
		return nil, fmt.Errorf("unknown action %q: %w", action, domain.ErrBadRequest)
	}
	if err != nil && !errors.Is(err, domain.ErrBusy) {
		return nil, err
	}
	if errors.Is(err, domain.ErrBusy) {
		c.Error(&flow.ValidationError{Message: msgBusy})
		return &Screen{Session: sess, Root: c.Render(), Errors: c.Errors()}, err
	}

	if after := verifycontact.PendingAttribute(c.State()); after != before {
		if err := s.savePending(ctx, sess, after); err != nil {
			return nil, err
		}
	}
	screen := &Screen{Session: sess, Errors: c.Errors()}
	// A step that moved the flow on no longer owns the screen.
	if sess.AuthState == domain.StateVerifyContact {
		screen.Root = c.Render()
	}
	return screen, nil
}

func (s *Service) savePending(ctx context.Context, sess *domain.FlowSession, attr domain.ContactAttribute) error {
	var v interface{}
	if attr != "" {
		v = string(attr)
	}
	if err := s.store.Update(ctx, sess.SessionID, map[string]interface{}{domain.FieldVerifyAttr: v}); err != nil {
		return fmt.Errorf("save pending attribute: %w", err)
	}
	sess.VerifyAttr = attr
	return nil
}

func (s *Service) component(who Identity, sess *domain.FlowSession, tr *i18n.Translator) *verifycontact.Component {
	log := s.log.With("component", verifycontact.Identity, "session_id", sess.SessionID)
	piece := flow.NewPiece(&controller{store: s.store, sess: sess, log: log}, tr, log)
	props := flow.Props{
		AuthState: sess.AuthState,
		AuthData:  sess.AuthData,
		Theme:     s.opts.Theme,
		Hide:      s.opts.Hide,
		Busy:      sess.Busy(s.now()),
	}
	g := &guard{store: s.store, sessionID: sess.SessionID, ttl: s.opts.BusyTTL, log: log}
	return verifycontact.New(piece, props, s.clients(who.Bearer), g, s.opts.Actions, verifycontact.StateFor(sess.VerifyAttr))
}

// controller persists screen changes requested by a step.
type controller struct {
	store FlowStore
	sess  *domain.FlowSession
	log   *slog.Logger
}

func (c *controller) ChangeState(ctx context.Context, next domain.AuthState, data *domain.AuthData) error {
	updates := map[string]interface{}{domain.FieldAuthState: string(next)}
	if data != nil {
		updates[domain.FieldAuthData] = data
	}
	if err := c.store.Update(ctx, c.sess.SessionID, updates); err != nil {
		return fmt.Errorf("change flow state: %w", err)
	}
	c.log.Info("flow state changed", "from", c.sess.AuthState, "to", next)
	c.sess.AuthState = next
	if data != nil {
		c.sess.AuthData = data
	}
	return nil
}

// guard holds the session's busy mark for the duration of one backend call.
type guard struct {
	store     FlowStore
	sessionID string
	ttl       time.Duration
	log       *slog.Logger
}

func (g *guard) TryAcquire(ctx context.Context) (func(), error) {
	owner := id.New()
	if err := g.store.TryAcquire(ctx, g.sessionID, owner, g.ttl); err != nil {
		return nil, err
	}
	return func() {
		if err := g.store.Release(context.WithoutCancel(ctx), g.sessionID, owner); err != nil {
			g.log.Warn("failed to release busy mark", "err", err)
		}
	}, nil
}
