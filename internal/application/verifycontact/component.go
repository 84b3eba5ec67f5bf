// Package verifycontact implements the flow step that asks a signed-in user
// to verify an unverified email address or phone number.
package verifycontact

import (
	"context"

	"github.com/go-auth-flow/internal/application/flow"
	"github.com/go-auth-flow/internal/domain"
	"github.com/go-auth-flow/internal/ui"
)

// Identity is the name listed in flow.Props.Hide to suppress this step.
const Identity = "VerifyContact"

const (
	msgNothingSelected = "Neither Email nor Phone Number selected"
	msgNothingPending  = "No verification code has been requested"
)

// AuthClient is the authentication backend, bound to the signed-in user.
type AuthClient interface {
	VerifyCurrentUserAttribute(ctx context.Context, attr domain.ContactAttribute) (*domain.AttributeResult, error)
	VerifyCurrentUserAttributeSubmit(ctx context.Context, attr domain.ContactAttribute, code string) (*domain.AttributeResult, error)
}

// Guard admits one outstanding backend call per flow.
type Guard interface {
	// TryAcquire returns domain.ErrBusy while another call is outstanding.
	TryAcquire(ctx context.Context) (release func(), err error)
}

// State is either Selecting or Confirming.
type State interface{ isState() }

// Selecting is the initial state: the user picks which attribute to verify.
type Selecting struct{}

// Confirming waits for the code sent to Attribute.
type Confirming struct {
	Attribute domain.ContactAttribute
}

func (Selecting) isState()  {}
func (Confirming) isState() {}

// StateFor rebuilds a state from a persisted attribute; empty or unknown
// values mean Selecting.
func StateFor(attr domain.ContactAttribute) State {
	if attr.Valid() {
		return Confirming{Attribute: attr}
	}
	return Selecting{}
}

// PendingAttribute returns the attribute awaiting a code, or "".
func PendingAttribute(s State) domain.ContactAttribute {
	if c, ok := s.(Confirming); ok {
		return c.Attribute
	}
	return ""
}

// Actions are the form targets the rendered views post to.
type Actions struct {
	Verify string
	Submit string
	Skip   string
}

// Component is one render/request lifetime of the step.
type Component struct {
	*flow.Piece

	props   flow.Props
	client  AuthClient
	guard   Guard
	actions Actions
	state   State
}

func New(piece *flow.Piece, props flow.Props, client AuthClient, guard Guard, actions Actions, state State) *Component {
	if state == nil {
		state = Selecting{}
	}
	return &Component{
		Piece:   piece,
		props:   props,
		client:  client,
		guard:   guard,
		actions: actions,
		state:   state,
	}
}

// State is the component's current state.
func (c *Component) State() State { return c.state }

// Verify requests a code for the selected attribute. Backend failures are
// reported through Error; the returned error is only non-nil when the
// request could not be attempted (domain.ErrBusy or a guard failure).
func (c *Component) Verify(ctx context.Context) error {
	email, phone := c.Input(string(domain.AttrEmail)), c.Input(string(domain.AttrPhoneNumber))
	if email == "" && phone == "" {
		c.Error(&flow.ValidationError{Message: msgNothingSelected})
		return nil
	}
	attr := domain.AttrPhoneNumber
	if email != "" {
		attr = domain.AttrEmail
	}

	release, err := c.guard.TryAcquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	data, err := c.client.VerifyCurrentUserAttribute(ctx, attr)
	if err != nil {
		c.Error(err)
		return nil
	}
	c.Logger().Debug("verification code requested", "attr", attr, "result", data)
	c.state = Confirming{Attribute: attr}
	return nil
}

// Submit confirms the entered code for the pending attribute and, on
// success, advances the flow to signedIn with the step's auth data.
func (c *Component) Submit(ctx context.Context) error {
	attr := PendingAttribute(c.state)
	if attr == "" {
		c.Error(&flow.ValidationError{Message: msgNothingPending})
		return nil
	}
	code := c.Input("code")

	release, err := c.guard.TryAcquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	data, err := c.client.VerifyCurrentUserAttributeSubmit(ctx, attr, code)
	if err != nil {
		c.Error(err)
		return nil
	}
	c.Logger().Debug("contact verified", "attr", attr, "result", data)
	// The flow stays on this step if the move fails, so the pending
	// attribute is kept for a retry.
	if err := c.ChangeState(ctx, domain.StateSignedIn, c.props.AuthData); err != nil {
		c.Error(err)
		return nil
	}
	c.state = Selecting{}
	return nil
}

// Skip leaves the step without verifying anything.
func (c *Component) Skip(ctx context.Context) error {
	return c.ChangeState(ctx, domain.StateSignedIn, nil)
}

// VerifyView lists one radio row per unverified attribute. It renders
// nothing when there is no user or nothing left to verify.
func (c *Component) VerifyView() *ui.Node {
	user := c.props.AuthData
	if user == nil {
		c.Logger().Debug("no user for verify")
		return nil
	}
	if user.Unverified.IsEmpty() {
		c.Logger().Debug("no unverified on user")
		return nil
	}
	th := c.props.Theme.OrDefault()
	var email, phone *ui.Node
	if user.Unverified.Has(domain.AttrEmail) {
		email = ui.RadioRow(th, string(domain.AttrEmail), c.T("Email"))
	}
	if user.Unverified.Has(domain.AttrPhoneNumber) {
		phone = ui.RadioRow(th, string(domain.AttrPhoneNumber), c.T("Phone Number"))
	}
	return ui.Form(c.actions.Verify,
		email,
		phone,
		ui.ButtonRow(th, c.T("Verify"), c.props.Busy),
	)
}

// SubmitView asks for the code that was sent.
func (c *Component) SubmitView() *ui.Node {
	th := c.props.Theme.OrDefault()
	return ui.Form(c.actions.Submit,
		ui.InputRow(th, "code", c.T("Code")),
		ui.ButtonRow(th, c.T("Submit"), c.props.Busy),
	)
}

// Render returns the whole screen, or nil when the flow is elsewhere or the
// step is hidden.
func (c *Component) Render() *ui.Node {
	if c.props.AuthState != domain.StateVerifyContact {
		return nil
	}
	if c.props.Hidden(Identity) {
		return nil
	}
	th := c.props.Theme.OrDefault()

	body := []*ui.Node{ui.MessageRow(th, c.T("Account recovery requires verified contact information"))}
	for _, msg := range c.Errors() {
		body = append(body, ui.ErrorRow(th, msg))
	}
	if _, ok := c.state.(Confirming); ok {
		body = append(body, c.SubmitView())
	} else {
		body = append(body, c.VerifyView())
	}

	return ui.Section(th,
		ui.Header(th, c.T("Verify Contact")),
		ui.Body(th, body...),
		ui.Footer(th, ui.Link(th, c.actions.Skip, c.T("Skip"))),
	)
}
