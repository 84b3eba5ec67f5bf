package domain

import "time"

// AuthState names a screen of the authentication flow.
type AuthState string

const (
	StateSignIn        AuthState = "signIn"
	StateVerifyContact AuthState = "verifyContact"
	StateSignedIn      AuthState = "signedIn"
)

// FlowSession attribute names accepted by flow-store updates.
const (
	FieldAuthState  = "auth_state"
	FieldVerifyAttr = "verify_attr"
	FieldAuthData   = "auth_data"
)

// FlowSession is the persisted flow state for one auth session.
// PK: session_id. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type FlowSession struct {
	SessionID  string           `json:"id" dynamodbav:"session_id"`
	UserID     string           `json:"user_id" dynamodbav:"user_id"`
	AuthState  AuthState        `json:"auth_state" dynamodbav:"auth_state"`
	VerifyAttr ContactAttribute `json:"verify_attr,omitempty" dynamodbav:"verify_attr,omitempty" validate:"omitempty,oneof=email phone_number"`
	AuthData   *AuthData        `json:"auth_data,omitempty" dynamodbav:"auth_data,omitempty"`
	BusyOwner  string           `json:"-" dynamodbav:"busy_owner,omitempty"`
	BusyUntil  int64            `json:"-" dynamodbav:"busy_until,omitempty"`
	ExpiresAt  int64            `json:"-" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt  time.Time        `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time        `json:"updated" dynamodbav:"updated_at"`
}

// Busy reports whether an action on this session is outstanding at now.
func (s *FlowSession) Busy(now time.Time) bool {
	return s.BusyOwner != "" && s.BusyUntil > now.Unix()
}
