package domain

// User is the subset of the auth backend's user resource the flow reads.
type User struct {
	UserID         string  `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone"`
	EmailConfirmed bool    `json:"email_confirmed"`
	PhoneConfirmed bool    `json:"phone_confirmed"`
}

// AuthData is the signed-in user snapshot handed between flow steps.
// Unverified is nil when contact verification was never checked.
type AuthData struct {
	UserID     string         `json:"user_id" dynamodbav:"user_id"`
	Username   string         `json:"username" dynamodbav:"username"`
	Verified   *ContactRecord `json:"verified,omitempty" dynamodbav:"verified,omitempty"`
	Unverified *ContactRecord `json:"unverified,omitempty" dynamodbav:"unverified,omitempty"`
}

// NewAuthData splits the user's contact attributes into verified and
// unverified records.
func NewAuthData(u *User) *AuthData {
	d := &AuthData{
		UserID:     u.UserID,
		Username:   u.Username,
		Verified:   &ContactRecord{},
		Unverified: &ContactRecord{},
	}
	if u.Email != "" {
		if u.EmailConfirmed {
			d.Verified.Email = u.Email
		} else {
			d.Unverified.Email = u.Email
		}
	}
	if u.Phone != nil && *u.Phone != "" {
		if u.PhoneConfirmed {
			d.Verified.PhoneNumber = *u.Phone
		} else {
			d.Unverified.PhoneNumber = *u.Phone
		}
	}
	return d
}
