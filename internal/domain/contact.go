package domain

// ContactAttribute names a user profile field that can be verified.
type ContactAttribute string

const (
	AttrEmail       ContactAttribute = "email"
	AttrPhoneNumber ContactAttribute = "phone_number"
)

// Valid reports whether a is one of the two known contact attributes.
func (a ContactAttribute) Valid() bool {
	return a == AttrEmail || a == AttrPhoneNumber
}

func (a ContactAttribute) String() string { return string(a) }

// ContactRecord lists contact values keyed by attribute. An empty field means
// the attribute is absent from the record.
type ContactRecord struct {
	Email       string `json:"email,omitempty" dynamodbav:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty" dynamodbav:"phone_number,omitempty"`
}

// IsEmpty reports whether neither attribute is present.
func (c *ContactRecord) IsEmpty() bool {
	return c == nil || (c.Email == "" && c.PhoneNumber == "")
}

// Has reports whether attr is present in the record.
func (c *ContactRecord) Has(attr ContactAttribute) bool {
	if c == nil {
		return false
	}
	switch attr {
	case AttrEmail:
		return c.Email != ""
	case AttrPhoneNumber:
		return c.PhoneNumber != ""
	}
	return false
}

// AttributeResult is what the auth backend returns for a verification call.
// Only used for debug logging.
type AttributeResult struct {
	Message string `json:"message,omitempty"`
}
