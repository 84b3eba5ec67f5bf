package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestNewAuthData_SplitsContacts(t *testing.T) {
	d := NewAuthData(&User{
		UserID:         "u1",
		Username:       "alice",
		Email:          "a@b.com",
		Phone:          strPtr("+15550100"),
		PhoneConfirmed: true,
	})
	assert.Equal(t, "a@b.com", d.Unverified.Email)
	assert.Empty(t, d.Unverified.PhoneNumber)
	assert.Equal(t, "+15550100", d.Verified.PhoneNumber)
	assert.True(t, d.Unverified.Has(AttrEmail))
	assert.False(t, d.Unverified.Has(AttrPhoneNumber))
}

func TestNewAuthData_AllConfirmed(t *testing.T) {
	d := NewAuthData(&User{UserID: "u1", Email: "a@b.com", EmailConfirmed: true})
	assert.True(t, d.Unverified.IsEmpty())
	assert.False(t, d.Verified.IsEmpty())
}

func TestContactRecord_NilIsEmpty(t *testing.T) {
	var c *ContactRecord
	assert.True(t, c.IsEmpty())
	assert.False(t, c.Has(AttrEmail))
}

func TestContactAttribute_Valid(t *testing.T) {
	assert.True(t, AttrEmail.Valid())
	assert.True(t, AttrPhoneNumber.Valid())
	assert.False(t, ContactAttribute("code").Valid())
	assert.False(t, ContactAttribute("").Valid())
}

func TestFlowSession_Busy(t *testing.T) {
	now := time.Unix(1000, 0)
	s := &FlowSession{BusyOwner: "x", BusyUntil: 1001}
	assert.True(t, s.Busy(now))
	assert.False(t, s.Busy(time.Unix(1001, 0)))
	s.BusyOwner = ""
	assert.False(t, s.Busy(now))
}
