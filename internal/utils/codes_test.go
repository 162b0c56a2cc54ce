package utils

import (
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestNewReferralCode(t *testing.T) {
    code, err := NewReferralCode()
    assert.NoError(t, err)
    assert.Len(t, code, 12)
    assert.Equal(t, strings.ToUpper(code), code)

    other, err := NewReferralCode()
    assert.NoError(t, err)
    assert.NotEqual(t, code, other)
}

func TestNewCouponCode(t *testing.T) {
    code, err := NewCouponCode("WELCOME")
    assert.NoError(t, err)
    assert.True(t, strings.HasPrefix(code, "WELCOME-"))
    assert.Len(t, code, len("WELCOME-")+12)
}
