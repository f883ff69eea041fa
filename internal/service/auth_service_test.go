package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTPIsSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 6)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9', "otp must be numeric, got %q", otp)
		}
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	a := hashToken("123456")
	b := hashToken("123456")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // sha256 hex

	assert.NotEqual(t, a, hashToken("123457"))
}
