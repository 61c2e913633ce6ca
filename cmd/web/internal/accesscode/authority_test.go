package accesscode

import (
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func fixedCode(code string) func() (string, error) {
	return func() (string, error) { return code, nil }
}

func TestGenerateCode_RangeAndFormat(t *testing.T) {
	t.Parallel()

	for i := 0; i < 2000; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Regexp(t, sixDigits, code)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}

func TestAuthority_IssueSetsExpiry(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	a := NewAuthority(clock, 0)

	cred, err := a.Issue()
	require.NoError(t, err)
	require.Regexp(t, sixDigits, cred.Code)
	require.Equal(t, clock.Now(), cred.IssuedAt)
	require.Equal(t, clock.Now().Add(24*time.Hour), cred.ExpiresAt)

	state := a.Current()
	require.True(t, state.IsActive)
	require.Equal(t, cred.Code, state.Code)
	require.Equal(t, cred.ExpiresAt, state.ExpiresAt)
}

func TestAuthority_CurrentEmpty(t *testing.T) {
	t.Parallel()

	a := NewAuthority(clockwork.NewFakeClock(), time.Hour)
	state := a.Current()
	require.False(t, state.IsActive)
	require.Empty(t, state.Code)
	require.True(t, state.ExpiresAt.IsZero())
}

func TestAuthority_ReissueInvalidatesPreviousCode(t *testing.T) {
	t.Parallel()

	a := NewAuthority(clockwork.NewFakeClock(), time.Hour)

	a.generate = fixedCode("111111")
	_, err := a.Issue()
	require.NoError(t, err)

	a.generate = fixedCode("222222")
	_, err = a.Issue()
	require.NoError(t, err)

	require.ErrorIs(t, a.Validate("111111"), ErrMismatch)
	require.NoError(t, a.Validate("222222"))
}

func TestAuthority_ValidateMalformed(t *testing.T) {
	t.Parallel()

	a := NewAuthority(clockwork.NewFakeClock(), time.Hour)
	a.generate = fixedCode("123456")
	_, err := a.Issue()
	require.NoError(t, err)

	cases := []string{"", "12345", "1234567", "12a456", " 23456", "１２３４５６", "-12345"}
	for _, in := range cases {
		require.ErrorIs(t, a.Validate(in), ErrMalformedCode, "input %q", in)
	}
}

func TestAuthority_ValidateMalformedTakesPrecedenceOverEmptySlot(t *testing.T) {
	t.Parallel()

	a := NewAuthority(clockwork.NewFakeClock(), time.Hour)
	require.ErrorIs(t, a.Validate("abc"), ErrMalformedCode)
	require.ErrorIs(t, a.Validate("123456"), ErrNoActiveCode)
}

func TestAuthority_ValidateExpiredClearsSlot(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	a := NewAuthority(clock, time.Hour)
	a.generate = fixedCode("654321")
	_, err := a.Issue()
	require.NoError(t, err)

	// Exactly at expiry the code is still valid; only now > expiry expires it.
	clock.Advance(time.Hour)
	require.NoError(t, a.Validate("654321"))

	clock.Advance(time.Millisecond)
	require.ErrorIs(t, a.Validate("654321"), ErrExpired)
	require.False(t, a.Current().IsActive)

	// Once cleared, the slot reports no active code rather than expired.
	require.ErrorIs(t, a.Validate("654321"), ErrNoActiveCode)
}

func TestAuthority_CurrentExpiresLazily(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	a := NewAuthority(clock, time.Minute)
	_, err := a.Issue()
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	require.False(t, a.Current().IsActive)
	require.ErrorIs(t, a.Validate("123456"), ErrNoActiveCode)
}

func TestAuthority_RevokeIsIdempotent(t *testing.T) {
	t.Parallel()

	a := NewAuthority(clockwork.NewFakeClock(), time.Hour)
	a.generate = fixedCode("777777")
	_, err := a.Issue()
	require.NoError(t, err)

	a.Revoke()
	a.Revoke()

	require.ErrorIs(t, a.Validate("777777"), ErrNoActiveCode)
	require.ErrorIs(t, a.Validate("000000"), ErrNoActiveCode)
	require.False(t, a.Current().IsActive)
}

func TestAuthority_EndToEndScenario(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	a := NewAuthority(clock, 24*time.Hour)
	a.generate = fixedCode("482913")

	cred, err := a.Issue()
	require.NoError(t, err)
	require.Equal(t, "482913", cred.Code)
	require.Equal(t, clock.Now().Add(24*time.Hour), cred.ExpiresAt)

	require.NoError(t, a.Validate("482913"))
	require.ErrorIs(t, a.Validate("000000"), ErrMismatch)

	clock.Advance(24*time.Hour + time.Second)
	require.ErrorIs(t, a.Validate("482913"), ErrExpired)
	require.False(t, a.Current().IsActive)
}

func TestReasonOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, ReasonNone, ReasonOf(nil))
	require.Equal(t, ReasonMalformed, ReasonOf(ErrMalformedCode))
	require.Equal(t, ReasonNoActiveCode, ReasonOf(ErrNoActiveCode))
	require.Equal(t, ReasonExpired, ReasonOf(ErrExpired))
	require.Equal(t, ReasonMismatch, ReasonOf(ErrMismatch))
	require.True(t, ReasonMalformed.IsClientError())
	require.False(t, ReasonMismatch.IsClientError())

	for _, r := range []Reason{ReasonNone, ReasonMalformed, ReasonNoActiveCode, ReasonExpired, ReasonMismatch, ReasonUnknown} {
		require.NotEmpty(t, r.Message())
	}
}
