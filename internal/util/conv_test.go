package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	v, ok := ParseFloat(" 85.5 ")
	assert.True(t, ok)
	assert.Equal(t, 85.5, v)

	for _, s := range []string{"", "abc", "NaN", "Inf", "-inf"} {
		_, ok := ParseFloat(s)
		assert.False(t, ok, s)
	}
}

func TestParseInt(t *testing.T) {
	v, ok := ParseInt("3")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok = ParseInt("2.0")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = ParseInt("2.5")
	assert.False(t, ok)
	_, ok = ParseInt("")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-03-05", "2024/03/05", "03/05/2024", "2024-03-05 08:00:00"} {
		d, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, 2024, d.Year(), s)
		assert.Equal(t, time.March, d.Month(), s)
		assert.Equal(t, 5, d.Day(), s)
	}

	_, ok := ParseDate("yesterday")
	assert.False(t, ok)
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("counselor", RoleOperator, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "counselor", claims.Username)
	assert.Equal(t, "counselor", claims.Subject)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateJWT("counselor", RoleOperator, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.Error(t, err)
}

func TestMissingColumnsError(t *testing.T) {
	err := &MissingColumnsError{Columns: []string{"date", "present"}}
	assert.Equal(t, "missing required columns: date, present", err.Error())
	assert.True(t, IsUploadDefect(err))
	assert.True(t, IsUploadDefect(ErrEmptyUpload))
	assert.False(t, IsUploadDefect(ErrNoCohort))
}

func TestHasAllowedExtension(t *testing.T) {
	assert.True(t, HasAllowedExtension("cohort.CSV", AllowedUploadExtensions))
	assert.False(t, HasAllowedExtension("cohort.xlsx", AllowedUploadExtensions))
}
