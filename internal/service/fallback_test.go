package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFallback_RemoteSuccess(t *testing.T) {
	called := false
	result, fellBack, err := WithFallback(context.Background(),
		func(ctx context.Context) (int, error) { return 42, nil },
		func(err error) int { called = true; return -1 },
		AnyFailure,
	)
	require.NoError(t, err)
	assert.False(t, fellBack)
	assert.Equal(t, 42, result)
	assert.False(t, called)
}

func TestWithFallback_UsesFallbackOnFailure(t *testing.T) {
	remoteErr := &RemoteError{Kind: FailureStatus, Err: errors.New("boom")}

	var seen error
	result, fellBack, err := WithFallback(context.Background(),
		func(ctx context.Context) (string, error) { return "", remoteErr },
		func(err error) string { seen = err; return "fallback" },
		nil,
	)
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.Equal(t, "fallback", result)
	assert.Equal(t, FailureStatus, FailureKindOf(seen))
}

func TestWithFallback_ClassifierRejects(t *testing.T) {
	onlyNetwork := func(err error) bool { return FailureKindOf(err) == FailureNetwork }

	_, fellBack, err := WithFallback(context.Background(),
		func(ctx context.Context) (int, error) {
			return 0, &RemoteError{Kind: FailureMalformed, Err: errors.New("bad json")}
		},
		func(err error) int { return 1 },
		onlyNetwork,
	)
	assert.Error(t, err)
	assert.False(t, fellBack)
}

func TestFailureKindOf(t *testing.T) {
	wrapped := fmt.Errorf("call: %w", &RemoteError{Kind: FailureRemote, Err: errors.New("no")})
	assert.Equal(t, FailureRemote, FailureKindOf(wrapped))
	assert.Equal(t, FailureNetwork, FailureKindOf(errors.New("plain")))
}
