package factory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := newError(CodeFactoryPaused, "factory is paused; create_instance is not allowed")

	assert.True(t, errors.Is(err, ErrFactoryPaused))
	assert.False(t, errors.Is(err, ErrFactoryStopped))

	wrapped := fmt.Errorf("unit aborted: %w", err)
	assert.True(t, errors.Is(wrapped, ErrFactoryPaused))
	assert.Equal(t, CodeFactoryPaused, CodeOf(wrapped))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: no instance", newError(CodeNotFound, "no instance").Error())

	withToken := &Error{Code: CodeUnknownCorrelation, Message: "no pending instantiation for token", Token: 7}
	assert.Equal(t, "UNKNOWN_CORRELATION: no pending instantiation for token (token=7)", withToken.Error())
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(&Error{Code: CodeDuplicateAddress, Fatal: true}))
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", ErrDuplicateAddress)))
	assert.False(t, IsFatal(ErrMalformedChildReply))
	assert.False(t, IsFatal(errors.New("plain")))
}

func TestCodeOf_NonFactoryError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("disk full")))
	assert.Equal(t, Code(""), CodeOf(nil))
}
