package dagbok

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := newError(ErrEmptyInput, "classify", nil)
	assert.Contains(t, err.Error(), "classify")

	wrapped := newError(ErrInit, "initialize classifier", errors.New("no such file"))
	assert.Contains(t, wrapped.Error(), "no such file")
	assert.Equal(t, "no such file", wrapped.Unwrap().Error())
}

func TestIsCode(t *testing.T) {
	err := newError(ErrInference, "forward pass", errors.New("boom"))

	assert.True(t, IsCode(err, ErrInference))
	assert.False(t, IsCode(err, ErrInit))
	assert.False(t, IsCode(nil, ErrInference))
	assert.False(t, IsCode(errors.New("plain"), ErrInference))

	// The code is found through wrapping layers.
	assert.True(t, IsCode(errors.Wrap(err, "outer context"), ErrInference))
}
