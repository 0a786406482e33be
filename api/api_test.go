package api

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnHandleEquality(t *testing.T) {
	h1 := NewConnHandle()
	h2 := NewConnHandle()
	copied := h1

	assert.Equal(t, h1, copied)
	assert.NotEqual(t, h1, h2)
	assert.False(t, h1.IsZero())
	assert.True(t, ConnHandle{}.IsZero())
	assert.Equal(t, "conn-invalid", ConnHandle{}.String())

	m := map[ConnHandle]int{h1: 1}
	assert.Equal(t, 1, m[copied])
}

func TestValidation(t *testing.T) {
	for _, p := range []int{0, -1, 65536} {
		err := ValidatePort(p)
		require.Error(t, err, p)
		assert.True(t, IsConfigurationError(err))
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	}
	assert.NoError(t, ValidatePort(1))
	assert.NoError(t, ValidatePort(65535))

	assert.Error(t, ValidateThreads(0))
	assert.NoError(t, ValidateThreads(1))

	assert.NoError(t, ValidatePath(""))
	assert.NoError(t, ValidatePath("kurento"))
	assert.Error(t, ValidatePath("kurento?x=1"))

	assert.True(t, IsConfigurationError(ValidateWriteTimeout(0)))
	assert.NoError(t, ValidateWriteTimeout(DefaultWriteTimeout))
	assert.True(t, IsConfigurationError(ValidateReadLimit(-1)))
	assert.NoError(t, ValidateReadLimit(DefaultReadLimit))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeOK, CodeOf(nil))
	assert.Equal(t, ErrCodeConfiguration, CodeOf(fmt.Errorf("wrap: %w", ValidateThreads(0))))
	assert.Equal(t, ErrCodeProtocol, CodeOf(NewError(ErrCodeProtocol, "open", "invalid path", nil)))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain")))

	e := NewError(ErrCodeNotFound, "notify", "no owner", ErrSessionNotFound)
	assert.ErrorIs(t, e, ErrSessionNotFound)
	assert.Equal(t, "notify: no owner: session not found", e.Error())
}

func TestConnHandleContext(t *testing.T) {
	_, ok := ConnHandleFrom(context.Background())
	assert.False(t, ok)

	h := NewConnHandle()
	got, ok := ConnHandleFrom(WithConnHandle(context.Background(), h))
	require.True(t, ok)
	assert.Equal(t, h, got)
}

func TestProcessorFunc(t *testing.T) {
	var p Processor = ProcessorFunc(func(_ context.Context, req string) string { return "re:" + req })
	assert.Equal(t, "re:x", p.Process(context.Background(), "x"))
}
