package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageWrapsBoth(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Storage("append session", cause)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "append session")
	assert.NoError(t, Storage("noop", nil))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))
	assert.Equal(t, http.StatusConflict, FromError(InvalidState("phase %s", "focus")).Status)
	assert.Equal(t, http.StatusBadRequest, FromError(Configuration("bad")).Status)
	assert.Equal(t, http.StatusInternalServerError, FromError(Storage("x", stderrors.New("y"))).Status)
	assert.Equal(t, "internal_error", FromError(stderrors.New("boom")).Code)
}
