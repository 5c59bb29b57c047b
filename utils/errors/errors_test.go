package errors

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := EPath(ErrIO, "read object", "ab/cdef", fs.ErrNotExist)

	assert.True(t, Is(err, ErrIO))
	assert.True(t, Is(err, fs.ErrNotExist))
	assert.False(t, Is(err, ErrRefConflict))
	assert.Equal(t, "read object ab/cdef: file does not exist", err.Error())
}

func TestErrorWithoutCause(t *testing.T) {
	err := E(ErrRefConflict, "update HEAD", nil)

	assert.Equal(t, "update HEAD: reference precondition failed", err.Error())
	assert.Equal(t, ErrRefConflict, KindOf(err))
}

func TestKindOfThroughWrapping(t *testing.T) {
	inner := E(ErrCancelled, "prompt", nil)
	outer := Wrap(inner, "unlock key")

	assert.Equal(t, ErrCancelled, KindOf(outer))
	assert.Nil(t, KindOf(New("plain")))
	assert.Nil(t, KindOf(nil))

	var tagged *Error
	require.True(t, As(outer, &tagged))
	assert.Equal(t, "prompt", tagged.Op)
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrKeyParse, "key %s", "id_rsa")
	assert.Equal(t, "key id_rsa: failed to parse SSH key", err.Error())
	assert.True(t, Is(err, ErrKeyParse))
	assert.Equal(t, "x 1", Errorf("x %d", 1).Error())
}
