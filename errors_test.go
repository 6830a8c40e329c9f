package sfs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dpeckham/sfs"
)

func TestSfsErrorWithMessage(t *testing.T) {
	newErr := sfs.ErrNotFound.WithMessage("/does/not/exist")
	assert.Equal(
		t, "no such file or directory: /does/not/exist", newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, sfs.ErrNotFound)
}

func TestSfsErrorWrap(t *testing.T) {
	originalErr := errors.New("original error")
	newErr := sfs.ErrExists.Wrap(originalErr)
	expectedMessage := "file exists: original error"

	assert.EqualValues(t, expectedMessage, newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, originalErr, "original error not set as parent")
	assert.ErrorIs(t, newErr, sfs.ErrExists, "sfs error not set as parent")
}
