package sfs

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DriverError is the error type returned by every operation exposed by this
// package. It behaves like a normal `error`, but callers can attach
// additional context with WithMessage or Wrap without losing the ability to
// compare against one of the sentinel values below via errors.Is.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	Wrap(err error) DriverError
}

type baseSfsError string

const rootError = baseSfsError("")

// Sentinel errors, one per errno-flavored kind named in the operation
// surface (see spec §7).
var ErrNotFound = rootError.WithMessage("no such file or directory")
var ErrNotADirectory = rootError.WithMessage("not a directory")
var ErrIsADirectory = rootError.WithMessage("is a directory")
var ErrExists = rootError.WithMessage("file exists")
var ErrDirectoryNotEmpty = rootError.WithMessage("directory not empty")
var ErrNoSpaceOnDevice = rootError.WithMessage("no space left on device")
var ErrNameTooLong = rootError.WithMessage("file name too long")
var ErrInvalidArgument = rootError.WithMessage("invalid argument")
var ErrFileTooLarge = rootError.WithMessage("file too large")
var ErrBusy = rootError.WithMessage("device or resource busy")
var ErrOutOfMemory = rootError.WithMessage("cannot allocate memory")
var ErrIOFailed = rootError.WithMessage("input/output error")

func (e baseSfsError) Error() string {
	return string(e)
}

// RootCause returns the sentinel this error ultimately derives from.
func (e baseSfsError) RootCause() DriverError {
	return e
}

func (e baseSfsError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       message,
		originalError: e,
	}
}

func (e baseSfsError) Wrap(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

type customDriverError struct {
	message       string
	originalError error
}

func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customDriverError) Wrap(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}
