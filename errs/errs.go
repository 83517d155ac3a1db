package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// FetchFailure is a network or parse error on a single list page or
	// article. The unit fails, the pipeline continues.
	FetchFailure Kind = "FETCH_FAILURE"
	// RenderFailure is malformed body content. The article is skipped.
	RenderFailure Kind = "RENDER_FAILURE"
	// NoContentFound is an empty list or an empty folder. Logged as info.
	NoContentFound Kind = "NO_CONTENT_FOUND"
	// RemoteConnectFailure means no NAS address was reachable.
	RemoteConnectFailure Kind = "REMOTE_CONNECT_FAILURE"
	// FileSystemFailure is an archive or merge I/O error.
	FileSystemFailure Kind = "FILE_SYSTEM_FAILURE"
)

// Error is a failure tagged with its Kind and the operation that produced
// it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with a kind and an operation name. A nil err still yields
// an error, which is what NoContentFound callers want.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Fetch creates a FetchFailure.
func Fetch(op string, err error) *Error {
	return New(FetchFailure, op, err)
}

// Render creates a RenderFailure.
func Render(op string, err error) *Error {
	return New(RenderFailure, op, err)
}

// NoContent creates a NoContentFound error.
func NoContent(op string) *Error {
	return New(NoContentFound, op, nil)
}

// RemoteConnect creates a RemoteConnectFailure.
func RemoteConnect(op string, err error) *Error {
	return New(RemoteConnectFailure, op, err)
}

// FileSystem creates a FileSystemFailure.
func FileSystem(op string, err error) *Error {
	return New(FileSystemFailure, op, err)
}

// Is reports whether any error in err's tree is an *Error of the given
// kind. Joined errors are searched branch by branch.
func Is(err error, kind Kind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		if e.Kind == kind {
			return true
		}
		return Is(e.Err, kind)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if Is(inner, kind) {
				return true
			}
		}
		return false
	default:
		return Is(errors.Unwrap(err), kind)
	}
}

// KindOf returns the kind of the first *Error found in err's tree, or the
// empty kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
