package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesKind(t *testing.T) {
	err := Fetch("list page", errors.New("connection refused"))

	assert.True(t, Is(err, FetchFailure))
	assert.False(t, Is(err, RenderFailure))
}

func TestIs_WrappedWithFmt(t *testing.T) {
	err := fmt.Errorf("failed to retrieve: %w", FileSystem("move", errors.New("EPERM")))

	assert.True(t, Is(err, FileSystemFailure))
	assert.Equal(t, FileSystemFailure, KindOf(err))
}

func TestIs_NestedKinds(t *testing.T) {
	inner := RemoteConnect("probe", errors.New("timeout"))
	outer := Fetch("sync", inner)

	assert.True(t, Is(outer, FetchFailure))
	assert.True(t, Is(outer, RemoteConnectFailure))
}

func TestIs_JoinedErrors(t *testing.T) {
	err := errors.Join(
		Fetch("list", errors.New("timeout")),
		fmt.Errorf("failed to merge: %w", FileSystem("open A-2.docx", errors.New("zip: not a valid zip file"))),
		NoContent("detail"),
	)

	assert.True(t, Is(err, FetchFailure))
	assert.True(t, Is(err, FileSystemFailure))
	assert.True(t, Is(err, NoContentFound))
	assert.False(t, Is(err, RemoteConnectFailure))
	assert.Equal(t, FetchFailure, KindOf(err))
}

func TestIs_PlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), FetchFailure))
	assert.False(t, Is(nil, FetchFailure))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "NO_CONTENT_FOUND: list", NoContent("list").Error())
	assert.Equal(t, "RENDER_FAILURE: body: bad", Render("body", errors.New("bad")).Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Fetch("detail", cause)

	assert.ErrorIs(t, err, cause)
}
