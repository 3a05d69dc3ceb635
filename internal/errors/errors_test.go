package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxonomyUnwrapsToSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
		check    func(error) bool
	}{
		{&ValidationError{Field: "name", Reason: "empty"}, ErrValidation, IsValidation},
		{&NotFoundError{Kind: "session", Name: "x"}, ErrNotFound, IsNotFound},
		{&DuplicateError{Name: "x"}, ErrDuplicate, IsDuplicate},
		{&ConflictError{Path: "a.go", Sessions: []string{"b"}}, ErrConflict, IsConflict},
		{&CorruptRecordError{Name: "x", Err: errors.New("bad json")}, ErrCorruptRecord, IsCorrupt},
	}
	for _, tc := range cases {
		assert.True(t, errors.Is(tc.err, tc.sentinel), "%T should unwrap to its sentinel", tc.err)
		assert.True(t, tc.check(tc.err))
	}
}

func TestHelpersRejectOtherKinds(t *testing.T) {
	err := &ValidationError{Field: "path", Reason: "empty"}
	assert.False(t, IsNotFound(err))
	assert.False(t, IsDuplicate(err))
	assert.False(t, IsConflict(err))
	assert.False(t, IsCorrupt(err))
	assert.False(t, IsValidation(errors.New("unrelated")))
}

func TestHelpersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("updating session: %w", &NotFoundError{Kind: "session", Name: "gone"})
	assert.True(t, IsNotFound(wrapped))

	var nf *NotFoundError
	require.True(t, errors.As(wrapped, &nf))
	assert.Equal(t, "gone", nf.Name)
}

func TestConflictErrorMessageListsClaimants(t *testing.T) {
	err := &ConflictError{Path: "src/app.css", Sessions: []string{"frontend", "design"}}
	assert.Contains(t, err.Error(), "src/app.css")
	assert.Contains(t, err.Error(), "frontend, design")
}
