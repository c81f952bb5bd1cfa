package shell_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/domain"
	"infinity/internal/shell"
)

func strp(s string) *string { return &s }

func TestDefaults(t *testing.T) {
	s := shell.New(nil, []domain.Commit{{Hash: "m0n1o2p", Message: "Initial project setup"}})
	st := s.State()
	assert.Equal(t, "Likely-To-Pay-Model", st.Repo)
	assert.Equal(t, "main", st.Branch)
	assert.Equal(t, shell.TabChanges, st.Tab)
	assert.Equal(t, shell.ModeTable, st.EditorMode)
	assert.Len(t, st.Commits, 1)
}

func TestPatch(t *testing.T) {
	s := shell.New(nil, nil)
	st, err := s.Patch(shell.Update{Tab: strp("editor"), EditorMode: strp("dmn"), Branch: strp("develop")})
	require.NoError(t, err)
	assert.Equal(t, shell.TabEditor, st.Tab)
	assert.Equal(t, shell.ModeDMN, st.EditorMode)
	assert.Equal(t, "develop", st.Branch)

	_, err = s.Patch(shell.Update{Tab: strp("settings")})
	assert.ErrorIs(t, err, shell.ErrInvalidTab)
	_, err = s.Patch(shell.Update{EditorMode: strp("bpmn")})
	assert.ErrorIs(t, err, shell.ErrInvalidEditorMode)
	assert.Equal(t, shell.TabEditor, s.State().Tab)
}

func TestCommitPrependsOnCurrentBranch(t *testing.T) {
	s := shell.New(nil, []domain.Commit{{Hash: "a1b2c3d", Message: "Add authentication system"}})
	s.NewHash = func() string { return "f00ba47" }

	_, err := s.Commit("   ", "", "")
	assert.ErrorIs(t, err, shell.ErrEmptyCommitMessage)

	c, err := s.Commit(" Tune thresholds ", "raise age limit", "")
	require.NoError(t, err)
	assert.Equal(t, domain.Commit{
		Hash:        "f00ba47",
		Message:     "Tune thresholds",
		Description: "raise age limit",
		Author:      shell.DefaultAuthor,
		Time:        "just now",
		Branch:      "main",
		Repo:        "Likely-To-Pay-Model",
	}, c)
	commits := s.State().Commits
	require.Len(t, commits, 2)
	assert.Equal(t, "f00ba47", commits[0].Hash)
}

func TestDefaultHashIsShort(t *testing.T) {
	s := shell.New(nil, nil)
	c, err := s.Commit("x", "", "bob")
	require.NoError(t, err)
	assert.Len(t, c.Hash, 7)
}
