// Package shell holds the workbench frame around the editors: the selected
// repository and branch, the active tab, the editor mode, and the
// changes/history panes with their commit form.
package shell

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"infinity/internal/domain"
)

type Tab string

const (
	TabChanges Tab = "changes"
	TabHistory Tab = "history"
	TabEditor  Tab = "editor"
)

type EditorMode string

const (
	ModeTable EditorMode = "table"
	ModeDMN   EditorMode = "dmn"
)

const (
	DefaultRepo   = "Likely-To-Pay-Model"
	DefaultBranch = "main"
	DefaultAuthor = "current-user@company.com"
)

var (
	ErrEmptyCommitMessage = errors.New("commit message is required")
	ErrInvalidTab         = errors.New("invalid tab")
	ErrInvalidEditorMode  = errors.New("invalid editor mode")
)

type State struct {
	Repo         string               `json:"repo"`
	Branch       string               `json:"branch"`
	Tab          Tab                  `json:"tab" enum:"changes,history,editor"`
	EditorMode   EditorMode           `json:"editorMode" enum:"table,dmn"`
	ChangedFiles []domain.ChangedFile `json:"changedFiles"`
	Commits      []domain.Commit      `json:"commits"`
}

// Update carries the fields to change; nil fields are left alone.
type Update struct {
	Repo       *string `json:"repo,omitempty"`
	Branch     *string `json:"branch,omitempty"`
	Tab        *string `json:"tab,omitempty"`
	EditorMode *string `json:"editorMode,omitempty"`
}

type Shell struct {
	mu    sync.Mutex
	state State
	// NewHash returns the short hash of a new commit.
	NewHash func() string
}

func New(changed []domain.ChangedFile, commits []domain.Commit) *Shell {
	return &Shell{
		state: State{
			Repo:         DefaultRepo,
			Branch:       DefaultBranch,
			Tab:          TabChanges,
			EditorMode:   ModeTable,
			ChangedFiles: append([]domain.ChangedFile{}, changed...),
			Commits:      append([]domain.Commit{}, commits...),
		},
		NewHash: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:7] },
	}
}

func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyState()
}

func (s *Shell) Patch(u Update) (State, error) {
	if u.Tab != nil {
		switch Tab(*u.Tab) {
		case TabChanges, TabHistory, TabEditor:
		default:
			return State{}, errors.Wrapf(ErrInvalidTab, "%q", *u.Tab)
		}
	}
	if u.EditorMode != nil {
		switch EditorMode(*u.EditorMode) {
		case ModeTable, ModeDMN:
		default:
			return State{}, errors.Wrapf(ErrInvalidEditorMode, "%q", *u.EditorMode)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Repo != nil && *u.Repo != "" {
		s.state.Repo = *u.Repo
	}
	if u.Branch != nil && *u.Branch != "" {
		s.state.Branch = *u.Branch
	}
	if u.Tab != nil {
		s.state.Tab = Tab(*u.Tab)
	}
	if u.EditorMode != nil {
		s.state.EditorMode = EditorMode(*u.EditorMode)
	}
	return s.copyState(), nil
}

// Commit prepends a commit on the current branch. The message is required.
func (s *Shell) Commit(message, description, author string) (domain.Commit, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.Commit{}, ErrEmptyCommitMessage
	}
	if author == "" {
		author = DefaultAuthor
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Commit{
		Hash:        s.NewHash(),
		Message:     message,
		Description: strings.TrimSpace(description),
		Author:      author,
		Time:        "just now",
		Branch:      s.state.Branch,
		Repo:        s.state.Repo,
	}
	s.state.Commits = append([]domain.Commit{c}, s.state.Commits...)
	return c, nil
}

// Restore prepends commits recorded earlier, given newest first.
func (s *Shell) Restore(commits []domain.Commit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Commits = append(append([]domain.Commit{}, commits...), s.state.Commits...)
}

func (s *Shell) copyState() State {
	st := s.state
	st.ChangedFiles = append([]domain.ChangedFile{}, s.state.ChangedFiles...)
	st.Commits = append([]domain.Commit{}, s.state.Commits...)
	return st
}
