// Package gitbrowser is the repository browser: a fixed set of repositories
// with their commits, pull requests and files, one of which is selected.
package gitbrowser

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

type Tab string

const (
	TabCode    Tab = "code"
	TabCommits Tab = "commits"
	TabPulls   Tab = "pulls"
)

var (
	ErrRepoNotFound = errors.New("repository not found")
	ErrInvalidTab   = errors.New("invalid tab")
)

type Commit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Time    string `json:"time"`
	Branch  string `json:"branch"`
}

type PullRequest struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Status   string `json:"status" enum:"open,merged,closed,draft,review"`
	Branch   string `json:"branch"`
	Created  string `json:"created"`
	Comments int    `json:"comments"`
}

type File struct {
	Name     string `json:"name"`
	Type     string `json:"type" enum:"file,folder"`
	Modified bool   `json:"modified"`
}

type Repository struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Language     string        `json:"language"`
	Stars        int           `json:"stars"`
	Forks        int           `json:"forks"`
	Watching     int           `json:"watching"`
	Private      bool          `json:"isPrivate"`
	LastCommit   string        `json:"lastCommit"`
	Commits      []Commit      `json:"commits"`
	PullRequests []PullRequest `json:"pullRequests"`
	Files        []File        `json:"files"`
}

// StatusIcon is how a pull request status is drawn.
type StatusIcon struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var languageColors = map[string]string{
	"TypeScript": "bg-blue-500",
	"JavaScript": "bg-yellow-500",
	"Python":     "bg-green-500",
	"Java":       "bg-red-500",
	"Go":         "bg-cyan-500",
}

func LanguageColor(language string) string {
	if c, ok := languageColors[language]; ok {
		return c
	}
	return "bg-gray-500"
}

func PullRequestIcon(status string) StatusIcon {
	switch status {
	case "open":
		return StatusIcon{Icon: "circle", Color: "green"}
	case "merged":
		return StatusIcon{Icon: "check-circle", Color: "purple"}
	case "closed":
		return StatusIcon{Icon: "x-circle", Color: "red"}
	case "review":
		return StatusIcon{Icon: "clock", Color: "yellow"}
	default:
		return StatusIcon{Icon: "circle", Color: "gray"}
	}
}

// View is the selected repository as displayed.
type View struct {
	Repository    Repository            `json:"repository"`
	Tab           Tab                   `json:"tab"`
	LanguageColor string                `json:"languageColor"`
	StatusIcons   map[string]StatusIcon `json:"statusIcons"`
}

type Browser struct {
	mu       sync.Mutex
	repos    []Repository
	selected int
	tab      Tab
}

// New selects the first repository.
func New(repos []Repository) *Browser {
	return &Browser{repos: repos, tab: TabCode}
}

// Names lists repository names containing query, case-insensitively.
func (b *Browser) Names(query string) []string {
	q := strings.ToLower(query)
	out := []string{}
	for _, r := range b.repos {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r.Name)
		}
	}
	return out
}

// Select switches repository and resets the tab to code.
func (b *Browser) Select(name string) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, r := range b.repos {
		if r.Name == name {
			b.selected = i
			b.tab = TabCode
			return b.view(), nil
		}
	}
	return View{}, errors.Wrapf(ErrRepoNotFound, "%q", name)
}

func (b *Browser) SetTab(tab Tab) (View, error) {
	switch tab {
	case TabCode, TabCommits, TabPulls:
	default:
		return View{}, errors.Wrapf(ErrInvalidTab, "%q", tab)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tab = tab
	return b.view(), nil
}

func (b *Browser) Current() (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.repos) == 0 {
		return View{}, ErrRepoNotFound
	}
	return b.view(), nil
}

func (b *Browser) view() View {
	r := b.repos[b.selected]
	icons := map[string]StatusIcon{}
	for _, pr := range r.PullRequests {
		icons[pr.Status] = PullRequestIcon(pr.Status)
	}
	return View{Repository: r, Tab: b.tab, LanguageColor: LanguageColor(r.Language), StatusIcons: icons}
}
