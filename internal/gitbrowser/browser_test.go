package gitbrowser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/gitbrowser"
)

func repos() []gitbrowser.Repository {
	return []gitbrowser.Repository{
		{Name: "web-application", Language: "TypeScript", PullRequests: []gitbrowser.PullRequest{{ID: 1, Status: "open"}, {ID: 2, Status: "merged"}}},
		{Name: "api-server", Language: "JavaScript"},
		{Name: "data-analytics", Language: "Rust"},
	}
}

func TestSelectResetsTab(t *testing.T) {
	b := gitbrowser.New(repos())
	v, err := b.Current()
	require.NoError(t, err)
	assert.Equal(t, "web-application", v.Repository.Name)
	assert.Equal(t, gitbrowser.TabCode, v.Tab)
	assert.Equal(t, "bg-blue-500", v.LanguageColor)
	assert.Equal(t, gitbrowser.StatusIcon{Icon: "check-circle", Color: "purple"}, v.StatusIcons["merged"])

	_, err = b.SetTab(gitbrowser.TabPulls)
	require.NoError(t, err)
	v, err = b.Select("data-analytics")
	require.NoError(t, err)
	assert.Equal(t, gitbrowser.TabCode, v.Tab)
	assert.Equal(t, "bg-gray-500", v.LanguageColor)

	_, err = b.Select("nope")
	assert.ErrorIs(t, err, gitbrowser.ErrRepoNotFound)
	_, err = b.SetTab("issues")
	assert.ErrorIs(t, err, gitbrowser.ErrInvalidTab)
}

func TestNamesSearch(t *testing.T) {
	b := gitbrowser.New(repos())
	assert.Equal(t, []string{"web-application", "api-server", "data-analytics"}, b.Names(""))
	assert.Equal(t, []string{"web-application", "api-server", "data-analytics"}, b.Names("A"))
	assert.Equal(t, []string{"api-server"}, b.Names("SERV"))
	assert.Empty(t, b.Names("mobile"))
}

func TestPullRequestIcon(t *testing.T) {
	assert.Equal(t, "yellow", gitbrowser.PullRequestIcon("review").Color)
	assert.Equal(t, "red", gitbrowser.PullRequestIcon("closed").Color)
	assert.Equal(t, gitbrowser.StatusIcon{Icon: "circle", Color: "gray"}, gitbrowser.PullRequestIcon("draft"))
	assert.Equal(t, "bg-cyan-500", gitbrowser.LanguageColor("Go"))
}
