package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

func commitFile(t *testing.T, repo *git.Repository, repoPath, name, content string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(repoPath, name)), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, name), []byte(content), 0o600))
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash
}

// newRemote creates a bare repository seeded from a working repository and
// returns both so tests can push further commits.
func newRemote(t *testing.T) (barePath string, work *git.Repository, workPath string) {
	t.Helper()
	tmp := t.TempDir()
	barePath = filepath.Join(tmp, "remote.git")
	_, err := git.PlainInit(barePath, true)
	require.NoError(t, err)

	workPath = filepath.Join(tmp, "seed")
	work, err = git.PlainInit(workPath, false)
	require.NoError(t, err)
	_, err = work.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{barePath}})
	require.NoError(t, err)

	commitFile(t, work, workPath, "content/index.html", "<h1><$title/></h1>")
	require.NoError(t, work.Push(&git.PushOptions{RemoteName: "origin"}))
	return barePath, work, workPath
}

func TestSync_ClonesThenUpdates(t *testing.T) {
	barePath, work, workPath := newRemote(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	co := &Checkout{URL: barePath, Branch: "master", Directory: dir}

	rev, err := co.Sync(context.Background())
	require.NoError(t, err)
	assert.Len(t, rev, 40)
	data, err := os.ReadFile(filepath.Join(dir, "content", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1><$title/></h1>", string(data))

	next := commitFile(t, work, workPath, "content/about.html", "<p>about</p>")
	require.NoError(t, work.Push(&git.PushOptions{RemoteName: "origin"}))

	rev, err = co.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, next.String(), rev)
	assert.FileExists(t, filepath.Join(dir, "content", "about.html"))
}

func TestSync_DiscardsLocalChanges(t *testing.T) {
	barePath, _, _ := newRemote(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	co := &Checkout{URL: barePath, Directory: dir}

	first, err := co.Sync(context.Background())
	require.NoError(t, err)

	local, err := git.PlainOpen(dir)
	require.NoError(t, err)
	commitFile(t, local, dir, "content/index.html", "local edit")

	rev, err := co.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, rev)
	data, err := os.ReadFile(filepath.Join(dir, "content", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1><$title/></h1>", string(data))
}

func TestSync_CloneFailureIsGitError(t *testing.T) {
	co := &Checkout{URL: filepath.Join(t.TempDir(), "missing.git"), Directory: filepath.Join(t.TempDir(), "checkout")}
	_, err := co.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}

func TestNewAndAuth(t *testing.T) {
	co := New(&config.SourceConfig{
		URL: "https://example.com/site.git", Branch: "main", Directory: "/tmp/x", Token: "secret",
		Retries: 3, Backoff: "exponential", RetryDelay: 2 * time.Second,
	})
	assert.Equal(t, "main", co.Branch)
	assert.NotNil(t, co.auth())
	assert.Equal(t, retry.ModeExponential, co.Retry.Mode)
	assert.Equal(t, 3, co.Retry.MaxRetries)
	assert.Equal(t, 2*time.Second, co.Retry.Initial)

	co.Token = ""
	assert.Nil(t, co.auth())
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, isPermanent(transport.ErrAuthenticationRequired))
	assert.True(t, isPermanent(fmt.Errorf("clone: %w", transport.ErrRepositoryNotFound)))
	assert.True(t, isPermanent(context.Canceled))
	assert.True(t, isPermanent(stderrors.New("permission denied")))
	assert.False(t, isPermanent(stderrors.New("connection reset by peer")))
}
