// Package source keeps a local checkout of a git repository that serves as the
// project root for builds.
package source

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

// Checkout mirrors a remote branch into Directory.
type Checkout struct {
	URL       string
	Branch    string
	Directory string
	Token     string
	Retry     retry.Policy
}

// New creates a Checkout from configuration.
func New(cfg *config.SourceConfig) *Checkout {
	return &Checkout{
		URL:       cfg.URL,
		Branch:    cfg.Branch,
		Directory: cfg.Directory,
		Token:     cfg.Token,
		Retry:     retry.NewPolicy(retry.Mode(cfg.Backoff), cfg.RetryDelay, 0, cfg.Retries),
	}
}

// Sync clones the repository when Directory holds no checkout yet and
// otherwise fetches and hard resets it to the remote branch. Local changes in
// the checkout are discarded. Transient failures are retried according to
// Retry. It returns the commit the worktree is at.
func (c *Checkout) Sync(ctx context.Context) (string, error) {
	var rev string
	err := c.Retry.Do(ctx, "git sync", isPermanent, func(ctx context.Context) error {
		var err error
		if _, statErr := os.Stat(filepath.Join(c.Directory, ".git")); statErr == nil {
			rev, err = c.update(ctx)
		} else {
			rev, err = c.clone(ctx)
		}
		return err
	})
	return rev, err
}

// isPermanent reports failures that retrying cannot fix.
func isPermanent(err error) bool {
	if stderrors.Is(err, transport.ErrAuthenticationRequired) ||
		stderrors.Is(err, transport.ErrAuthorizationFailed) ||
		stderrors.Is(err, transport.ErrRepositoryNotFound) ||
		stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.HasCategory(err, errors.CategoryFileSystem) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"auth", "permission", "denied", "not found", "no such remote", "invalid reference", "unsupported protocol"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	var nerr net.Error
	if stderrors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	return false
}

func (c *Checkout) clone(ctx context.Context) (string, error) {
	slog.Debug("Cloning source repository", logfields.URL(c.URL), logfields.Path(c.Directory), slog.String("branch", c.Branch))

	if err := os.RemoveAll(c.Directory); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to remove existing checkout directory").
			WithContext(errors.ContextPath, c.Directory).
			Build()
	}

	opts := &git.CloneOptions{URL: c.URL, Auth: c.auth()}
	if c.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(c.Branch)
		opts.SingleBranch = true
	}
	repo, err := git.PlainCloneContext(ctx, c.Directory, false, opts)
	if err != nil {
		return "", c.gitError(err, "failed to clone repository")
	}

	head, err := repo.Head()
	if err != nil {
		return "", c.gitError(err, "failed to resolve HEAD")
	}
	slog.Info("Source repository cloned", logfields.URL(c.URL), slog.String("commit", short(head.Hash())))
	return head.Hash().String(), nil
}

func (c *Checkout) update(ctx context.Context) (string, error) {
	repo, err := git.PlainOpen(c.Directory)
	if err != nil {
		return "", c.gitError(err, "failed to open checkout")
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", c.gitError(err, "failed to open worktree")
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Tags:       git.NoTags,
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Auth:       c.auth(),
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", c.gitError(err, "failed to fetch repository")
	}

	branch := c.resolveBranch(repo)
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return "", c.gitError(err, "remote branch not found").WithContext("branch", branch)
	}

	before, _ := repo.Head()
	local := plumbing.NewBranchReferenceName(branch)
	_, lerr := repo.Reference(local, true)
	if err := wt.Checkout(&git.CheckoutOptions{Branch: local, Create: lerr != nil, Force: true}); err != nil {
		return "", c.gitError(err, "failed to check out branch").WithContext("branch", branch)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return "", c.gitError(err, "failed to reset checkout").WithContext("branch", branch)
	}

	if before != nil && before.Hash() == remoteRef.Hash() {
		slog.Info("Source repository already up to date", slog.String("branch", branch), slog.String("commit", short(remoteRef.Hash())))
	} else {
		slog.Info("Source repository updated", slog.String("branch", branch), slog.String("commit", short(remoteRef.Hash())))
	}
	return remoteRef.Hash().String(), nil
}

// resolveBranch prefers the configured branch, then the checked out branch,
// then the remote default, then "main".
func (c *Checkout) resolveBranch(repo *git.Repository) string {
	if c.Branch != "" {
		return c.Branch
	}
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		return head.Name().Short()
	}
	if ref, err := repo.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), false); err == nil {
		if target := ref.Target(); target != "" {
			return plumbing.ReferenceName(target).Short()
		}
	}
	return "main"
}

func (c *Checkout) auth() transport.AuthMethod {
	if c.Token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "token", Password: c.Token}
}

func (c *Checkout) gitError(err error, msg string) *errors.ClassifiedError {
	return errors.WrapError(err, errors.CategoryGit, msg).
		WithContext("url", c.URL).
		WithContext(errors.ContextPath, c.Directory).
		Build()
}

func short(h plumbing.Hash) string {
	return h.String()[:8]
}
