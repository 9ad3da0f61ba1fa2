// Package katex renders TeX through the katex command line tool.
package katex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// ErrBinaryNotFound is returned when the katex binary is not on PATH.
var ErrBinaryNotFound = errors.New("katex binary not found")

// DefaultTimeout bounds a single katex invocation.
const DefaultTimeout = 30 * time.Second

// DefaultVersion is used for stylesheet links when the binary does not report one.
const DefaultVersion = "0.16.21"

// Options controls one rendering call.
type Options struct {
	// Output is the katex output format. Only "html" is passed through today.
	Output  string
	Trust   bool
	Display bool
}

// CLI invokes the katex binary once per expression, feeding TeX on stdin.
type CLI struct {
	// Binary is the executable name or path; "katex" when empty.
	Binary  string
	Timeout time.Duration

	version string
}

// New returns a CLI for binary. When version is empty it is detected from
// `katex --version`, falling back to DefaultVersion.
func New(ctx context.Context, binary, version string) (*CLI, error) {
	c := &CLI{Binary: binary, Timeout: DefaultTimeout}
	path, err := exec.LookPath(c.binary())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBinaryNotFound, err)
	}
	c.Binary = path
	if version == "" {
		version = DetectVersion(ctx, path)
		slog.Debug("Detected katex version", "version", version)
	}
	if version == "" {
		slog.Warn("Could not detect katex version, using default", "binary", path, "version", DefaultVersion)
		version = DefaultVersion
	}
	c.version = version
	return c, nil
}

func (c *CLI) binary() string {
	if c.Binary == "" {
		return "katex"
	}
	return c.Binary
}

// Version reports the katex version used for stylesheet links.
func (c *CLI) Version() string {
	return c.version
}

// RenderMath renders tex and returns the HTML fragment printed by katex.
func (c *CLI) RenderMath(tex string, opts Options) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// #nosec G204 -- binary comes from configuration and exec.LookPath
	cmd := exec.CommandContext(ctx, c.binary(), Args(opts)...)
	cmd.Stdin = strings.NewReader(tex)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("katex: %w: %s", err, msg)
		}
		return "", fmt.Errorf("katex: %w", err)
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}

// Args builds the katex command line for opts.
func Args(opts Options) []string {
	format := opts.Output
	if format == "" {
		format = "html"
	}
	args := []string{"--format", format}
	if opts.Trust {
		args = append(args, "--trust")
	}
	if opts.Display {
		args = append(args, "--display-mode")
	}
	return args
}

// DetectVersion runs `katex --version` and extracts the semantic version.
// Returns an empty string when detection fails.
func DetectVersion(ctx context.Context, binary string) string {
	// #nosec G204 -- binary comes from exec.LookPath
	out, err := exec.CommandContext(ctx, binary, "--version").Output()
	if err != nil {
		return ""
	}
	return parseVersion(string(out))
}

var versionRegex = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

func parseVersion(output string) string {
	if m := versionRegex.FindStringSubmatch(output); len(m) >= 2 {
		return m[1]
	}
	return strings.TrimSpace(output)
}
