package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Snapshot computes a stable hash of the fields that affect generated output.
// Extension lists and variables are order-insensitive. Logging, metrics and
// other runtime-only settings are not included.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }
	sorted := func(in []string) string {
		s := append([]string{}, in...)
		sort.Strings(s)
		return strings.Join(s, ",")
	}

	for _, src := range c.Project.Sources {
		w("project.source", src.Path, boolString(src.Recurse))
	}
	w("project.extensions.html", sorted(c.Project.Extensions.HTML))
	w("project.extensions.markdown", sorted(c.Project.Extensions.Markdown))
	w("project.extensions.static", sorted(c.Project.Extensions.Static))
	w("output.trim", boolString(c.Output.Trim))

	names := make([]string, 0, len(c.Variables))
	for k := range c.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		w("variables."+k, c.Variables[k])
	}

	w("links.enabled", boolString(c.Links.Enabled))
	w("math.enabled", boolString(c.Math.Enabled))
	w("math.version", c.Math.Version)
	w("highlight.enabled", boolString(c.Highlight.Enabled))
	w("highlight.theme", c.Highlight.Theme)
	w("markdown.enabled", boolString(c.Markdown.Enabled))
	if c.Source != nil {
		w("source.url", c.Source.URL)
		w("source.branch", c.Source.Branch)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
