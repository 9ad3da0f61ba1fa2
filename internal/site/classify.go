package site

import (
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
)

// Classifier registers files by extension. Hidden files, files in hidden
// directories and files under the output directory are skipped.
func Classifier(cfg *config.Config) resource.Classifier {
	ext := cfg.Project.Extensions
	outputRel := outputInsideRoot(cfg)

	return func(relPath string) (resource.Resource, bool) {
		if isHidden(relPath) {
			return nil, false
		}
		if outputRel != "" && (relPath == outputRel || strings.HasPrefix(relPath, outputRel+"/")) {
			return nil, false
		}
		e := strings.ToLower(path.Ext(relPath))
		switch {
		case slices.Contains(ext.HTML, e):
			return NewPage(KindHTML, relPath), true
		case cfg.Markdown.Enabled && slices.Contains(ext.Markdown, e):
			return NewPage(KindMarkdown, relPath), true
		case slices.Contains(ext.Static, e):
			return NewPage(KindStatic, relPath), true
		}
		return nil, false
	}
}

// Register registers every configured source directory in reg.
func Register(reg *resource.Registry, cfg *config.Config) error {
	classify := Classifier(cfg)
	for _, src := range cfg.Project.Sources {
		if err := reg.RegisterDirectory(src.Path, classify, src.Recurse); err != nil {
			return err
		}
	}
	return nil
}

func isHidden(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// outputInsideRoot returns the output directory relative to the project root
// when it lies inside it.
func outputInsideRoot(cfg *config.Config) string {
	rel, err := filepath.Rel(cfg.Project.Root, cfg.Output.Directory)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return ""
	}
	return rel
}
