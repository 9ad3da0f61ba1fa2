// Package resource defines the Resource contract and the Registry that maps
// source paths to resources for one build.
package resource

import (
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Resource is a caller-defined build input.
type Resource interface {
	// Identifier names the resource for cross references. It must be
	// deterministic across runs and unique within a build.
	Identifier() string

	// OutputPath is where generated content lands, slash separated and
	// relative to the output root.
	OutputPath() string
}

// Classifier decides whether and how a file is registered. relPath is slash
// separated and relative to the project root. Returning false skips the file.
type Classifier func(relPath string) (Resource, bool)

// Registry owns the project root and the mapping from relative source path to
// Resource. It is populated before processing starts and is read-only after
// that, so it can be shared by concurrent processors without locking.
type Registry struct {
	root      string
	resources map[string]Resource
	byID      map[string]string
}

// NewRegistry creates an empty registry rooted at root.
func NewRegistry(root string) *Registry {
	return &Registry{
		root:      root,
		resources: make(map[string]Resource),
		byID:      make(map[string]string),
	}
}

// Root returns the project root.
func (r *Registry) Root() string {
	return r.root
}

// AbsolutePath joins the project root with a relative fragment.
func (r *Registry) AbsolutePath(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}

// Register inserts a single resource under relPath. Registering an identifier
// already owned by another path is a validation error.
func (r *Registry) Register(relPath string, res Resource) error {
	relPath = path.Clean(filepath.ToSlash(relPath))
	id := res.Identifier()
	if owner, ok := r.byID[id]; ok && owner != relPath {
		return errors.ValidationError("duplicate resource identifier").
			WithContext(errors.ContextReference, id).
			WithContext(errors.ContextPath, relPath).
			WithContext("registered_path", owner).
			Build()
	}
	if prev, ok := r.resources[relPath]; ok && r.byID[prev.Identifier()] == relPath {
		delete(r.byID, prev.Identifier())
	}
	r.resources[relPath] = res
	r.byID[id] = relPath
	return nil
}

// RegisterDirectory registers the files under dir (relative to the root,
// "." for the root itself). Subdirectories are visited only when recurse is
// set. Any unreadable directory or entry aborts the whole call.
func (r *Registry) RegisterDirectory(dir string, classify Classifier, recurse bool) error {
	slog.Debug("Adding files in directory", logfields.Path(dir))
	return r.registerDirectory(path.Clean(filepath.ToSlash(dir)), classify, recurse)
}

func (r *Registry) registerDirectory(dir string, classify Classifier, recurse bool) error {
	entries, err := os.ReadDir(r.AbsolutePath(dir))
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read directory").
			WithContext(errors.ContextPath, dir).
			Build()
	}

	for _, entry := range entries {
		entryPath := entry.Name()
		if dir != "." {
			entryPath = path.Join(dir, entry.Name())
		}

		info, err := entry.Info()
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to stat directory entry").
				WithContext(errors.ContextPath, entryPath).
				Build()
		}

		if info.IsDir() {
			if recurse {
				if err := r.registerDirectory(entryPath, classify, recurse); err != nil {
					return err
				}
			}
			continue
		}

		res, ok := classify(entryPath)
		if !ok {
			slog.Debug("Not adding file", logfields.Path(entryPath))
			continue
		}
		if err := r.Register(entryPath, res); err != nil {
			return err
		}
		slog.Info("Adding resource", logfields.Path(entryPath), logfields.Identifier(res.Identifier()))
	}
	return nil
}

// LookupByIdentifier returns the resource registered under id.
func (r *Registry) LookupByIdentifier(id string) (Resource, bool) {
	relPath, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return r.resources[relPath], true
}

// All returns a snapshot of the path to resource mapping.
func (r *Registry) All() map[string]Resource {
	return maps.Clone(r.resources)
}

// Paths returns the registered source paths in sorted order.
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.resources))
	for p := range r.resources {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Get returns the resource registered at relPath.
func (r *Registry) Get(relPath string) (Resource, bool) {
	res, ok := r.resources[relPath]
	return res, ok
}

// Len reports the number of registered resources.
func (r *Registry) Len() int {
	return len(r.resources)
}
