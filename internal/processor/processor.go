// Package processor turns one registered resource into output bytes.
package processor

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
	"git.home.luguber.info/inful/sitebuilder/internal/transform"
)

// Processor produces the generated content for a resource. sourcePath is
// slash separated and relative to the registry root. Implementations must be
// safe for concurrent use once the registry is fully populated.
type Processor interface {
	Name() string
	Process(res resource.Resource, sourcePath string, reg *resource.Registry) ([]byte, error)
}

// Identity copies the source file unchanged.
type Identity struct{}

func (Identity) Name() string { return "IdentityProcessor" }

func (Identity) Process(_ resource.Resource, sourcePath string, reg *resource.Registry) ([]byte, error) {
	return readSource(sourcePath, reg)
}

// HTML parses the source as markup, walks it through Transformers and
// serializes the result.
type HTML struct {
	Transformers []transform.Transformer
	// Trim removes insignificant whitespace before serializing.
	Trim bool
	// Data is passed to transformers as Context.Data.
	Data any
}

func (h *HTML) Name() string {
	return fmt.Sprintf("HTMLProcessor(%s)", transform.Describe(h.Transformers))
}

func (h *HTML) Process(res resource.Resource, sourcePath string, reg *resource.Registry) ([]byte, error) {
	src, err := readSource(sourcePath, reg)
	if err != nil {
		return nil, err
	}
	return h.transform(string(src), res, sourcePath, reg)
}

func (h *HTML) transform(src string, res resource.Resource, sourcePath string, reg *resource.Registry) ([]byte, error) {
	nodes, err := markup.Parse(src)
	if err != nil {
		return nil, errors.ParseError(err, "failed to parse markup").
			WithContext(errors.ContextPath, sourcePath).
			Build()
	}

	ctx := &transform.Context{
		Resource:   res,
		SourcePath: sourcePath,
		Resources:  reg,
		Data:       h.Data,
	}
	nodes, err = transform.Walk(nodes, h.Transformers, ctx)
	if err != nil {
		if !errors.IsClassified(err) {
			err = errors.WrapError(err, errors.CategoryTransform, "transformation failed").Build()
		}
		return nil, errors.Annotate(err, errors.ContextPath, sourcePath)
	}

	if h.Trim {
		nodes = markup.Trim(nodes)
	}
	out := markup.Render(nodes)
	slog.Debug("Transformed document", logfields.Path(sourcePath), logfields.Bytes(len(out)))
	return []byte(out), nil
}

func readSource(sourcePath string, reg *resource.Registry) ([]byte, error) {
	data, err := os.ReadFile(reg.AbsolutePath(sourcePath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read source file").
			WithContext(errors.ContextPath, sourcePath).
			Build()
	}
	return data, nil
}
