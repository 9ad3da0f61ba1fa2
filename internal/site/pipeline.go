package site

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/processor"
	"git.home.luguber.info/inful/sitebuilder/internal/render/highlight"
	"git.home.luguber.info/inful/sitebuilder/internal/render/katex"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
	"git.home.luguber.info/inful/sitebuilder/internal/transform"
)

// Engines holds the rendering engines shared by all documents of a build.
// A nil engine disables the corresponding transformer.
type Engines struct {
	Math      transform.MathEngine
	Highlight *highlight.Engine
}

// NewEngines constructs the engines enabled in cfg.
func NewEngines(ctx context.Context, cfg *config.Config) (*Engines, error) {
	engines := &Engines{}
	if cfg.Math.Enabled {
		cli, err := katex.New(ctx, cfg.Math.Binary, cfg.Math.Version)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "math rendering is enabled but katex is unavailable").
				WithContext("binary", cfg.Math.Binary).
				Fatal().
				Build()
		}
		engines.Math = cli
	}
	if cfg.Highlight.Enabled {
		engine := highlight.New()
		if _, ok := engine.Theme(cfg.Highlight.Theme); !ok {
			return nil, errors.ValidationError("no such theme "+cfg.Highlight.Theme).
				WithContext(errors.ContextReference, cfg.Highlight.Theme).
				Build()
		}
		engines.Highlight = engine
	}
	return engines, nil
}

// Pipeline maps resources to the processors that generate them.
type Pipeline struct {
	transformers []transform.Transformer
	html         *processor.HTML
	markdown     *processor.Markdown
}

// NewPipeline builds the ordered transformer list: math, highlight,
// variables, links. Math runs before variables so <$> is typeset rather than
// looked up as a variable with an empty name.
func NewPipeline(cfg *config.Config, engines *Engines, rec metrics.Recorder) *Pipeline {
	var transformers []transform.Transformer
	if engines != nil && engines.Math != nil {
		transformers = append(transformers, transform.NewMath(engines.Math))
	}
	if engines != nil && engines.Highlight != nil {
		transformers = append(transformers, transform.NewHighlight(engines.Highlight, cfg.Highlight.Theme))
	}
	transformers = append(transformers, transform.NewVariables(cfg.Variables))
	if cfg.Links.Enabled {
		transformers = append(transformers, transform.NewLinks())
	}
	transformers = transform.InstrumentAll(transformers, rec)

	p := &Pipeline{
		transformers: transformers,
		html:         &processor.HTML{Transformers: transformers, Trim: cfg.Output.Trim},
		markdown:     processor.NewMarkdown(transformers, cfg.Output.Trim, nil),
	}
	slog.Debug("Assembled transform pipeline", "transformers", transform.Describe(transformers))
	return p
}

// Transformers returns the ordered transformer list.
func (p *Pipeline) Transformers() []transform.Transformer {
	return p.transformers
}

// ProcessorFor selects the processor for a registered resource.
func (p *Pipeline) ProcessorFor(_ string, res resource.Resource) processor.Processor {
	page, ok := res.(*Page)
	if !ok {
		return processor.Identity{}
	}
	switch page.Kind {
	case KindHTML:
		return p.html
	case KindMarkdown:
		return p.markdown
	default:
		return processor.Identity{}
	}
}
