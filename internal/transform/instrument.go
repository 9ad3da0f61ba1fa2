package transform

import (
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

type instrumented struct {
	Transformer
	recorder metrics.Recorder
}

// Instrument wraps t so each Replace call is counted on rec.
func Instrument(t Transformer, rec metrics.Recorder) Transformer {
	if rec == nil {
		return t
	}
	return &instrumented{Transformer: t, recorder: rec}
}

// InstrumentAll wraps every transformer in transformers.
func InstrumentAll(transformers []Transformer, rec metrics.Recorder) []Transformer {
	out := make([]Transformer, len(transformers))
	for i, t := range transformers {
		out[i] = Instrument(t, rec)
	}
	return out
}

func (i *instrumented) Replace(tag string, attrs []markup.Attr, children []markup.Node, ctx *Context) ([]markup.Node, error) {
	nodes, err := i.Transformer.Replace(tag, attrs, children, ctx)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailed
	}
	i.recorder.IncTransform(i.Name(), result)
	return nodes, err
}
