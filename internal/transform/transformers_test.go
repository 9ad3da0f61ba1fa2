package transform

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/render/highlight"
	"git.home.luguber.info/inful/sitebuilder/internal/render/katex"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
)

type page struct {
	id  string
	out string
}

func (p page) Identifier() string { return p.id }
func (p page) OutputPath() string { return p.out }

type fakeMath struct {
	calls []katex.Options
	err   error
}

func (f *fakeMath) Version() string { return "0.16.9" }

func (f *fakeMath) RenderMath(tex string, opts katex.Options) (string, error) {
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf(`<span class="katex" data-display="%t">%s</span>`, opts.Display, tex), nil
}

func siteContext(t *testing.T, source string) *Context {
	t.Helper()
	reg := resource.NewRegistry("/project")
	require.NoError(t, reg.Register("blog/post1.html", page{id: "blog/post1", out: "blog/post1.html"}))
	require.NoError(t, reg.Register("about/index.html", page{id: "about", out: "about/index.html"}))
	require.NoError(t, reg.Register("index.html", page{id: "index", out: "index.html"}))
	res, _ := reg.Get(source)
	return &Context{Resource: res, SourcePath: source, Resources: reg}
}

func TestVariables(t *testing.T) {
	vars := NewVariables(map[string]string{"name": "Alice"})

	t.Run("sigil tag becomes text", func(t *testing.T) {
		out, err := Walk(mustParse(t, "<$name/>"), []Transformer{vars}, &Context{})
		require.NoError(t, err)
		assert.Equal(t, []markup.Node{&markup.Text{Data: "Alice"}}, out)
	})

	t.Run("sigil tag discards children", func(t *testing.T) {
		assert.Equal(t, "<p>Alice</p>", walkString(t, "<p><$name>ignored <b>x</b></$name></p>", vars))
	})

	t.Run("attribute values", func(t *testing.T) {
		got := walkString(t, `<div class="$name" id="main">hi</div>`, vars)
		assert.Equal(t, `<div class="Alice" id="main">hi</div>`, got)
	})

	t.Run("children still walked", func(t *testing.T) {
		got := walkString(t, `<div title="$name"><span><$name/></span></div>`, vars)
		assert.Equal(t, `<div title="Alice"><span>Alice</span></div>`, got)
	})

	t.Run("unknown variable", func(t *testing.T) {
		_, err := Walk(mustParse(t, "<p><$unknown/></p>"), []Transformer{vars}, &Context{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "$unknown")
		ce, ok := errors.AsClassified(err)
		require.True(t, ok)
		ref, _ := ce.Context().GetString(errors.ContextReference)
		assert.Equal(t, "$unknown", ref)
	})

	t.Run("unknown attribute variable", func(t *testing.T) {
		_, err := Walk(mustParse(t, `<a class="$missing"></a>`), []Transformer{vars}, &Context{})
		require.Error(t, err)
		ce, ok := errors.AsClassified(err)
		require.True(t, ok)
		attr, _ := ce.Context().GetString(errors.ContextAttribute)
		assert.Equal(t, "class", attr)
	})
}

func TestLinks(t *testing.T) {
	links := NewLinks()

	t.Run("relative to source directory", func(t *testing.T) {
		ctx := siteContext(t, "blog/post1.html")
		out, err := Walk(mustParse(t, `<a href="@about" class="nav">About</a>`), []Transformer{links}, ctx)
		require.NoError(t, err)
		assert.Equal(t, `<a href="../about/index.html" class="nav">About</a>`, markup.Render(out))
	})

	t.Run("source at root keeps output path", func(t *testing.T) {
		ctx := siteContext(t, "index.html")
		out, err := Walk(mustParse(t, `<a href="@blog/post1">Post</a>`), []Transformer{links}, ctx)
		require.NoError(t, err)
		assert.Equal(t, `<a href="blog/post1.html">Post</a>`, markup.Render(out))
	})

	t.Run("same directory", func(t *testing.T) {
		ctx := siteContext(t, "about/index.html")
		out, err := Walk(mustParse(t, `<a href="@about">Self</a>`), []Transformer{links}, ctx)
		require.NoError(t, err)
		assert.Equal(t, `<a href="index.html">Self</a>`, markup.Render(out))
	})

	t.Run("unknown identifier", func(t *testing.T) {
		ctx := siteContext(t, "blog/post1.html")
		_, err := Walk(mustParse(t, `<a href="@missing">x</a>`), []Transformer{links}, ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown identifier: @missing")
		assert.True(t, errors.HasCategory(err, errors.CategoryTransform))
	})
}

func TestRelativeLink(t *testing.T) {
	tests := []struct {
		source, target, want string
	}{
		{"blog/post1.html", "about/index.html", "../about/index.html"},
		{"blog/2024/post.html", "blog/index.html", "../index.html"},
		{"index.html", "about/index.html", "about/index.html"},
		{"docs/a.html", "docs/b.html", "b.html"},
	}
	for _, tt := range tests {
		got, err := RelativeLink(tt.source, tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.source, tt.target)
	}
}

func TestMath(t *testing.T) {
	t.Run("prelude", func(t *testing.T) {
		got := walkString(t, "<head><katex-prelude></katex-prelude></head>", NewMath(&fakeMath{}))
		assert.Equal(t,
			`<head><link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/katex.min.css"></head>`,
			got)
	})

	t.Run("display and inline", func(t *testing.T) {
		engine := &fakeMath{}
		got := walkString(t, "<katex>a &lt; b</katex><p>x <$>y^2</$></p>", NewMath(engine))
		assert.Equal(t,
			`<span class="katex" data-display="true">a < b</span><p>x <span class="katex" data-display="false">y^2</span></p>`,
			got)
		require.Len(t, engine.calls, 2)
		assert.Equal(t, katex.Options{Output: "html", Trust: true, Display: true}, engine.calls[0])
		assert.Equal(t, katex.Options{Output: "html", Trust: true, Display: false}, engine.calls[1])
	})

	t.Run("output is not walked", func(t *testing.T) {
		got := walkString(t, "<$>$name</$>", NewMath(&fakeMath{}), NewVariables(map[string]string{}))
		assert.Contains(t, got, "$name")
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := Walk(mustParse(t, "<katex><b>x</b></katex>"), []Transformer{NewMath(&fakeMath{})}, &Context{})
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryMissingBody))
		assert.Contains(t, err.Error(), "malformed body")

		_, err = Walk(mustParse(t, "<katex></katex>"), []Transformer{NewMath(&fakeMath{})}, &Context{})
		assert.True(t, errors.HasCategory(err, errors.CategoryMissingBody))
	})

	t.Run("engine failure", func(t *testing.T) {
		cause := fmt.Errorf("ParseError: KaTeX parse error")
		_, err := Walk(mustParse(t, "<$>\\frac</$>"), []Transformer{NewMath(&fakeMath{err: cause})}, &Context{})
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryRender))
		assert.ErrorIs(t, err, cause)
	})
}

func TestDeindent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"\n    line1\n    line2\n", "line1\nline2"},
		{"\n  if x {\n    y()\n  }\n  ", "if x {\n  y()\n}"},
		{"no indent\n  kept", "no indent\n  kept"},
		{"\n    a\n  short\n    b", "a\n  short\nb"},
		{"", ""},
		{"\n    a\n    b\n\u00a0", "a\nb"},
		{"\n  x\u3000\t\r\n", "x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Deindent(tt.in), "input %q", tt.in)
	}
}

func TestHighlight(t *testing.T) {
	engine := highlight.New()

	t.Run("block", func(t *testing.T) {
		out, err := Walk(mustParse(t, "<pre-hl lang=\"go\">\n    func main() {}\n</pre-hl>"),
			[]Transformer{NewHighlight(engine, "monokai")}, &Context{})
		require.NoError(t, err)
		require.Len(t, out, 1)
		el, ok := out[0].(*markup.Element)
		require.True(t, ok)
		assert.Equal(t, "pre", el.Name)
		last := el.Attrs[len(el.Attrs)-1]
		assert.Equal(t, markup.Attr{Key: "style", Val: "background: #272822;"}, last)
		assert.Contains(t, markup.Render(out), "main")
	})

	t.Run("inline retags as code", func(t *testing.T) {
		out, err := Walk(mustParse(t, `<p><code-hl lang="py">x = 1</code-hl></p>`),
			[]Transformer{NewHighlight(engine, "monokai")}, &Context{})
		require.NoError(t, err)
		p := out[0].(*markup.Element)
		code, ok := p.Children[0].(*markup.Element)
		require.True(t, ok)
		assert.Equal(t, "code", code.Name)
	})

	errorCases := []struct {
		name     string
		src      string
		theme    string
		category errors.ErrorCategory
		message  string
	}{
		{"element child", `<pre-hl lang="go"><b>x</b></pre-hl>`, "monokai", errors.CategoryMissingBody, "must contain only text children"},
		{"missing lang", `<pre-hl>x := 1</pre-hl>`, "monokai", errors.CategoryMissingAttr, "missing lang= attribute"},
		{"unknown language", `<pre-hl lang="nope-lang">x</pre-hl>`, "monokai", errors.CategoryTransform, "unknown language nope-lang"},
		{"unknown theme", `<pre-hl lang="go">x</pre-hl>`, "no-such-theme", errors.CategoryTransform, "no such theme no-such-theme"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Walk(mustParse(t, tc.src), []Transformer{NewHighlight(engine, tc.theme)}, &Context{})
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, tc.category), "got %v", err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestSinglePre(t *testing.T) {
	pre := markup.NewElement("pre", nil)
	root, ok := singlePre([]markup.Node{markup.NewText("\n"), pre, markup.NewText(" ")})
	assert.True(t, ok)
	assert.Same(t, pre, root)

	_, ok = singlePre([]markup.Node{markup.NewElement("div", nil)})
	assert.False(t, ok)
	_, ok = singlePre([]markup.Node{pre, markup.NewElement("pre", nil)})
	assert.False(t, ok)
	_, ok = singlePre([]markup.Node{markup.NewText("x"), pre})
	assert.False(t, ok)
	_, ok = singlePre(nil)
	assert.False(t, ok)
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) IncTransform(name string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[name+"/"+string(result)]++
}

func TestInstrument(t *testing.T) {
	rec := &countingRecorder{}
	transformers := InstrumentAll([]Transformer{
		NewVariables(map[string]string{"name": "Alice"}),
	}, rec)

	assert.Equal(t, "variables", Describe(transformers))
	got := walkString(t, "<p><$name/> and <$name/></p>", transformers...)
	assert.Equal(t, "<p>Alice and Alice</p>", got)

	_, err := Walk(mustParse(t, "<$nope/>"), transformers, &Context{})
	require.Error(t, err)

	assert.Equal(t, 2, rec.counts["variables/success"])
	assert.Equal(t, 1, rec.counts["variables/failed"])

	assert.Same(t, transformers[0], Instrument(transformers[0], nil))
}
