package render_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ngstatic/internal/dataset"
	"github.com/vk/ngstatic/internal/directive"
	"github.com/vk/ngstatic/internal/expr"
	"github.com/vk/ngstatic/internal/render"
)

type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnings) Warn(file, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, file+": "+message)
}

func scope(t *testing.T, entries map[string]string) expr.Scope {
	t.Helper()
	data := make(expr.Scope, len(entries))
	for key, src := range entries {
		v, err := dataset.DecodeJSON([]byte(src))
		require.NoError(t, err)
		data[key] = v
	}
	return data
}

func plain() render.Options {
	opts := render.DefaultOptions()
	opts.Beautify = false
	return opts
}

const (
	docPrefix = "<html><head></head><body>"
	docSuffix = "</body></html>"
)

func TestRender(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		template string
		data     map[string]string
		want     string
		warnings []string
	}{
		{
			name:     "conditional kept",
			template: `<p *ngif="a.b">x</p>`,
			data:     map[string]string{"a": `{"b": true}`},
			want:     "<p>x</p>",
		},
		{
			name:     "conditional removed",
			template: `<p *ngif="a.b">x</p>`,
			data:     map[string]string{"a": `{"b": false}`},
			want:     "",
		},
		{
			name:     "conditional undefined",
			template: `<p *ngif="a.b">x</p>`,
			data:     map[string]string{"a": `{}`},
			want:     "",
			warnings: []string{"page.html: the expression 'a.b' is undefined!"},
		},
		{
			name:     "negated missing attribute keeps element",
			template: `<p *ngif="!user.admin">x</p>`,
			data:     map[string]string{"user": `{}`},
			want:     "<p>x</p>",
		},
		{
			name:     "object guard before attribute",
			template: `<p *ngif="user && user.active">x</p>`,
			data:     map[string]string{"user": `{"active": true}`},
			want:     "<p>x</p>",
		},
		{
			name:     "or falls back to a defined operand",
			template: `<p *ngif="site.title || site.name">{{site.title || site.name}}</p>`,
			data:     map[string]string{"site": `{"title": "T"}`},
			want:     "<p>T</p>",
		},
		{
			name:     "repeat",
			template: `<ul><li *ngfor="item of list">{{item}}</li></ul>`,
			data:     map[string]string{"list": `[1, 2, 3]`},
			want:     "<ul><li>1</li><li>2</li><li>3</li></ul>",
		},
		{
			name:     "repeat over empty list",
			template: `<ul><li *ngfor="item of list">{{item}}</li></ul>`,
			data:     map[string]string{"list": `[]`},
			want:     "<ul></ul>",
		},
		{
			name:     "placeholder resolves against the root dataset",
			template: `<p *ngif="show">{{name}}</p>`,
			data:     map[string]string{"show": `true`, "name": `"Ada"`},
			want:     "<p>Ada</p>",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			rec := &warnings{}
			r := render.New(plain(), rec)
			var out bytes.Buffer

			// --- Act ---
			err := r.Render(context.Background(), "page.html", strings.NewReader(tc.template), scope(t, tc.data), &out)

			// --- Assert ---
			require.NoError(t, err)
			require.Equal(t, docPrefix+tc.want+docSuffix, out.String())
			require.Equal(t, tc.warnings, rec.msgs)
			require.NotContains(t, out.String(), "*ng")
		})
	}
}

func TestRender_WarningsDisabled(t *testing.T) {
	t.Parallel()

	rec := &warnings{}
	opts := plain()
	opts.ShowWarnings = false
	r := render.New(opts, rec)
	var out bytes.Buffer

	err := r.Render(context.Background(), "page.html", strings.NewReader(`<p *ngif="missing">x</p>`), nil, &out)

	require.NoError(t, err)
	require.Empty(t, rec.msgs)
}

func TestRender_ConfigurationErrorWritesNothing(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := render.New(plain(), nil)
	var out bytes.Buffer
	template := `<ul><li *ngfor="item of missing">{{item}}</li></ul>`

	// --- Act ---
	err := r.Render(context.Background(), "page.html", strings.NewReader(template), expr.Scope{}, &out)

	// --- Assert ---
	var cfgErr *directive.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.True(t, errors.Is(err, directive.ErrPathNotFound))
	require.Contains(t, err.Error(), "page.html")
	require.Zero(t, out.Len())
}

func TestRender_Idempotent(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := render.New(render.DefaultOptions(), nil)
	data := scope(t, map[string]string{
		"site":  `{"title": "Home", "pages": [{"name": "a", "href": "/a"}, {"name": "b", "href": "/b"}]}`,
		"show":  `true`,
		"intro": `"Hello"`,
	})
	template := `<!DOCTYPE html><html><head><title>{{site.title}}</title></head><body>
<p *ngif="show">{{intro}}</p>
<nav><a *ngfor="let page of site.pages" href="{{page.href}}">{{page.name}}</a></nav>
</body></html>`

	// --- Act ---
	var first, second bytes.Buffer
	require.NoError(t, r.Render(context.Background(), "index.html", strings.NewReader(template), data, &first))
	require.NoError(t, r.Render(context.Background(), "index.html", strings.NewReader(template), data, &second))

	// --- Assert ---
	require.Equal(t, first.String(), second.String())
	require.Contains(t, first.String(), "<title>Home</title>")
	require.Contains(t, first.String(), `<nav><a href="/a">a</a><a href="/b">b</a></nav>`)
}

func TestRender_ConcurrentUse(t *testing.T) {
	t.Parallel()

	r := render.New(plain(), &warnings{})
	data := scope(t, map[string]string{"list": `["x", "y"]`})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out bytes.Buffer
			err := r.Render(context.Background(), "page.html",
				strings.NewReader(`<b *ngfor="v of list">{{v}}{{nope}}</b>`), data, &out)
			assert.NoError(t, err)
			assert.Equal(t, docPrefix+"<b>x</b><b>y</b>"+docSuffix, out.String())
		}()
	}
	wg.Wait()
}
