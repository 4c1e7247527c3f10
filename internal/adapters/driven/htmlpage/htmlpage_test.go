package htmlpage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/extract"
)

const fixture = `<!DOCTYPE html>
<html>
<head><title> Quarterly report </title></head>
<body>
  <h1>Results</h1>
  <p style="color: red; display:none">Secret paragraph</p>
  <p hidden>Also hidden</p>
  <div style="visibility: hidden">Invisible</div>
  <a href="/about">About us</a>
  <!-- a comment -->
  <table><tr><th>Q</th><th>Revenue</th></tr><tr><td>Q1</td><td>10</td></tr></table>
</body>
</html>`

func TestParse(t *testing.T) {
	snap, err := Parse([]byte(fixture), "https://example.com/reports/q1")
	require.NoError(t, err)

	assert.Equal(t, "Quarterly report", snap.Page.Title)
	assert.Equal(t, "https://example.com/reports/q1", snap.Page.URL)
	assert.Equal(t, "body", snap.Root.Tag)

	els := snap.Root.Elements()
	require.Len(t, els, 6)
	assert.Equal(t, "none", els[1].Display)
	assert.Equal(t, "none", els[2].Display)
	assert.Equal(t, "hidden", els[3].Visibility)
	assert.Equal(t, "https://example.com/about", els[4].AttrOr("href"))
}

func TestParse_BaseHref(t *testing.T) {
	doc := `<html><head><base href="https://cdn.example.org/docs/"></head><body><a href="intro">Intro</a></body></html>`
	snap, err := Parse([]byte(doc), "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.org/docs/intro", snap.Root.Elements()[0].AttrOr("href"))
}

func TestParse_FeedsExtractor(t *testing.T) {
	snap, err := Parse([]byte(fixture), "https://example.com/")
	require.NoError(t, err)

	doc := extract.Document(snap)
	var texts []string
	for _, n := range doc.Content {
		texts = append(texts, n.Text)
	}
	assert.Contains(t, texts, "Results")
	assert.Contains(t, texts, "About us")
	assert.NotContains(t, texts, "Secret paragraph")
	assert.NotContains(t, texts, "Also hidden")
	assert.NotContains(t, texts, "Invisible")
	require.Len(t, doc.Tables(), 1)
	assert.Equal(t, [][]string{{"Q", "Revenue"}, {"Q1", "10"}}, doc.Tables()[0].Rows)
}

func TestInlineVisibility(t *testing.T) {
	tests := []struct {
		name           string
		attrs          map[string]string
		wantDisplay    string
		wantVisibility string
	}{
		{"none", nil, "", ""},
		{"display", map[string]string{"style": "DISPLAY: None"}, "none", ""},
		{"not a prefix match", map[string]string{"style": "text-display: none"}, "", ""},
		{"visibility", map[string]string{"style": "margin:0; visibility:hidden"}, "", "hidden"},
		{"hidden attribute", map[string]string{"hidden": ""}, "none", ""},
		{"style wins over hidden", map[string]string{"hidden": "", "style": "display:block"}, "block", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, v := inlineVisibility(tt.attrs)
			assert.Equal(t, tt.wantDisplay, d)
			assert.Equal(t, tt.wantVisibility, v)
		})
	}
}

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pagechat/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fixture))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusFound)
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher(t *testing.T) {
	srv := newPageServer(t)
	f := NewFetcher(Config{})
	ctx := context.Background()

	page, err := f.Fetch(ctx, srv.URL+"/moved")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/page", page.URL)
	assert.Contains(t, string(page.Body), "Quarterly report")

	_, err = f.Fetch(ctx, srv.URL+"/json")
	assert.ErrorContains(t, err, "unsupported content type")

	_, err = f.Fetch(ctx, srv.URL+"/gone")
	assert.ErrorContains(t, err, "http 410")
}

func TestSnapshotSource(t *testing.T) {
	srv := newPageServer(t)
	src := NewSnapshotSource(NewFetcher(Config{}))
	defer src.Close()

	snap, err := src.Snapshot(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/about", snap.Root.Elements()[4].AttrOr("href"))

	_, err = src.Snapshot(context.Background(), srv.URL+"/gone")
	assert.Error(t, err)
}

func TestDigester(t *testing.T) {
	srv := newPageServer(t)
	d := NewDigester(NewFetcher(Config{}))

	md, err := d.Digest(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, md, "# Results")
	assert.Contains(t, md, "[About us]("+srv.URL+"/about)")
	assert.Contains(t, md, "| Q1")

	_, err = d.Convert("<html><body>   </body></html>", "https://example.com/")
	assert.Error(t, err)
}
