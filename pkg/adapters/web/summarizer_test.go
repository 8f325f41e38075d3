package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scout/pkg/domain"
)

const careers = `<!doctype html>
<html>
<head><title> Acme Careers </title><style>body{color:red}</style></head>
<body>
  <script>var tracking = 1;</script>
  <h1>Open roles</h1>
  <ul>
    <li><a href="/jobs/1">Backend Engineer</a></li>
    <li><a href="https://boards.example.com/acme/2">Data Scientist</a></li>
    <li><a href="#top">Back to top</a></li>
  </ul>
</body>
</html>`

func TestExtract(t *testing.T) {
	base, _ := url.Parse("https://acme.io/careers")

	page, err := Extract(strings.NewReader(careers), base)
	require.NoError(t, err)

	assert.Equal(t, "Acme Careers", page.Title)
	assert.Contains(t, page.Text, "Open roles")
	assert.NotContains(t, strings.Join(page.Text, " "), "tracking")
	assert.NotContains(t, strings.Join(page.Text, " "), "color:red")
	assert.Equal(t, []Link{
		{Text: "Backend Engineer", Href: "https://acme.io/jobs/1"},
		{Text: "Data Scientist", Href: "https://boards.example.com/acme/2"},
	}, page.Links)
}

func TestSummarizer_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/careers":
			assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(careers))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewSummarizer(WithHTTPClient(srv.Client()))

	t.Run("Summarizes Page", func(t *testing.T) {
		out, err := s.Invoke(context.Background(), map[string]any{"url": srv.URL + "/careers"})
		require.NoError(t, err)

		assert.Contains(t, out, "Title: Acme Careers")
		assert.Contains(t, out, "- Backend Engineer -> "+srv.URL+"/jobs/1")
	})

	t.Run("HTTP Error Status", func(t *testing.T) {
		_, err := s.Invoke(context.Background(), map[string]any{"url": srv.URL + "/missing"})
		assert.ErrorContains(t, err, "status 404")
	})

	t.Run("Rejects Invalid URL", func(t *testing.T) {
		for _, raw := range []string{"", "acme.io", "ftp://acme.io"} {
			_, err := s.Invoke(context.Background(), map[string]any{"url": raw})
			assert.ErrorIs(t, err, ErrInvalidURL, raw)
		}
	})

	t.Run("Rejects Wrong Argument Type", func(t *testing.T) {
		_, err := s.Invoke(context.Background(), map[string]any{"url": []any{1}})
		assert.Error(t, err)
	})

	t.Run("Truncates To Budget", func(t *testing.T) {
		short := NewSummarizer(WithHTTPClient(srv.Client()), WithMaxChars(10))
		out, err := short.Invoke(context.Background(), map[string]any{"url": srv.URL + "/careers"})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(out, "[truncated]"))
	})
}

func TestSummarizer_Spec(t *testing.T) {
	spec := NewSummarizer().Spec()
	assert.Equal(t, ToolName, spec.Name)
	assert.Equal(t, domain.ToolGroupWeb, spec.Group)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "hé\n[truncated]", Truncate("héllo", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
