package fetch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

func TestPostingTextExtractsVisibleHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("User-Agent"), "talentscout")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<!doctype html><html><head><title>ignore</title>
			<script>var x = "hidden";</script><style>.a{}</style></head>
			<body><h1>Platform Engineer</h1><p>Remote, Norway</p>
			<ul><li>Go</li><li>Kubernetes</li></ul></body></html>`))
	}))
	defer srv.Close()

	f := New(srv.Client(), nil)
	text, err := f.PostingText(srv.URL)
	require.NoError(t, err)
	require.Contains(t, text, "Platform Engineer")
	require.Contains(t, text, "Remote, Norway")
	require.Contains(t, text, "Kubernetes")
	require.NotContains(t, text, "hidden")
	require.NotContains(t, text, "ignore")
}

func TestPostingTextPassesMarkdownThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("# Engineer\n\n\n\nGreat  job   here\n\n"))
	}))
	defer srv.Close()

	f := New(srv.Client(), nil)
	text, err := f.PostingText(srv.URL)
	require.NoError(t, err)
	require.Equal(t, "# Engineer\n\nGreat job here", text)
}

func TestPostingTextNon2xxIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(srv.Client(), nil)
	_, err := f.PostingText(srv.URL)
	require.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestPostingTextCapsLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("a", TextCap+5000)))
	}))
	defer srv.Close()

	f := New(srv.Client(), nil)
	text, err := f.PostingText(srv.URL)
	require.NoError(t, err)
	require.Len(t, text, TextCap)
}

func TestExtractTextOnPlainInput(t *testing.T) {
	require.Equal(t, "just words", ExtractText("just   words"))
}
