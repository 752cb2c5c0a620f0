package proof

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentkred/kred/internal/logger"
)

func newTestValidator(oembedURL string, timeout time.Duration) *Validator {
	return Default(NewFetcher(timeout), Options{
		OEmbedURL: oembedURL,
		GistHosts: []string{"127.0.0.1"},
	}, logger.Discard())
}

func TestGitHubProof(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good":
			_, _ = w.Write([]byte("hello\nagent-kred-verify: bot-1\n"))
		case "/other":
			_, _ = w.Write([]byte("agent-kred-verify: bot-2"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	v := newTestValidator("", time.Second)
	ctx := context.Background()

	res := v.Validate(ctx, "github", ts.URL+"/good", "bot-1")
	assert.True(t, res.Verified)
	assert.Equal(t, GitHubBoost, res.Boost)
	assert.Equal(t, "github", res.Platform)

	assert.False(t, v.Validate(ctx, "github", ts.URL+"/other", "bot-1").Verified)
	assert.False(t, v.Validate(ctx, "github", ts.URL+"/missing", "bot-1").Verified)
	assert.Equal(t, 0, v.Validate(ctx, "github", ts.URL+"/missing", "bot-1").Boost)
}

func TestGitHubProofRejectsOtherHosts(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("agent-kred-verify: bot-1"))
	}))
	defer ts.Close()

	ctx := context.Background()
	v := Default(NewFetcher(time.Second), Options{}, logger.Discard())

	res := v.Validate(ctx, "github", ts.URL+"/not-a-gist", "bot-1")
	assert.False(t, res.Verified)
	assert.Equal(t, 0, res.Boost)
	assert.Zero(t, hits.Load())

	assert.False(t, v.Validate(ctx, "github", "https://evil.example.com/gist.github.com/raw", "bot-1").Verified)
	assert.False(t, v.Validate(ctx, "github", "file:///etc/passwd", "bot-1").Verified)
}

func TestGitHubAllowedHosts(t *testing.T) {
	g := GitHub{}
	assert.True(t, g.allowed("https://gist.github.com/bot/abc"))
	assert.True(t, g.allowed("https://GIST.GITHUBUSERCONTENT.COM/bot/abc/raw/f.txt"))
	assert.False(t, g.allowed("https://gist.github.com.evil.io/bot/abc"))
	assert.False(t, g.allowed("https://github.com/bot/abc"))
	assert.False(t, g.allowed("ftp://gist.github.com/bot/abc"))

	local := GitHub{Hosts: []string{"127.0.0.1"}}
	assert.True(t, local.allowed("http://127.0.0.1:8080/gist"))
	assert.False(t, local.allowed("https://gist.github.com/bot/abc"))
}

func TestTwitterProofThroughOEmbed(t *testing.T) {
	var gotURL, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"html": `<blockquote><p>agent-kred-verify: bot-1</p></blockquote>`,
		})
	}))
	defer ts.Close()

	v := newTestValidator(ts.URL, time.Second)

	res := v.Validate(context.Background(), "x", "https://x.com/bot/status/1", "bot-1")
	require.True(t, res.Verified)
	assert.Equal(t, TwitterBoost, res.Boost)
	assert.Equal(t, "twitter", res.Platform)
	assert.Equal(t, "https://twitter.com/bot/status/1", gotURL)
	assert.Contains(t, gotUA, "AgentKred")

	assert.False(t, v.Validate(context.Background(), "twitter", "https://twitter.com/bot/status/1", "bot-9").Verified)
}

func TestTwitterProofBadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("agent-kred-verify: bot-1"))
	}))
	defer ts.Close()

	v := newTestValidator(ts.URL, time.Second)
	assert.False(t, v.Validate(context.Background(), "twitter", "https://twitter.com/a/status/1", "bot-1").Verified)
}

func TestUnknownPlatform(t *testing.T) {
	v := newTestValidator("", time.Second)
	res := v.Validate(context.Background(), "myspace", "https://myspace.com/bot", "bot-1")
	assert.False(t, res.Verified)
	assert.Equal(t, 0, res.Boost)
}

func TestTimeoutIsNotVerified(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	v := newTestValidator("", 50*time.Millisecond)
	start := time.Now()
	res := v.Validate(context.Background(), "github", ts.URL, "bot-1")
	assert.False(t, res.Verified)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCancelledContextIsNotVerified(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("agent-kred-verify: bot-1"))
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := newTestValidator("", time.Second)
	assert.False(t, v.Validate(ctx, "github", ts.URL, "bot-1").Verified)
}

func TestUnreachableHostIsNotVerified(t *testing.T) {
	v := newTestValidator("", 200*time.Millisecond)
	assert.False(t, v.Validate(context.Background(), "github", "http://127.0.0.1:1/raw", "bot-1").Verified)
	assert.False(t, v.Validate(context.Background(), "github", "::not a url", "bot-1").Verified)
}

func TestRawGistURL(t *testing.T) {
	assert.Equal(t, "https://gist.github.com/bot/abc/raw", RawGistURL("https://gist.github.com/bot/abc"))
	assert.Equal(t, "https://gist.github.com/bot/abc/raw", RawGistURL("https://gist.github.com/bot/abc/"))
	assert.Equal(t, "https://gist.github.com/bot/abc/raw/file.txt", RawGistURL("https://gist.github.com/bot/abc/raw/file.txt"))
	assert.Equal(t, "https://example.com/proof.txt", RawGistURL("https://example.com/proof.txt"))
}

func TestCanonicalTweetURL(t *testing.T) {
	assert.Equal(t, "https://twitter.com/a/status/1", CanonicalTweetURL("https://x.com/a/status/1"))
	assert.Equal(t, "https://twitter.com/a/status/1", CanonicalTweetURL("https://twitter.com/a/status/1"))
	assert.Equal(t, "https://www.twitter.com/a", CanonicalTweetURL("https://www.x.com/a"))
	assert.Equal(t, "https://example.com/x.com", CanonicalTweetURL("https://example.com/x.com"))
}
