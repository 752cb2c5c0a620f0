package proof

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/mborders/logmatic"
)

const (
	GitHubBoost  = 50
	TwitterBoost = 30

	DefaultOEmbedURL = "https://publish.twitter.com/oembed"
)

// DefaultGistHosts are the only hosts a github proof is fetched from.
var DefaultGistHosts = []string{"gist.github.com", "gist.githubusercontent.com"}

// GitHub expects the marker inside a gist. Proof URLs on other hosts are
// never fetched.
type GitHub struct {
	Hosts []string
}

func (GitHub) Name() string { return "github" }
func (GitHub) Boost() int   { return GitHubBoost }

func (g GitHub) Check(ctx context.Context, f *Fetcher, proofURL, agentID string) bool {
	if !g.allowed(proofURL) {
		return false
	}
	body, ok := f.Get(ctx, RawGistURL(proofURL))
	return ok && strings.Contains(string(body), Marker(agentID))
}

func (g GitHub) allowed(proofURL string) bool {
	u, err := url.Parse(proofURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	hosts := g.Hosts
	if len(hosts) == 0 {
		hosts = DefaultGistHosts
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range hosts {
		if host == strings.ToLower(h) {
			return true
		}
	}
	return false
}

// RawGistURL points gist page URLs at their raw content.
func RawGistURL(proofURL string) string {
	if strings.Contains(proofURL, "gist.github.com") && !strings.Contains(proofURL, "/raw") {
		return strings.TrimRight(proofURL, "/") + "/raw"
	}
	return proofURL
}

// Twitter looks the post up through the oEmbed endpoint and searches the
// rendered html for the marker.
type Twitter struct {
	OEmbedURL string
}

func (Twitter) Name() string { return "twitter" }
func (Twitter) Boost() int   { return TwitterBoost }

func (t Twitter) Check(ctx context.Context, f *Fetcher, proofURL, agentID string) bool {
	body, ok := f.Get(ctx, t.oembedRequestURL(proofURL))
	if !ok {
		return false
	}
	var doc struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return false
	}
	return strings.Contains(doc.HTML, Marker(agentID))
}

func (t Twitter) oembedRequestURL(proofURL string) string {
	endpoint := t.OEmbedURL
	if endpoint == "" {
		endpoint = DefaultOEmbedURL
	}
	return endpoint + "?url=" + url.QueryEscape(CanonicalTweetURL(proofURL))
}

// CanonicalTweetURL rewrites x.com links to twitter.com, which is what the
// oEmbed endpoint understands.
func CanonicalTweetURL(proofURL string) string {
	u, err := url.Parse(proofURL)
	if err != nil || u.Host == "" {
		return proofURL
	}
	switch strings.ToLower(u.Host) {
	case "x.com":
		u.Host = "twitter.com"
	case "www.x.com":
		u.Host = "www.twitter.com"
	case "mobile.x.com":
		u.Host = "mobile.twitter.com"
	}
	return u.String()
}

// Options points the platforms at their endpoints. Zero values use the
// public defaults.
type Options struct {
	OEmbedURL string
	GistHosts []string
}

// Default builds a validator with every supported platform; x is an alias
// of twitter.
func Default(f *Fetcher, opts Options, log *logmatic.Logger) *Validator {
	v := NewValidator(f, log, GitHub{Hosts: opts.GistHosts})
	v.Register(Twitter{OEmbedURL: opts.OEmbedURL}, "twitter", "x")
	return v
}
