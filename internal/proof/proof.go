// Package proof checks that an agent published its verification marker on
// an external platform. A failed or unreachable fetch is a normal "not
// verified" outcome, never an error.
package proof

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mborders/logmatic"
)

const (
	DefaultTimeout = 5 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; AgentKred)"
	maxProofBytes  = 1 << 20
)

// Marker is the literal string an agent must publish to prove ownership.
func Marker(agentID string) string {
	return "agent-kred-verify: " + agentID
}

// Platform knows how to find the marker for one external service.
type Platform interface {
	Name() string
	Boost() int
	Check(ctx context.Context, f *Fetcher, proofURL, agentID string) bool
}

type Result struct {
	Platform string
	Verified bool
	Boost    int
}

type Validator struct {
	fetcher   *Fetcher
	platforms map[string]Platform
	log       *logmatic.Logger
}

func NewValidator(fetcher *Fetcher, log *logmatic.Logger, platforms ...Platform) *Validator {
	v := &Validator{fetcher: fetcher, platforms: make(map[string]Platform), log: log}
	for _, p := range platforms {
		v.Register(p, p.Name())
	}
	return v
}

// Register adds p under each of the given names.
func (v *Validator) Register(p Platform, names ...string) {
	for _, n := range names {
		v.platforms[strings.ToLower(n)] = p
	}
}

// Validate reports whether proofURL carries the marker for agentID. Unknown
// platforms are never verified and carry no boost.
func (v *Validator) Validate(ctx context.Context, platform, proofURL, agentID string) Result {
	p, ok := v.platforms[strings.ToLower(strings.TrimSpace(platform))]
	if !ok {
		return Result{Platform: platform}
	}

	if !p.Check(ctx, v.fetcher, proofURL, agentID) {
		v.log.Debug("proof: %s check failed for %s at %s", p.Name(), agentID, proofURL)
		return Result{Platform: p.Name()}
	}
	return Result{Platform: p.Name(), Verified: true, Boost: p.Boost()}
}

// Fetcher performs bounded GETs. Every failure collapses to ok=false.
type Fetcher struct {
	HTTP    *http.Client
	Timeout time.Duration
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		HTTP:    &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

// Get returns the body of a 2xx response.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProofBytes))
	if err != nil {
		return nil, false
	}
	return body, true
}
