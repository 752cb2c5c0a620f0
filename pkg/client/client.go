// Package client is a Go SDK for the AgentKred API. Mutating calls are
// signed with the agent's Ed25519 key.
package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Error struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("kred: status=%d code=%s fields=%v", e.StatusCode, e.Code, e.Fields)
	}
	return fmt.Sprintf("kred: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
}

type Agent struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	PublicKey         string    `json:"public_key"`
	Bio               *string   `json:"bio"`
	Tags              *string   `json:"tags"`
	SocialLinks       *string   `json:"social_links"`
	TrustScore        int       `json:"trust_score"`
	VerificationScore int       `json:"verification_score"`
	ReviewScore       int       `json:"review_score"`
	MoltbookKarma     int       `json:"moltbook_karma"`
	StakedAmount      float64   `json:"staked_amount"`
	StakingTxHash     *string   `json:"staking_tx_hash,omitempty"`
	LastActiveAt      time.Time `json:"last_active_at"`
	CreatedAt         time.Time `json:"created_at"`
}

type Review struct {
	ID           string    `json:"id"`
	ReviewerID   string    `json:"reviewer_id"`
	TargetID     string    `json:"target_id"`
	Score        int       `json:"score"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
}

type Verification struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	Platform   string    `json:"platform"`
	ProofURL   string    `json:"proof_url"`
	IsVerified bool      `json:"is_verified"`
	VerifiedAt time.Time `json:"verified_at"`
}

type VerifyResult struct {
	Status        string `json:"status"`
	ScoreAdded    int    `json:"score_added"`
	NewTrustScore int    `json:"new_trust_score"`
	Message       string `json:"message"`
}

type ReviewResult struct {
	Status        string `json:"status"`
	ScoreBoost    int    `json:"score_boost"`
	NewTrustScore int    `json:"new_trust_score"`
	Message       string `json:"message"`
}

type ProfileUpdate struct {
	Name        string            `json:"name,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	identity   *Identity
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithClock overrides the clock used for X-Timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient returns a client for baseURL. identity may be nil for read-only use.
func NewClient(baseURL string, identity *Identity, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		identity:   identity,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Register(ctx context.Context, name string) (*Agent, error) {
	if c.identity == nil {
		return nil, errors.New("kred: register requires an identity")
	}
	body := map[string]string{
		"id":         c.identity.AgentID,
		"name":       name,
		"public_key": c.identity.PublicKeyHex(),
	}
	var agent Agent
	if err := c.signed(ctx, "/register", body, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Agent, error) {
	var agent Agent
	if err := c.signed(ctx, "/agent/update", update, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) Verify(ctx context.Context, platform, proofURL string) (*VerifyResult, error) {
	if c.identity == nil {
		return nil, errors.New("kred: verify requires an identity")
	}
	body := map[string]string{
		"agent_id":  c.identity.AgentID,
		"platform":  platform,
		"proof_url": proofURL,
	}
	var res VerifyResult
	if err := c.signed(ctx, "/verify", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Review(ctx context.Context, targetID string, score int, comment string) (*ReviewResult, error) {
	if c.identity == nil {
		return nil, errors.New("kred: review requires an identity")
	}
	body := map[string]any{
		"reviewer_id": c.identity.AgentID,
		"target_id":   targetID,
		"score":       score,
		"comment":     comment,
	}
	var res ReviewResult
	if err := c.signed(ctx, "/review", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Stake(ctx context.Context, txHash string, amount float64) (*Agent, error) {
	if c.identity == nil {
		return nil, errors.New("kred: stake requires an identity")
	}
	body := map[string]any{
		"agent_id": c.identity.AgentID,
		"tx_hash":  txHash,
		"amount":   amount,
	}
	var agent Agent
	if err := c.signed(ctx, "/stake", body, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) GetAgent(ctx context.Context, id string) (*Agent, error) {
	var agent Agent
	if err := c.get(ctx, "/agent/"+url.PathEscape(id), &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) Reviews(ctx context.Context, id string) ([]Review, error) {
	var reviews []Review
	if err := c.get(ctx, "/agent/"+url.PathEscape(id)+"/reviews", &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (c *Client) Verifications(ctx context.Context, id string) ([]Verification, error) {
	var verifications []Verification
	if err := c.get(ctx, "/agent/"+url.PathEscape(id)+"/verifications", &verifications); err != nil {
		return nil, err
	}
	return verifications, nil
}

// Top returns the leaderboard. Empty sortBy and zero limit use server defaults.
func (c *Client) Top(ctx context.Context, sortBy string, limit int) ([]Agent, error) {
	q := url.Values{}
	if sortBy != "" {
		q.Set("sort_by", sortBy)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/agents/top"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var agents []Agent
	if err := c.get(ctx, path, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) signed(ctx context.Context, path string, body, out any) error {
	if c.identity == nil {
		return errors.New("kred: signed requests require an identity")
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.sign(req, raw)
	return c.do(req, out)
}

// sign sets the auth headers. The signed path is the one the server sees.
func (c *Client) sign(req *http.Request, body []byte) {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	msg := make([]byte, 0, len(req.Method)+len(req.URL.Path)+len(ts)+len(body))
	msg = append(msg, req.Method...)
	msg = append(msg, req.URL.Path...)
	msg = append(msg, ts...)
	msg = append(msg, body...)

	req.Header.Set("X-Agent-ID", c.identity.AgentID)
	req.Header.Set("X-Timestamp", ts)
	req.Header.Set("X-Signature", hex.EncodeToString(c.identity.Sign(msg)))
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "kred-go-sdk")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("kred: decoding response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Fields  map[string]string `json:"fields"`
		} `json:"error"`
	}
	e := &Error{StatusCode: status}
	if json.Unmarshal(raw, &body) == nil {
		e.Code = body.Error.Code
		e.Message = body.Error.Message
		e.Fields = body.Error.Fields
	}
	if e.Message == "" && e.Code == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	return e
}
