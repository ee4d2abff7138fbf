// Package client is a Go client for the agent middleware HTTP API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// Identity is the caller's stored identity.
type Identity struct {
	ID                uint      `json:"id"`
	ExternalSubjectID string    `json:"external_subject_id"`
	Email             *string   `json:"email"`
	DisplayName       *string   `json:"display_name"`
	CreatedAt         time.Time `json:"created_at"`
}

// Profile holds agent customization settings.
type Profile struct {
	ID                         uint      `json:"id"`
	IdentityID                 uint      `json:"identity_id"`
	PreferredAgentInstructions *string   `json:"preferred_agent_instructions"`
	CustomWorkflowsJSON        *string   `json:"custom_workflows_json"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

// ProfileUpdate carries the fields to change; nil fields are left alone.
type ProfileUpdate struct {
	PreferredAgentInstructions *string `json:"preferred_agent_instructions,omitempty"`
	CustomWorkflowsJSON        *string `json:"custom_workflows_json,omitempty"`
}

// Conversation references an agent thread.
type Conversation struct {
	ID               uint      `json:"id"`
	ExternalThreadID string    `json:"external_thread_id"`
	Title            *string   `json:"title"`
	CreatedAt        time.Time `json:"created_at"`
	LastMessageAt    time.Time `json:"last_message_at"`
}

// ConversationPage is one page of List results.
type ConversationPage struct {
	Data   []Conversation `json:"data"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error (%d %s): %s [request %s]", e.StatusCode, e.Type, e.Message, e.RequestID)
	}
	return fmt.Sprintf("api error (%d %s): %s", e.StatusCode, e.Type, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// Client talks to the agent middleware API.
type Client struct {
	http *resty.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.http.SetAuthToken(token)
		}
	}
}

// WithSubject sends X-User-Subject, accepted by servers running with authentication disabled.
func WithSubject(subject string) Option {
	return func(c *Client) {
		if subject != "" {
			c.http.SetHeader("X-User-Subject", subject)
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "agentctl/1.0"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetMe(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := c.do(ctx, http.MethodGet, "/v1/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMe removes the caller's identity and everything attached to it.
func (c *Client) DeleteMe(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/me", nil, nil)
}

func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, "/v1/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodPut, "/v1/profile", update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListConversations(ctx context.Context, limit, offset int) (*ConversationPage, error) {
	path := "/v1/conversations"
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out ConversationPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConversation tracks threadID; an already tracked thread returns the existing record.
func (c *Client) CreateConversation(ctx context.Context, threadID string, title *string) (*Conversation, error) {
	body := map[string]any{"external_thread_id": threadID}
	if title != nil {
		body["title"] = *title
	}
	var out Conversation
	if err := c.do(ctx, http.MethodPost, "/v1/conversations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetConversation(ctx context.Context, id uint) (*Conversation, error) {
	var out Conversation
	if err := c.do(ctx, http.MethodGet, conversationPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameConversation(ctx context.Context, id uint, title *string) (*Conversation, error) {
	var out Conversation
	if err := c.do(ctx, http.MethodPatch, conversationPath(id), map[string]*string{"title": title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TouchConversation(ctx context.Context, id uint) (*Conversation, error) {
	var out Conversation
	if err := c.do(ctx, http.MethodPost, conversationPath(id)+"/touch", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TouchThread(ctx context.Context, threadID string) (*Conversation, error) {
	var out Conversation
	path := "/v1/threads/" + url.PathEscape(threadID) + "/touch"
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, conversationPath(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var envelope errorEnvelope
	req := c.http.R().
		SetContext(ctx).
		SetError(&envelope)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := envelope.Error
	if apiErr == nil {
		apiErr = &APIError{Type: "unknown_error", Message: strings.TrimSpace(resp.String())}
	}
	apiErr.StatusCode = resp.StatusCode()
	return apiErr
}

func conversationPath(id uint) string {
	return "/v1/conversations/" + strconv.FormatUint(uint64(id), 10)
}
