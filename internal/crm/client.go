package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/metalpromo/coin-design/internal/httpclient"
)

// The webhook note created by the order form; newer notes on a deal may be
// internal follow-ups, so the fetch prefers this title.
const webhookNoteTitle = "Form(WEBHOOK) FIELD VALUES"

// tokenExpiryMargin is subtracted from the reported token lifetime so a
// token is never used in the last moments before the CRM rejects it.
const tokenExpiryMargin = time.Minute

type Options struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
	HTTPClient   *http.Client
}

// Client fetches order notes from the Zoho-style CRM. Access tokens are
// obtained with the OAuth refresh-token grant and cached until expiry.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = httpclient.New(30 * time.Second)
	}
	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		tokenURL:     strings.TrimSpace(opts.TokenURL),
		clientID:     strings.TrimSpace(opts.ClientID),
		clientSecret: strings.TrimSpace(opts.ClientSecret),
		refreshToken: strings.TrimSpace(opts.RefreshToken),
		httpClient:   hc,
	}
}

// FetchOrder retrieves and parses the form-webhook note for one deal.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if c == nil {
		return nil, errors.New("crm: nil client")
	}
	if ctx == nil {
		return nil, errors.New("crm: nil context")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New("crm: empty order id")
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/crm/v2/Deals/%s/Notes", c.baseURL, url.PathEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("crm: build notes request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm: fetch notes for %q: %w", orderID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("crm: read notes response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("crm: order %q: %w", orderID, ErrOrderNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crm: notes request for %q: status %d: %s", orderID, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var notes notesResponse
	if err := json.Unmarshal(body, &notes); err != nil {
		return nil, fmt.Errorf("crm: parse notes response: %w", err)
	}
	if len(notes.Data) == 0 {
		return nil, fmt.Errorf("crm: order %q has no notes: %w", orderID, ErrOrderNotFound)
	}

	n := pickWebhookNote(notes.Data)
	if strings.TrimSpace(n.Content) == "" {
		return nil, fmt.Errorf("crm: order %q note has no content: %w", orderID, ErrOrderNotFound)
	}

	order := parseNoteContent(n.Content)
	order.ID = orderID
	return order, nil
}

// pickWebhookNote prefers the form-webhook note among the most recent
// entries, falling back to the last note on the deal.
func pickWebhookNote(notes []note) note {
	start := len(notes) - 5
	if start < 0 {
		start = 0
	}
	for i := len(notes) - 1; i >= start; i-- {
		if strings.Contains(notes[i].Title, webhookNoteTitle) {
			return notes[i]
		}
	}
	return notes[len(notes)-1]
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	if c.clientID == "" || c.clientSecret == "" || c.refreshToken == "" || c.tokenURL == "" {
		return "", errors.New("crm: credentials not configured")
	}

	form := url.Values{
		"refresh_token": {c.refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("crm: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("crm: refresh token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("crm: read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("crm: token request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("crm: parse token response: %w", err)
	}
	if tok.Error != "" {
		return "", fmt.Errorf("crm: token request rejected: %s", tok.Error)
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return "", errors.New("crm: token response missing access_token")
	}

	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl <= tokenExpiryMargin {
		ttl = time.Hour
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(ttl - tokenExpiryMargin)
	return c.accessToken, nil
}
