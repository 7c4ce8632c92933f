// Package cardaction implements the two card actions a study client can take
// against a running server: toggling a card's favorite flag and deleting it.
package cardaction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"flashforge/internal/study"
)

const defaultTimeout = 15 * time.Second

// StatusError is returned when the server answers with an unexpected status.
// Message is the server's explanation when the body carried one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// UnsuccessfulError is returned when the server reports success:false.
type UnsuccessfulError struct {
	Message string
}

func (e *UnsuccessfulError) Error() string {
	if e.Message == "" {
		return "request unsuccessful"
	}
	return e.Message
}

// FavoriteResult is the body of a toggle-favorite response.
type FavoriteResult struct {
	Success  bool   `json:"success"`
	Favorite bool   `json:"favorite"`
	Message  string `json:"message"`
}

// Client talks to the flashcard server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL. It keeps cookies so
// the CSRF token it fetches matches its session. Redirects are not followed.
func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Deck fetches the cards of a set in study order.
func (c *Client) Deck(ctx context.Context, setID int64) ([]study.Card, error) {
	var deck []study.Card
	if err := c.getJSON(ctx, fmt.Sprintf("/set/%d/cards.json", setID), &deck); err != nil {
		return nil, fmt.Errorf("failed to fetch deck: %w", err)
	}
	return deck, nil
}

// CSRFToken fetches the CSRF token for this client's session.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.getJSON(ctx, "/csrf-token", &body); err != nil {
		return "", fmt.Errorf("failed to fetch CSRF token: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("server returned an empty CSRF token")
	}
	return body.Token, nil
}

// ToggleFavorite flips a card's favorite flag on the server.
// A success:false body yields the result together with an *UnsuccessfulError.
func (c *Client) ToggleFavorite(ctx context.Context, setID, cardID int64) (FavoriteResult, error) {
	path := fmt.Sprintf("/card/%d/%d/toggle-favorite", setID, cardID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return FavoriteResult{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return FavoriteResult{}, fmt.Errorf("toggle favorite request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FavoriteResult{}, statusError(resp)
	}

	var result FavoriteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return FavoriteResult{}, fmt.Errorf("failed to decode toggle favorite response: %w", err)
	}
	if !result.Success {
		return result, &UnsuccessfulError{Message: result.Message}
	}
	return result, nil
}

// DeleteCard deletes a card. It asks for a JSON answer, so a card that is
// already gone comes back as a *StatusError rather than a redirect.
func (c *Client) DeleteCard(ctx context.Context, setID, cardID int64) error {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return err
	}

	form := url.Values{"csrf_token": {token}}
	path := fmt.Sprintf("/set/%d/card/%d/delete", setID, cardID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode delete response: %w", err)
	}
	if !result.Success {
		return &UnsuccessfulError{Message: result.Message}
	}
	return nil
}

// statusError builds a *StatusError, keeping the message of a
// {success:false, message} body when there is one.
func statusError(resp *http.Response) *StatusError {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		body.Message = ""
	}
	return &StatusError{Code: resp.StatusCode, Message: body.Message}
}

func (c *Client) getJSON(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
