// Package remote is the HTTP client for the habit tracking API.
package remote

import (
	"bytes"
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

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/models"
)

// DefaultTimeout bounds every request made with the default http.Client.
const DefaultTimeout = 10 * time.Second

// Client talks to the API rooted at baseURL (e.g. http://host:8080/api).
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a Client. A nil httpClient gets DefaultTimeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer token sent with every request. "" clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type shape int

const (
	shapeNone shape = iota
	shapeObject
	shapeList
)

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, sh shape) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &apperr.RemoteError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperr.RemoteError{Status: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		if json.Unmarshal(data, &eb) != nil || eb.Message == "" {
			eb.Message = strings.TrimSpace(string(data))
		}
		re := &apperr.RemoteError{Status: resp.StatusCode, Message: eb.Message}
		if eb.Error != "" {
			re.Err = errors.New(eb.Error)
		}
		return re
	}

	if out == nil || sh == shapeNone {
		return nil
	}
	var norm json.RawMessage
	switch sh {
	case shapeObject:
		norm, err = normalize(data)
	case shapeList:
		norm, err = normalizeList(data)
	}
	if err == nil {
		err = json.Unmarshal(norm, out)
	}
	if err != nil {
		return &apperr.RemoteError{Status: resp.StatusCode, Message: "invalid response", Err: err}
	}
	return nil
}

// Register creates an account and returns the user with a token.
func (c *Client) Register(ctx context.Context, name, email, password string) (models.AuthResponse, error) {
	var out models.AuthResponse
	in := map[string]string{"name": name, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/register", in, &out, shapeObject)
	return out, err
}

// Login exchanges credentials for a token. Bad credentials yield a 401 RemoteError.
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	var out models.AuthResponse
	in := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", in, &out, shapeObject)
	return out, err
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out, shapeObject)
	return out, err
}

// UpdateSettings sends the shared settings; client-local fields are stripped.
func (c *Client) UpdateSettings(ctx context.Context, s models.Settings) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPut, "/auth/settings", s.Shared(), &out, shapeObject)
	return out, err
}

func (c *Client) ListHabits(ctx context.Context) ([]models.Habit, error) {
	var out []models.Habit
	err := c.do(ctx, http.MethodGet, "/habits", nil, &out, shapeList)
	return out, err
}

func (c *Client) CreateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	var out models.Habit
	h.ID, h.OwnerID = "", ""
	err := c.do(ctx, http.MethodPost, "/habits", h, &out, shapeObject)
	return out, err
}

func (c *Client) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	var out models.Habit
	err := c.do(ctx, http.MethodGet, "/habits/"+url.PathEscape(id), nil, &out, shapeObject)
	return out, err
}

func (c *Client) UpdateHabit(ctx context.Context, id string, p models.HabitPatch) (models.Habit, error) {
	var out models.Habit
	err := c.do(ctx, http.MethodPut, "/habits/"+url.PathEscape(id), p, &out, shapeObject)
	return out, err
}

// DeleteHabit removes the habit; the server cascades its completions.
func (c *Client) DeleteHabit(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/habits/"+url.PathEscape(id), nil, nil, shapeNone)
}

// CompletionFilter narrows ListCompletions. Empty fields are ignored.
type CompletionFilter struct {
	Date    string
	HabitID string
}

func (c *Client) ListCompletions(ctx context.Context, f CompletionFilter) ([]models.Completion, error) {
	q := url.Values{}
	if f.Date != "" {
		q.Set("date", f.Date)
	}
	if f.HabitID != "" {
		q.Set("habitId", f.HabitID)
	}
	path := "/completions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []models.Completion
	err := c.do(ctx, http.MethodGet, path, nil, &out, shapeList)
	return out, err
}

type markRequest struct {
	HabitID string  `json:"habitId"`
	Date    string  `json:"date"`
	Note    *string `json:"note,omitempty"`
}

// MarkCompletion asks the server to create the (habitID, date) record or
// toggle the existing one. A non-nil note overwrites the stored note.
func (c *Client) MarkCompletion(ctx context.Context, habitID, date string, note *string) (models.Completion, error) {
	var out models.Completion
	err := c.do(ctx, http.MethodPost, "/completions", markRequest{habitID, date, note}, &out, shapeObject)
	return out, err
}

func (c *Client) UpdateCompletion(ctx context.Context, id string, p models.CompletionPatch) (models.Completion, error) {
	var out models.Completion
	err := c.do(ctx, http.MethodPut, "/completions/"+url.PathEscape(id), p, &out, shapeObject)
	return out, err
}

func (c *Client) DeleteCompletion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/completions/"+url.PathEscape(id), nil, nil, shapeNone)
}

func (c *Client) HabitStats(ctx context.Context, habitID string) (models.HabitCompletions, error) {
	var raw struct {
		HabitID          string          `json:"habitId"`
		TotalCompletions int             `json:"totalCompletions"`
		Completions      json.RawMessage `json:"completions"`
	}
	if err := c.do(ctx, http.MethodGet, "/completions/stats/"+url.PathEscape(habitID), nil, &raw, shapeObject); err != nil {
		return models.HabitCompletions{}, err
	}
	out := models.HabitCompletions{HabitID: raw.HabitID, TotalCompletions: raw.TotalCompletions, Completions: []models.Completion{}}
	if len(raw.Completions) > 0 && string(raw.Completions) != "null" {
		norm, err := normalizeList(raw.Completions)
		if err == nil {
			err = json.Unmarshal(norm, &out.Completions)
		}
		if err != nil {
			return models.HabitCompletions{}, &apperr.RemoteError{Status: http.StatusOK, Message: "invalid response", Err: err}
		}
	}
	return out, nil
}
