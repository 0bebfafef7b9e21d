package editbuffer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/publish"
)

// HTTPCommitter commits change sets through the pages API
// on behalf of the given user.
type HTTPCommitter struct {
	BaseURL string
	User    models.User
	Client  *http.Client
}

func NewHTTPCommitter(baseURL string, user models.User) *HTTPCommitter {
	return &HTTPCommitter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		User:    user,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// CommitPage PATCHes the flat change map to /api/pages/{id}
func (c *HTTPCommitter) CommitPage(
	ctx context.Context,
	pageID string,
	changes map[string]string,
) (*models.Page, error) {

	body, err := json.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("could not encode the changes of page %s: %w", pageID, err)
	}

	var page models.Page
	if err := c.do(ctx, http.MethodPatch, pageID, bytes.NewReader(body), &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// FetchPage loads the stored state of a page to seed a buffer
func (c *HTTPCommitter) FetchPage(ctx context.Context, pageID string) (*models.Page, error) {
	var page models.Page
	if err := c.do(ctx, http.MethodGet, pageID, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPCommitter) do(
	ctx context.Context,
	method, pageID string,
	body io.Reader,
	dest *models.Page,
) error {

	endpoint := c.BaseURL + "/api/pages/" + url.PathEscape(pageID)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &publish.PersistenceError{Op: method + " " + endpoint, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-User-Id", c.User.ID)
	req.Header.Set("X-User-Role", string(c.User.Role))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return &publish.PersistenceError{Op: method + " " + endpoint, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		var payload struct {
			Errors []publish.FieldError `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || len(payload.Errors) == 0 {
			return &publish.ValidationError{Errors: []publish.FieldError{
				{Field: "*", Reason: "rejected by the server"},
			}}
		}
		return &publish.ValidationError{Errors: payload.Errors}

	case resp.StatusCode == http.StatusNotFound:
		return &publish.NotFoundError{PageID: pageID}

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &publish.PersistenceError{
			Op:  method + " " + endpoint,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &publish.PersistenceError{Op: "decode page " + pageID, Err: err}
	}

	return nil
}
