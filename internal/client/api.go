// Package client is a Go client for the forum: an HTTP API client, a
// websocket event stream and a per-view Synchronizer that keeps a question
// in step with server events.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// API calls the forum's HTTP endpoints.
type API struct {
	base *url.URL
	http *http.Client
}

// NewAPI creates an API client for baseURL. A nil httpClient uses a client
// with a 10s timeout.
func NewAPI(baseURL string, httpClient *http.Client) (*API, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &API{base: u, http: httpClient}, nil
}

// GetQuestionByID fetches a populated question. The server counts this as a
// view.
func (a *API) GetQuestionByID(ctx context.Context, qid string) (*models.Question, error) {
	var q models.Question
	if err := a.do(ctx, http.MethodGet, a.base.JoinPath("question", "getQuestionById", qid), nil, &q); err != nil {
		return nil, fmt.Errorf("get question %s: %w", qid, err)
	}
	return &q, nil
}

// AddComment comments on a question or answer and returns the stored comment.
func (a *API) AddComment(ctx context.Context, targetID string, kind models.TargetKind, c models.Comment) (*models.Comment, error) {
	body := models.AddCommentRequest{ID: targetID, Type: kind, Comment: &c}
	var out models.Comment
	if err := a.do(ctx, http.MethodPost, a.base.JoinPath("comment", "addComment"), body, &out); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return &out, nil
}

// AddAnswer answers question qid and returns the stored answer.
func (a *API) AddAnswer(ctx context.Context, qid string, ans models.Answer) (*models.Answer, error) {
	body := struct {
		QID string         `json:"qid"`
		Ans *models.Answer `json:"ans"`
	}{QID: qid, Ans: &ans}
	var out models.Answer
	if err := a.do(ctx, http.MethodPost, a.base.JoinPath("answer", "addAnswer"), body, &out); err != nil {
		return nil, fmt.Errorf("add answer: %w", err)
	}
	return &out, nil
}

// Upvote toggles username's upvote on qid.
func (a *API) Upvote(ctx context.Context, qid, username string) (models.VoteTally, error) {
	return a.vote(ctx, "upvoteQuestion", qid, username)
}

// Downvote toggles username's downvote on qid.
func (a *API) Downvote(ctx context.Context, qid, username string) (models.VoteTally, error) {
	return a.vote(ctx, "downvoteQuestion", qid, username)
}

func (a *API) vote(ctx context.Context, route, qid, username string) (models.VoteTally, error) {
	body := struct {
		QID      string `json:"qid"`
		Username string `json:"username"`
	}{QID: qid, Username: username}
	var out models.VoteTally
	if err := a.do(ctx, http.MethodPost, a.base.JoinPath("question", route), body, &out); err != nil {
		return models.VoteTally{}, fmt.Errorf("%s: %w", route, err)
	}
	return out, nil
}

func (a *API) do(ctx context.Context, method string, u *url.URL, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
