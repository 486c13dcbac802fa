package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/events"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var now = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router *gin.Engine
	store  *store.Memory
	bus    *events.Bus
	svc    *service.Service
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := discardLogger()
	mem := store.NewMemory()
	bus := events.NewBus(log, nil)
	svc := service.New(log, mem, bus, nil)

	r := gin.New()
	NewHandler(svc, log).Register(r)

	return &testEnv{router: r, store: mem, bus: bus, svc: svc}
}

func (e *testEnv) seedQuestion(t *testing.T) *models.Question {
	t.Helper()
	q, err := e.svc.AddQuestion(context.Background(), service.AddQuestionInput{
		Title:       "How do channels work?",
		Text:        "Unbuffered vs buffered.",
		Tags:        []string{"go"},
		AskedBy:     "alice",
		AskDateTime: now,
	})
	require.NoError(t, err)
	return q
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func nextEvent(t *testing.T, sub *events.Subscription) events.Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

// ---------------------------------------------------------------------------
// POST /comment/addComment
// ---------------------------------------------------------------------------

func TestAddComment_Success(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t)
	sub := env.bus.Subscribe()
	defer sub.Unsubscribe()

	w := env.do(http.MethodPost, "/comment/addComment", gin.H{
		"id":   q.ID,
		"type": "question",
		"comment": gin.H{
			"text":            "good question",
			"commentBy":       "bob",
			"commentDateTime": now,
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var got models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "good question", got.Text)
	assert.Equal(t, "bob", got.CommentBy)

	stored, err := env.store.GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 1)

	update, ok := nextEvent(t, sub).(events.CommentUpdate)
	require.True(t, ok)
	assert.Equal(t, models.TargetQuestion, update.Type)
	assert.Equal(t, q.ID, update.Result.Question.ID)
}

func TestAddComment_BadRequests(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t)

	tests := []struct {
		name     string
		body     any
		wantBody string
	}{
		{"malformed json", "{not json", "Invalid request"},
		{"missing id", gin.H{"type": "question", "comment": gin.H{"text": "x", "commentBy": "bob", "commentDateTime": now}}, "Invalid request"},
		{"unknown type", gin.H{"id": q.ID, "type": "tag", "comment": gin.H{"text": "x", "commentBy": "bob", "commentDateTime": now}}, "Invalid request"},
		{"missing comment", gin.H{"id": q.ID, "type": "question"}, "Invalid request"},
		{"empty text", gin.H{"id": q.ID, "type": "question", "comment": gin.H{"text": "", "commentBy": "bob", "commentDateTime": now}}, "Invalid comment"},
		{"missing author", gin.H{"id": q.ID, "type": "question", "comment": gin.H{"text": "x", "commentDateTime": now}}, "Invalid comment"},
		{"missing date", gin.H{"id": q.ID, "type": "question", "comment": gin.H{"text": "x", "commentBy": "bob"}}, "Invalid comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/comment/addComment", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}

	stored, err := env.store.GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
}

func TestAddComment_UnknownTargetIs500(t *testing.T) {
	env := newTestEnv(t)
	sub := env.bus.Subscribe()
	defer sub.Unsubscribe()

	w := env.do(http.MethodPost, "/comment/addComment", gin.H{
		"id":      "missing",
		"type":    "answer",
		"comment": gin.H{"text": "x", "commentBy": "bob", "commentDateTime": now},
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Error when adding comment: ")
	assert.Contains(t, w.Body.String(), "not found")

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %v", ev.Kind())
	case <-time.After(50 * time.Millisecond):
	}
}

type failingService struct {
	forumService
	err error
}

func (f failingService) AddComment(context.Context, service.AddCommentInput) (*service.CommentResult, error) {
	return nil, f.err
}

func TestAddComment_StorageFailureMessage(t *testing.T) {
	log := discardLogger()
	r := gin.New()
	NewHandler(failingService{err: models.NewStorageError("add comment", errors.New("connection refused"))}, log).Register(r)

	body, _ := json.Marshal(gin.H{
		"id":      "q1",
		"type":    "question",
		"comment": gin.H{"text": "x", "commentBy": "bob", "commentDateTime": now},
	})
	req := httptest.NewRequest(http.MethodPost, "/comment/addComment", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error when adding comment: add comment: connection refused", w.Body.String())
}

// ---------------------------------------------------------------------------
// POST /answer/addAnswer
// ---------------------------------------------------------------------------

func TestAddAnswer(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t)

	w := env.do(http.MethodPost, "/answer/addAnswer", gin.H{
		"qid": q.ID,
		"ans": gin.H{"text": "Use select.", "ansBy": "carol", "ansDateTime": now},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var ans models.Answer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.NotEmpty(t, ans.ID)
	assert.Equal(t, "carol", ans.AnsBy)

	w = env.do(http.MethodPost, "/answer/addAnswer", gin.H{"qid": q.ID, "ans": gin.H{"text": "", "ansBy": "carol", "ansDateTime": now}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/answer/addAnswer", gin.H{"qid": "missing", "ans": gin.H{"text": "x", "ansBy": "carol", "ansDateTime": now}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Error when adding answer: ")
}

// ---------------------------------------------------------------------------
// Votes
// ---------------------------------------------------------------------------

func TestVoteRoutes(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t)

	type voteResponse struct {
		Msg       string   `json:"msg"`
		UpVotes   []string `json:"upVotes"`
		DownVotes []string `json:"downVotes"`
	}
	decode := func(w *httptest.ResponseRecorder) voteResponse {
		var v voteResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
		return v
	}

	w := env.do(http.MethodPost, "/question/upvoteQuestion", gin.H{"qid": q.ID, "username": "bob"})
	require.Equal(t, http.StatusOK, w.Code)
	v := decode(w)
	assert.Equal(t, "Question upvoted successfully", v.Msg)
	assert.Equal(t, []string{"bob"}, v.UpVotes)
	assert.Empty(t, v.DownVotes)

	w = env.do(http.MethodPost, "/question/downvoteQuestion", gin.H{"qid": q.ID, "username": "bob"})
	require.Equal(t, http.StatusOK, w.Code)
	v = decode(w)
	assert.Empty(t, v.UpVotes)
	assert.Equal(t, []string{"bob"}, v.DownVotes)

	w = env.do(http.MethodPost, "/question/downvoteQuestion", gin.H{"qid": q.ID, "username": "bob"})
	require.Equal(t, http.StatusOK, w.Code)
	v = decode(w)
	assert.Empty(t, v.UpVotes)
	assert.Empty(t, v.DownVotes)

	w = env.do(http.MethodPost, "/question/upvoteQuestion", gin.H{"qid": q.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---------------------------------------------------------------------------
// Questions and tags
// ---------------------------------------------------------------------------

func TestAddQuestionAndList(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/question/addQuestion", gin.H{
		"title":       "Why is my query slow?",
		"text":        "EXPLAIN shows a seq scan.",
		"tags":        []gin.H{{"name": "sql"}, {"name": "postgres"}},
		"askedBy":     "dave",
		"askDateTime": now,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var q models.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Len(t, q.Tags, 2)

	w = env.do(http.MethodPost, "/question/addQuestion", gin.H{"title": "no tags", "text": "x", "askedBy": "dave", "askDateTime": now})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/question/getQuestion?order=newest&search=%5Bsql%5D", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, q.ID, list[0].ID)

	w = env.do(http.MethodGet, "/question/getQuestion?search=nomatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetQuestionByID(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t)
	sub := env.bus.Subscribe()
	defer sub.Unsubscribe()

	w := env.do(http.MethodGet, "/question/getQuestionById/"+q.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Views)

	views, ok := nextEvent(t, sub).(events.ViewsUpdate)
	require.True(t, ok)
	assert.Equal(t, 1, views.Question.Views)

	w = env.do(http.MethodGet, "/question/getQuestionById/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTagRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.seedQuestion(t)

	w := env.do(http.MethodGet, "/tag/getTagsWithQuestionNumber", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"go","qcnt":1}]`, w.Body.String())

	w = env.do(http.MethodGet, "/tag/getTagByName/go", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tag models.Tag
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tag))
	assert.Equal(t, "go", tag.Name)

	w = env.do(http.MethodGet, "/tag/getTagByName/rust", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusMapping(t *testing.T) {
	notFound := models.NewStorageError("get", models.ErrNotFound)
	invalid := models.NewValidationError("qid", "required")
	broken := models.NewStorageError("get", errors.New("boom"))

	assert.Equal(t, http.StatusNotFound, readStatus(notFound))
	assert.Equal(t, http.StatusBadRequest, readStatus(invalid))
	assert.Equal(t, http.StatusInternalServerError, readStatus(broken))

	assert.Equal(t, http.StatusInternalServerError, mutationStatus(notFound))
	assert.Equal(t, http.StatusBadRequest, mutationStatus(invalid))
}
