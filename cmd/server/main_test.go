package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"freegames-notifier/internal/config"
	"freegames-notifier/internal/test"
	"freegames-notifier/pkg/tasks"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(enqueuer *test.MockTaskEnqueuer) *App {
	return &App{
		store:       test.NewMemoryStore(),
		asynqClient: enqueuer,
		registry:    prometheus.NewRegistry(),
		cfg: &config.Config{
			AdminToken:      "token",
			BaseURL:         "http://localhost:8080",
			PollingInterval: time.Minute,
		},
	}
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPostCycleEnqueuesCheck(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	rr := post(newTestApp(enqueuer).router(), "/api/cycles", "")

	assert.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, enqueuer.EnqueuedTasks, 1)
	assert.Equal(t, tasks.TypeCheckFreeGames, enqueuer.EnqueuedTasks[0].Type())
}

func TestPostCycleDuplicateIsAccepted(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{Err: asynq.ErrDuplicateTask}
	rr := post(newTestApp(enqueuer).router(), "/api/cycles", "")
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestPostCycleQueueDown(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{Err: errors.New("dial tcp: connection refused")}
	rr := post(newTestApp(enqueuer).router(), "/api/cycles", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestPostSubscriptionDoesNotEnqueue(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	rr := post(newTestApp(enqueuer).router(), "/api/guilds/100/subscriptions",
		`{"platform":"epic-games-store","content_type":"game","channel_id":"200","role_id":"300"}`)

	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Empty(t, enqueuer.EnqueuedTasks)
}
