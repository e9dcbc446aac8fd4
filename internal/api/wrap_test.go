package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"jobsapi/internal/crud"
	"jobsapi/internal/memstore"
)

type failingProvider struct{ err error }

func (p failingProvider) Acquire(context.Context) (crud.Models, error) { return nil, p.err }

func serve(t *testing.T, w *Wrapper, method, path, body string, a Action) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JSONBody())
	r.Handle(method, "/things/:id", w.Wrap("Thing#act", "things", a))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestWrapLogsEnterAndExit(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	w := NewWrapper(memstore.NewModels("Job"), log)

	rec := serve(t, w, http.MethodPut, "/things/5?q=1", `{"things":[{"a":1}]}`,
		NeedsRequest(func(_ context.Context, req *crud.Request, _ crud.Models) (any, int, error) {
			// handler портит свою копию тела
			req.Body.(map[string]any)["things"] = "gone"
			return map[string]any{"ok": true}, 0, nil
		}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"things":[{"ok":true}]}`, rec.Body.String())

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	enter, exit := entries[0], entries[1]
	assert.Equal(t, "ENTER", enter.Message)
	assert.Equal(t, "EXIT", exit.Message)
	assert.Equal(t, logrus.InfoLevel, exit.Level)
	assert.Equal(t, "Thing#act", exit.Data["signature"])
	assert.Equal(t, enter.Data["request_id"], exit.Data["request_id"])
	assert.Equal(t, rec.Header().Get(headerRequestID), exit.Data["request_id"])
	assert.Equal(t, http.StatusOK, exit.Data["status"])

	snap := exit.Data["request"].(Snapshot)
	assert.Equal(t, map[string]string{"id": "5"}, snap.Params)
	assert.Equal(t, []string{"1"}, snap.Query["q"])
	assert.Equal(t, "/things/5?q=1", snap.URL)
	_, stillList := snap.Body.(map[string]any)["things"].([]any)
	assert.True(t, stillList, "snapshot must not see handler mutations")
}

func TestWrapErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider crud.Provider
		action   Action
		status   int
		message  string
	}{
		{
			name:     "store unavailable",
			provider: failingProvider{errors.New("connection refused")},
			action:   StoreOnly(func(context.Context, crud.Models) (any, int, error) { return nil, 0, nil }),
			status:   http.StatusInternalServerError,
			message:  "connection refused",
		},
		{
			name:     "panic",
			provider: memstore.NewModels(),
			action:   StoreOnly(func(context.Context, crud.Models) (any, int, error) { panic("boom") }),
			status:   http.StatusInternalServerError,
			message:  "panic: boom",
		},
		{
			name:     "unknown model",
			provider: memstore.NewModels(),
			action:   NewJobs(nil).Controller().Actions["show"],
			status:   http.StatusInternalServerError,
			message:  `memstore: unknown model "Job"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := logtest.NewNullLogger()
			rec := serve(t, NewWrapper(tt.provider, log), http.MethodGet, "/things/1", "", tt.action)

			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, int64(tt.status), gjson.Get(rec.Body.String(), "errors.0.code").Int())
			assert.Equal(t, tt.message, gjson.Get(rec.Body.String(), "errors.0.message").String())

			require.Len(t, hook.AllEntries(), 2)
			exit := hook.LastEntry()
			assert.Equal(t, logrus.ErrorLevel, exit.Level)
			assert.Equal(t, "EXIT", exit.Message)
			assert.NotNil(t, exit.Data[logrus.ErrorKey])
		})
	}
}

func TestWrapLogsPanicStack(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	rec := serve(t, NewWrapper(memstore.NewModels(), log), http.MethodGet, "/things/1", "",
		StoreOnly(func(context.Context, crud.Models) (any, int, error) { panic("boom") }))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	exit := hook.LastEntry()
	require.NotNil(t, exit)
	stack, ok := exit.Data["stack"].(string)
	require.True(t, ok, "stack field must be logged")
	assert.Contains(t, stack, "goroutine")
	assert.Contains(t, stack, "TestWrapLogsPanicStack")

	// обычные ошибки стек не пишут
	hook.Reset()
	serve(t, NewWrapper(failingProvider{errors.New("down")}, log), http.MethodGet, "/things/1", "",
		StoreOnly(func(context.Context, crud.Models) (any, int, error) { return nil, 0, nil }))
	_, has := hook.LastEntry().Data["stack"]
	assert.False(t, has)
}

func TestWrapStatusAndHeaders(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	w := NewWrapper(memstore.NewModels(), log)

	rec := serve(t, w, http.MethodPost, "/things/1", "",
		NeedsResponse(func(_ context.Context, _ *crud.Request, h http.Header, _ crud.Models) (any, int, error) {
			h.Set("X-Total-Count", "2")
			return []int{1, 2}, http.StatusAccepted, nil
		}))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	assert.JSONEq(t, `{"things":[1,2]}`, rec.Body.String())
}

func TestEnvelope(t *testing.T) {
	assert.Equal(t, gin.H{"k": []any{}}, envelope("k", nil))
	assert.Equal(t, gin.H{"k": []string{"a"}}, envelope("k", []string{"a"}))
	assert.Equal(t, gin.H{"k": []any{1}}, envelope("k", 1))
	assert.Equal(t, 1, envelope("", 1))
}

func TestWrapRejectsEmptyAction(t *testing.T) {
	w := NewWrapper(memstore.NewModels(), logrus.New())
	assert.Panics(t, func() { w.Wrap("X#y", "x", Action{}) })
	assert.Panics(t, func() { w.Wrap("X#y", "x", NeedsRequest(nil)) })
}
