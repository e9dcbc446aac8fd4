package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"jobsapi/internal/apperror"
	"jobsapi/internal/crud"
)

// ResponseFunc may set response headers.
type ResponseFunc func(ctx context.Context, req *crud.Request, header http.Header, m crud.Models) (any, int, error)

// RequestFunc reads the request.
type RequestFunc func(ctx context.Context, req *crud.Request, m crud.Models) (any, int, error)

// StoreFunc needs only the models.
type StoreFunc func(ctx context.Context, m crud.Models) (any, int, error)

type actionKind int

const (
	needsResponse actionKind = iota + 1
	needsRequest
	storeOnly
)

// Action is a handler plus the way the wrapper calls it. A zero status in a
// result means 200.
type Action struct {
	kind     actionKind
	response ResponseFunc
	request  RequestFunc
	store    StoreFunc
}

func NeedsResponse(fn ResponseFunc) Action { return Action{kind: needsResponse, response: fn} }
func NeedsRequest(fn RequestFunc) Action   { return Action{kind: needsRequest, request: fn} }
func StoreOnly(fn StoreFunc) Action        { return Action{kind: storeOnly, store: fn} }

func (a Action) valid() bool {
	switch a.kind {
	case needsResponse:
		return a.response != nil
	case needsRequest:
		return a.request != nil
	case storeOnly:
		return a.store != nil
	}
	return false
}

// Snapshot is the logged copy of a request, taken before the handler can
// modify anything.
type Snapshot struct {
	Body   any                 `json:"body"`
	Params map[string]string   `json:"params"`
	Query  map[string][]string `json:"query"`
	URL    string              `json:"url"`
}

const headerRequestID = "X-Request-ID"

// Wrapper turns Actions into gin handlers: one ENTER and one EXIT log line per
// call, model acquisition, result envelope and error rendering.
type Wrapper struct {
	provider crud.Provider
	log      logrus.FieldLogger
}

func NewWrapper(provider crud.Provider, log logrus.FieldLogger) *Wrapper {
	return &Wrapper{provider: provider, log: log}
}

// Wrap builds the handler. A non-empty wrapKey wraps the result as
// {wrapKey: [result...]}.
func (w *Wrapper) Wrap(signature, wrapKey string, a Action) gin.HandlerFunc {
	if !a.valid() {
		panic("api: action for " + signature + " has no handler")
	}

	return func(c *gin.Context) {
		start := time.Now()
		requestID := ulid.Make().String()
		c.Header(headerRequestID, requestID)

		// тело декодируется дважды: handler может менять свою копию
		raw := rawBody(c)
		snap := Snapshot{
			Body:   decodeBody(raw),
			Params: params(c),
			Query:  c.Request.URL.Query(),
			URL:    c.Request.URL.RequestURI(),
		}
		req := &crud.Request{
			URL:    snap.URL,
			Params: params(c),
			Query:  c.Request.URL.Query(),
			Body:   decodeBody(raw),
		}

		log := w.log.WithFields(logrus.Fields{
			"signature":  signature,
			"request_id": requestID,
		})
		log.WithField("request", snap).Info("ENTER")

		result, status, err := w.invoke(c.Request.Context(), a, req, c.Writer.Header())
		if err != nil {
			ae := apperror.From(err)
			payload := ae.Payload()
			fields := logrus.Fields{
				"request":  snap,
				"response": payload,
				"status":   ae.Status,
				"elapsed":  time.Since(start).String(),
			}
			var pe *panicError
			if errors.As(err, &pe) {
				fields["stack"] = string(pe.stack)
			}
			log.WithFields(fields).WithError(err).Error("EXIT")
			c.JSON(ae.Status, payload)
			return
		}

		if status == 0 {
			status = http.StatusOK
		}
		body := envelope(wrapKey, result)
		log.WithFields(logrus.Fields{
			"request":  snap,
			"response": body,
			"status":   status,
			"elapsed":  time.Since(start).String(),
		}).Info("EXIT")
		c.JSON(status, body)
	}
}

// panicError carries a recovered panic and the stack it was raised from.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

func (w *Wrapper) invoke(ctx context.Context, a Action, req *crud.Request, header http.Header) (result any, status int, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, status = nil, 0
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()

	m, err := w.provider.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	switch a.kind {
	case needsResponse:
		return a.response(ctx, req, header, m)
	case needsRequest:
		return a.request(ctx, req, m)
	default:
		return a.store(ctx, m)
	}
}

// envelope wraps result under key, always as an array. A nil result becomes
// an empty array.
func envelope(key string, result any) any {
	if key == "" {
		return result
	}
	if result == nil {
		return gin.H{key: []any{}}
	}
	switch reflect.TypeOf(result).Kind() {
	case reflect.Slice, reflect.Array:
		return gin.H{key: result}
	}
	return gin.H{key: []any{result}}
}

func params(c *gin.Context) map[string]string {
	out := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		out[p.Key] = p.Value
	}
	return out
}
