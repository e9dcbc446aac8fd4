package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobsapi/internal/apperror"
)

const rawBodyKey = "jobsapi.raw_body"

// maxBody bounds request bodies; notes__c alone may hold 32000 characters.
const maxBody = 1 << 20

// JSONBody reads the request body once and checks that it is JSON, whatever
// the Content-Type says. An empty body counts as {}.
func JSONBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil {
			c.Next()
			return
		}
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody+1))
		_ = c.Request.Body.Close()
		if err != nil {
			abortWith(c, apperror.WithStatus(fmt.Errorf("read body: %w", err), http.StatusBadRequest))
			return
		}
		if len(raw) > maxBody {
			abortWith(c, apperror.New(http.StatusRequestEntityTooLarge, "Request entity too large"))
			return
		}
		if len(bytes.TrimSpace(raw)) > 0 && !json.Valid(raw) {
			abortWith(c, apperror.New(http.StatusBadRequest, "Invalid JSON"))
			return
		}
		c.Set(rawBodyKey, raw)
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		c.Next()
	}
}

func rawBody(c *gin.Context) []byte {
	if v, ok := c.Get(rawBodyKey); ok {
		if b, ok := v.([]byte); ok {
			return b
		}
	}
	return nil
}

// decodeBody returns a fresh value tree on every call. Numbers stay
// json.Number so large ids are not rounded.
func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return map[string]any{}
	}
	return v
}

func abortWith(c *gin.Context, err error) {
	ae := apperror.From(err)
	c.AbortWithStatusJSON(ae.Status, ae.Payload())
}
