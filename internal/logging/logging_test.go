package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "debug", "json")
	l.WithField("request_id", "abc").Debug("ENTER")

	assert.Equal(t, "ENTER", gjson.Get(buf.String(), "msg").String())
	assert.Equal(t, "abc", gjson.Get(buf.String(), "request_id").String())
	assert.Equal(t, "debug", gjson.Get(buf.String(), "level").String())
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	l := NewWithOutput(&bytes.Buffer{}, "loud", "text")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	_, ok := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}
