package mail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func b64(s string) string {
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(s))
}

func TestHeaderValueCaseInsensitive(t *testing.T) {
	m := &RawMessage{Headers: []Header{
		{Name: "Subject", Value: "Hello"},
		{Name: "FROM", Value: "jane@acme.com"},
	}}

	assert.Equal(t, "Hello", m.HeaderValue("subject"))
	assert.Equal(t, "jane@acme.com", m.HeaderValue("From"))
	assert.Equal(t, "", m.HeaderValue("Date"))
}

func TestDecodeBodyConcatenatesTextParts(t *testing.T) {
	m := &RawMessage{BodyParts: []BodyPart{
		{MimeType: "text/plain", Data: b64("hello ")},
		{MimeType: "text/html", Data: b64("<b>skipped</b>")},
		{MimeType: "text/plain", Data: b64("world")},
	}}

	assert.Equal(t, "hello world", m.DecodeBody())
}

func TestDecodeBodyBadEncodingDegradesToEmpty(t *testing.T) {
	m := &RawMessage{BodyParts: []BodyPart{
		{MimeType: "text/plain", Data: "!!! not base64 !!!"},
	}}

	assert.Equal(t, "", m.DecodeBody())
}

func TestDecodeBodyNormalizesLineEndings(t *testing.T) {
	m := &RawMessage{BodyParts: []BodyPart{
		{MimeType: "text/plain", Data: b64("a\r\nb\rc")},
	}}

	assert.Equal(t, "a\nb\nc", m.DecodeBody())
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "jane@acme.com", ExtractAddress("Jane Doe <jane@acme.com>"))
	assert.Equal(t, "jane@acme.com", ExtractAddress("jane@acme.com"))
	assert.Equal(t, "jane@acme.com", ExtractAddress("  jane@acme.com  "))
}
