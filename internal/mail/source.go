package mail

import (
	"context"
	"encoding/base64"
	"strings"
)

// Header is one message header as supplied by the source.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BodyPart is one MIME part. Data is base64url-encoded.
type BodyPart struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// RawMessage is a source message before normalization.
type RawMessage struct {
	ID        string
	Headers   []Header
	BodyParts []BodyPart
}

// Source is the narrow mail-provider capability the pipeline depends on.
// Token/auth lifecycle lives outside this process.
type Source interface {
	ListNewMessageIDs(ctx context.Context, limit int) ([]string, error)
	GetMessage(ctx context.Context, id string) (*RawMessage, error)
}

// HeaderValue returns the first header with the given name,
// case-insensitively. Empty string when absent.
func (m *RawMessage) HeaderValue(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// DecodeBody concatenates the text parts of the message. A part that fails
// to decode contributes an empty string instead of failing the message, and
// line endings are normalized to \n.
func (m *RawMessage) DecodeBody() string {
	var b strings.Builder
	for _, part := range m.BodyParts {
		if part.MimeType != "" && !strings.HasPrefix(part.MimeType, "text/plain") {
			continue
		}
		decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(part.Data)
		if err != nil {
			continue
		}
		b.Write(decoded)
	}
	return NormalizeLineEndings(b.String())
}

// ExtractAddress pulls the bare address out of a From-style header, e.g.
// `Jane Doe <jane@x.com>` -> `jane@x.com`.
func ExtractAddress(header string) string {
	if i := strings.Index(header, "<"); i >= 0 {
		if j := strings.Index(header[i:], ">"); j > 0 {
			return strings.TrimSpace(header[i+1 : i+j])
		}
	}
	return strings.TrimSpace(header)
}

// NormalizeLineEndings converts CRLF and CR to LF.
func NormalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
