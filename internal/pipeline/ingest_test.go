package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gradient/internal/mail"
	"gradient/internal/model"
)

type fakeSource struct {
	ids      []string
	messages map[string]*mail.RawMessage
	fetchErr map[string]error
	listErr  error
}

func (f *fakeSource) ListNewMessageIDs(context.Context, int) ([]string, error) {
	return f.ids, f.listErr
}

func (f *fakeSource) GetMessage(_ context.Context, id string) (*mail.RawMessage, error) {
	if err := f.fetchErr[id]; err != nil {
		return nil, err
	}
	return f.messages[id], nil
}

type fakeMessageStore struct {
	inserted       []*model.Message
	unpreprocessed []string
}

func (f *fakeMessageStore) Insert(_ context.Context, m *model.Message) error {
	f.inserted = append(f.inserted, m)
	return nil
}

func (f *fakeMessageStore) ListUnpreprocessedIDs(context.Context, int) ([]string, error) {
	return f.unpreprocessed, nil
}

type fakeProcessed struct {
	seen map[string]bool
}

func (f *fakeProcessed) Contains(_ context.Context, id string) (bool, error) {
	return f.seen[id], nil
}

func (f *fakeProcessed) Add(_ context.Context, id string) error {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[id] = true
	return nil
}

type recordingClassifier struct {
	ids []string
}

func (r *recordingClassifier) Classify(_ context.Context, id string) {
	r.ids = append(r.ids, id)
}

type passDeduper struct{}

func (passDeduper) AcquireOnce(context.Context, string, string) bool { return true }
func (passDeduper) Release(context.Context, string, string)         {}

type denyDeduper struct{}

func (denyDeduper) AcquireOnce(context.Context, string, string) bool { return false }
func (denyDeduper) Release(context.Context, string, string)         {}

type countingAttempts struct {
	counts map[string]int64
}

func (c *countingAttempts) Bump(_ context.Context, stage, id string) int64 {
	if c.counts == nil {
		c.counts = map[string]int64{}
	}
	c.counts[stage+":"+id]++
	return c.counts[stage+":"+id]
}

func rawMessage(id, from, subject, body string) *mail.RawMessage {
	return &mail.RawMessage{
		ID: id,
		Headers: []mail.Header{
			{Name: "From", Value: from},
			{Name: "To", Value: "crm@gradient.example"},
			{Name: "Subject", Value: subject},
			{Name: "Date", Value: "Mon, 11 May 2026 10:00:00 +0000"},
		},
		BodyParts: []mail.BodyPart{
			{
				MimeType: "text/plain",
				Data:     base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(body)),
			},
		},
	}
}

func newTestIngestor(src *fakeSource, store *fakeMessageStore, processed *fakeProcessed, classifier *recordingClassifier, ded Deduper) (*Ingestor, *Pool) {
	pool := NewPool(1, 64, zap.NewNop())
	pool.Start(context.Background())
	return NewIngestor(src, store, processed, classifier, pool, ded, nil, zap.NewNop()), pool
}

func drain(t *testing.T, pool *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
}

func TestIngestStagesAndSchedulesClassification(t *testing.T) {
	src := &fakeSource{
		ids: []string{"a", "b"},
		messages: map[string]*mail.RawMessage{
			"a": rawMessage("a", "Jane <jane@acme.com>", "Hello", "body text\r\nline"),
			"b": rawMessage("b", "bob@x.io", "Quote", "please call"),
		},
	}
	store := &fakeMessageStore{}
	processed := &fakeProcessed{}
	classifier := &recordingClassifier{}
	ing, pool := newTestIngestor(src, store, processed, classifier, passDeduper{})

	count, err := ing.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, store.inserted, 2)
	first := store.inserted[0]
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "jane@acme.com", first.Sender)
	assert.Equal(t, "Hello", first.Subject)
	assert.Equal(t, "body text\nline", first.Body)
	assert.Equal(t, model.StatusWaiting, first.StatusLabel)

	assert.True(t, processed.seen["a"])
	assert.True(t, processed.seen["b"])

	drain(t, pool)
	assert.ElementsMatch(t, []string{"a", "b"}, classifier.ids)
}

func TestIngestPersistsEmptyBodyAndSubject(t *testing.T) {
	raw := &mail.RawMessage{ID: "empty"}
	src := &fakeSource{
		ids:      []string{"empty"},
		messages: map[string]*mail.RawMessage{"empty": raw},
	}
	store := &fakeMessageStore{}
	ing, pool := newTestIngestor(src, store, &fakeProcessed{}, &recordingClassifier{}, passDeduper{})
	defer drain(t, pool)

	count, err := ing.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "", store.inserted[0].Subject)
	assert.Equal(t, "", store.inserted[0].Body)
}

func TestIngestSkipsSeenIDs(t *testing.T) {
	src := &fakeSource{
		ids:      []string{"a"},
		messages: map[string]*mail.RawMessage{"a": rawMessage("a", "x@y.z", "s", "b")},
	}
	processed := &fakeProcessed{seen: map[string]bool{"a": true}}
	store := &fakeMessageStore{}
	ing, pool := newTestIngestor(src, store, processed, &recordingClassifier{}, passDeduper{})
	defer drain(t, pool)

	count, err := ing.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, store.inserted)
}

func TestIngestFetchFailureLeavesIDUnmarked(t *testing.T) {
	src := &fakeSource{
		ids: []string{"bad", "good"},
		messages: map[string]*mail.RawMessage{
			"good": rawMessage("good", "x@y.z", "s", "b"),
		},
		fetchErr: map[string]error{"bad": errors.New("transient")},
	}
	processed := &fakeProcessed{}
	store := &fakeMessageStore{}
	ing, pool := newTestIngestor(src, store, processed, &recordingClassifier{}, passDeduper{})
	defer drain(t, pool)

	count, err := ing.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// a failed fetch stays unmarked so the next pass retries it
	assert.False(t, processed.seen["bad"])
	assert.True(t, processed.seen["good"])
}

func TestIngestDeduperSuppressesDoubleScheduling(t *testing.T) {
	src := &fakeSource{
		ids:      []string{"a"},
		messages: map[string]*mail.RawMessage{"a": rawMessage("a", "x@y.z", "s", "b")},
	}
	classifier := &recordingClassifier{}
	ing, pool := newTestIngestor(src, &fakeMessageStore{}, &fakeProcessed{}, classifier, denyDeduper{})

	_, err := ing.Ingest(context.Background(), 10)
	require.NoError(t, err)

	drain(t, pool)
	assert.Empty(t, classifier.ids)
}

func TestIngestReschedulesUnpreprocessedRows(t *testing.T) {
	src := &fakeSource{}
	store := &fakeMessageStore{unpreprocessed: []string{"stuck"}}
	classifier := &recordingClassifier{}
	attempts := &countingAttempts{}

	pool := NewPool(1, 64, zap.NewNop())
	pool.Start(context.Background())
	ing := NewIngestor(src, store, &fakeProcessed{}, classifier, pool, passDeduper{}, attempts, zap.NewNop())

	_, err := ing.Ingest(context.Background(), 10)
	require.NoError(t, err)

	drain(t, pool)
	assert.Equal(t, []string{"stuck"}, classifier.ids)
	assert.Equal(t, int64(1), attempts.counts["classify:stuck"])
}

func TestIngestStopsReschedulingAfterMaxAttempts(t *testing.T) {
	src := &fakeSource{}
	store := &fakeMessageStore{unpreprocessed: []string{"stuck"}}
	classifier := &recordingClassifier{}
	attempts := &countingAttempts{counts: map[string]int64{"classify:stuck": maxClassifyAttempts}}

	pool := NewPool(1, 64, zap.NewNop())
	pool.Start(context.Background())
	ing := NewIngestor(src, store, &fakeProcessed{}, classifier, pool, passDeduper{}, attempts, zap.NewNop())

	_, err := ing.Ingest(context.Background(), 10)
	require.NoError(t, err)

	drain(t, pool)
	assert.Empty(t, classifier.ids)
}
