package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gradient/internal/model"
	"gradient/internal/reply"
	"gradient/internal/repository"
)

type fakeMessages struct {
	msg *model.Message
	err error
}

func (f *fakeMessages) FindByID(context.Context, string) (*model.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.msg, nil
}

type fakeCache struct {
	entries map[repository.Fingerprint]map[string]string
	getErr  error
	putErr  error

	gets int
	puts int
}

func (f *fakeCache) Get(_ context.Context, fp repository.Fingerprint) (map[string]string, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	key, err := fp.Normalize()
	if err != nil {
		return nil, err
	}
	return f.entries[key], nil
}

func (f *fakeCache) Put(_ context.Context, fp repository.Fingerprint, replies map[string]string) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	key, err := fp.Normalize()
	if err != nil {
		return err
	}
	if f.entries == nil {
		f.entries = map[repository.Fingerprint]map[string]string{}
	}
	f.entries[key] = replies
	return nil
}

type fakeDrafter struct {
	replies map[string]string
	err     error
	calls   int
	lastOpt reply.Options
}

func (f *fakeDrafter) Draft(_ context.Context, _, _ map[string]interface{}, opts reply.Options) (map[string]string, error) {
	f.calls++
	f.lastOpt = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.replies, nil
}

func classifiedMessage() *model.Message {
	return &model.Message{
		ID:         "m-1",
		Subject:    "Pricing",
		Sender:     "jane@acme.com",
		ReceivedAt: "Mon, 11 May 2026 10:00:00 +0000",
		Tone:       model.ToneFriendly,
	}
}

func messageFingerprint(m *model.Message) repository.Fingerprint {
	return repository.Fingerprint{
		Participant: m.Sender,
		Topic:       m.Subject,
		ReceivedAt:  m.ReceivedAt,
	}
}

func TestGetRepliesCacheHitSkipsGeneration(t *testing.T) {
	msg := classifiedMessage()
	cached := map[string]string{"quick_formal": "cached text"}
	cache := &fakeCache{entries: map[repository.Fingerprint]map[string]string{
		messageFingerprint(msg): cached,
	}}
	drafter := &fakeDrafter{}
	s := NewReplyService(&fakeMessages{msg: msg}, cache, drafter, zap.NewNop())

	replies, err := s.GetReplies(context.Background(), DraftRequest{MessageID: "m-1"})
	require.NoError(t, err)

	assert.Equal(t, cached, replies)
	assert.Zero(t, drafter.calls)
}

func TestGetRepliesCacheMissGeneratesAndStores(t *testing.T) {
	msg := classifiedMessage()
	cache := &fakeCache{}
	drafter := &fakeDrafter{replies: map[string]string{"quick_formal": "fresh"}}
	s := NewReplyService(&fakeMessages{msg: msg}, cache, drafter, zap.NewNop())

	replies, err := s.GetReplies(context.Background(), DraftRequest{MessageID: "m-1"})
	require.NoError(t, err)

	assert.Equal(t, "fresh", replies["quick_formal"])
	assert.Equal(t, 1, drafter.calls)
	assert.Equal(t, model.ToneFriendly, drafter.lastOpt.Tone)
	assert.Equal(t, 1, cache.puts)
}

func TestGetRepliesRegenerateBypassesRead(t *testing.T) {
	msg := classifiedMessage()
	cache := &fakeCache{entries: map[repository.Fingerprint]map[string]string{
		messageFingerprint(msg): {"quick_formal": "stale"},
	}}
	drafter := &fakeDrafter{replies: map[string]string{"quick_formal": "fresh"}}
	s := NewReplyService(&fakeMessages{msg: msg}, cache, drafter, zap.NewNop())

	replies, err := s.GetReplies(context.Background(), DraftRequest{MessageID: "m-1", Regenerate: true})
	require.NoError(t, err)

	assert.Equal(t, "fresh", replies["quick_formal"])
	assert.Equal(t, 1, drafter.calls)
	// the stale entry was replaced wholesale
	assert.Equal(t, "fresh", cache.entries[messageFingerprint(msg)]["quick_formal"])
}

func TestGetRepliesPartialKeyBypassesCache(t *testing.T) {
	msg := classifiedMessage()
	msg.Subject = "" // incomplete fingerprint

	cache := &fakeCache{}
	drafter := &fakeDrafter{replies: map[string]string{"quick_formal": "fresh"}}
	s := NewReplyService(&fakeMessages{msg: msg}, cache, drafter, zap.NewNop())

	replies, err := s.GetReplies(context.Background(), DraftRequest{MessageID: "m-1"})
	require.NoError(t, err)

	assert.Equal(t, "fresh", replies["quick_formal"])
	assert.Zero(t, cache.gets)
	assert.Zero(t, cache.puts)
}

func TestGetRepliesMessageLoadFailure(t *testing.T) {
	s := NewReplyService(&fakeMessages{err: errors.New("not found")}, &fakeCache{}, &fakeDrafter{}, zap.NewNop())

	_, err := s.GetReplies(context.Background(), DraftRequest{MessageID: "missing"})
	assert.Error(t, err)
}

func TestPreGenerateStoresDrafts(t *testing.T) {
	msg := classifiedMessage()
	cache := &fakeCache{}
	drafter := &fakeDrafter{replies: map[string]string{"quick_formal": "fresh"}}
	s := NewReplyService(&fakeMessages{msg: msg}, cache, drafter, zap.NewNop())

	s.PreGenerate(context.Background(), "m-1")

	assert.Equal(t, 1, drafter.calls)
	assert.Equal(t, "fresh", cache.entries[messageFingerprint(msg)]["quick_formal"])
}

func TestPreGenerateSkipsExistingEntry(t *testing.T) {
	msg := classifiedMessage()
	cache := &fakeCache{entries: map[repository.Fingerprint]map[string]string{
		messageFingerprint(msg): {"quick_formal": "already there"},
	}}
	drafter := &fakeDrafter{}
	s := NewReplyService(&fakeMessages{msg: msg}, cache, drafter, zap.NewNop())

	s.PreGenerate(context.Background(), "m-1")

	assert.Zero(t, drafter.calls)
}

func TestPreGenerateIncompleteFingerprintIsNoop(t *testing.T) {
	msg := classifiedMessage()
	msg.ReceivedAt = ""

	cache := &fakeCache{}
	drafter := &fakeDrafter{}
	s := NewReplyService(&fakeMessages{msg: msg}, cache, drafter, zap.NewNop())

	s.PreGenerate(context.Background(), "m-1")

	assert.Zero(t, drafter.calls)
	assert.Zero(t, cache.puts)
}

func TestPreGenerateDraftFailureIsContained(t *testing.T) {
	msg := classifiedMessage()
	cache := &fakeCache{}
	drafter := &fakeDrafter{err: errors.New("upstream down")}
	s := NewReplyService(&fakeMessages{msg: msg}, cache, drafter, zap.NewNop())

	s.PreGenerate(context.Background(), "m-1")

	assert.Zero(t, cache.puts)
}
