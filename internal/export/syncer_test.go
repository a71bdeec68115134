package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gradient/internal/model"
)

type fakeIngestor struct {
	count int
	err   error
	runs  int
}

func (f *fakeIngestor) Ingest(context.Context, int) (int, error) {
	f.runs++
	return f.count, f.err
}

type fakeExportables struct {
	rows    []model.Message
	listErr error

	marked  [][]string
	markErr error
}

func (f *fakeExportables) ListExportable(context.Context, int) ([]model.Message, error) {
	return f.rows, f.listErr
}

func (f *fakeExportables) MarkExported(_ context.Context, ids []string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, ids)
	return nil
}

type fakeSink struct {
	appended [][][]string
	err      error
}

func (f *fakeSink) AppendRows(_ context.Context, rows [][]string) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, rows)
	return nil
}

func (f *fakeSink) UpdateCell(context.Context, int, int, string) error {
	return nil
}

func exportableMessage(id string) model.Message {
	now := time.Now()
	company := "Acme"
	return model.Message{
		ID:             id,
		IngestedAt:     now,
		PreprocessedAt: &now,
		AnalyzedAt:     &now,
		Subject:        "subject",
		Sender:         "jane@acme.com",
		IsLead:         true,
		Priority:       model.PriorityHigh,
		StatusLabel:    "hot",
		Tone:           model.ToneFriendly,
		Company:        &company,
		CompanyInsights: []model.InsightRecord{
			{Title: "About Acme", Snippet: "logistics", URL: "https://acme.com"},
		},
	}
}

func TestSyncExportsAndMarks(t *testing.T) {
	ingestor := &fakeIngestor{count: 1}
	store := &fakeExportables{rows: []model.Message{exportableMessage("m-1"), exportableMessage("m-2")}}
	sink := &fakeSink{}
	s := NewSyncer(ingestor, store, sink, 25, zap.NewNop())

	count, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, 1, ingestor.runs)
	require.Len(t, sink.appended, 1)
	require.Len(t, sink.appended[0], 2)
	require.Len(t, store.marked, 1)
	assert.Equal(t, []string{"m-1", "m-2"}, store.marked[0])
}

func TestSyncNothingToExport(t *testing.T) {
	s := NewSyncer(&fakeIngestor{}, &fakeExportables{}, &fakeSink{}, 25, zap.NewNop())

	count, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSyncSinkFailureMarksNothing(t *testing.T) {
	store := &fakeExportables{rows: []model.Message{exportableMessage("m-1")}}
	sink := &fakeSink{err: errors.New("append failed")}
	s := NewSyncer(&fakeIngestor{}, store, sink, 25, zap.NewNop())

	_, err := s.Sync(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.marked)
}

func TestSyncIngestFailureStillExports(t *testing.T) {
	ingestor := &fakeIngestor{err: errors.New("mail source down")}
	store := &fakeExportables{rows: []model.Message{exportableMessage("m-1")}}
	sink := &fakeSink{}
	s := NewSyncer(ingestor, store, sink, 25, zap.NewNop())

	count, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProjectRowShape(t *testing.T) {
	msg := exportableMessage("m-1")
	row := projectRow(&msg)

	require.Len(t, row, len(exportColumns))
	assert.Equal(t, "m-1", row[0])
	assert.Equal(t, "true", row[6])
	assert.Equal(t, "Acme", row[13])
	assert.Contains(t, row[22], `"title":"About Acme"`)
	assert.Equal(t, "[]", row[23])
}
