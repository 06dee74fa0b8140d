package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srujanlakku/ai-interview-agent/internal/interview"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "interviews.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func sampleReport(id string, completedAt time.Time) *interview.Report {
	return &interview.Report{
		SessionID:      id,
		Profile:        interview.Profile{Role: "backend engineer", Company: "acme"},
		QuestionsAsked: 8,
		OverallScore:   7.8,
		Readiness:      interview.InterviewReady,
		CategoryScores: map[interview.QuestionType]float64{interview.TypeTechnical: 8.0},
		Narrative:      "Strong performance.",
		Strengths:      []string{"clarity"},
		CompletedAt:    completedAt,
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	original := sampleReport("s-1", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, store.Save(ctx, original))

	loaded, err := store.Get(ctx, "s-1")
	require.NoError(t, err)

	assert.Equal(t, original.SessionID, loaded.SessionID)
	assert.Equal(t, original.OverallScore, loaded.OverallScore)
	assert.Equal(t, original.Readiness, loaded.Readiness)
	assert.Equal(t, original.Narrative, loaded.Narrative)
	assert.Equal(t, original.CategoryScores, loaded.CategoryScores)
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreListOrdersByCompletion(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, sampleReport("older", base)))
	require.NoError(t, store.Save(ctx, sampleReport("newer", base.Add(time.Hour))))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "newer", entries[0].SessionID)
	assert.Equal(t, "older", entries[1].SessionID)
	assert.Equal(t, interview.InterviewReady, entries[0].Readiness)
}

func TestStoreSaveReplacesExisting(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	report := sampleReport("s-1", time.Now().UTC())
	require.NoError(t, store.Save(ctx, report))

	report.OverallScore = 4.2
	report.Readiness = interview.NotReady
	require.NoError(t, store.Save(ctx, report))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 4.2, entries[0].OverallScore)
}

func TestStoreRejectsNilReport(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Save(context.Background(), nil))
}
