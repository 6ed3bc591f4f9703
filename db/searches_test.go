package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/tadeyemo32/prospect-backend/integrity"
	"github.com/tadeyemo32/prospect-backend/logger"
	"github.com/tadeyemo32/prospect-backend/models"
)

func newTestRepo(t *testing.T) SearchRepo {
	t.Helper()
	conn, err := OpenMemory()
	require.NoError(t, err)
	return NewSearchRepo(conn, logger.Nop())
}

func newSearch(id string) integrity.Payload {
	return integrity.Payload{
		"request_id":       id,
		"prompt":           "Find CFOs who are hiring in fintech",
		"status":           integrity.StatusProcessing,
		"max_candidates":   3,
		"include_linkedin": true,
		"created_at":       "2026-10-18T12:00:00Z",
	}
}

func TestSearchRepoCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p := newSearch("req-1")
	p["filters"] = map[string]any{"person_titles": []string{"cfo"}}
	created, err := repo.Create(ctx, p)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := repo.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "Find CFOs who are hiring in fintech", got.Prompt)
	assert.Equal(t, integrity.StatusProcessing, got.Status)
	assert.JSONEq(t, `{"person_titles":["cfo"]}`, got.Filters)
	assert.Equal(t, 3, got.MaxCandidates)
	assert.Nil(t, got.CompletedAt)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchRepoCreateRejectsBlankPrompt(t *testing.T) {
	repo := newTestRepo(t)
	p := newSearch("req-blank")
	p["prompt"] = "   "
	_, err := repo.Create(context.Background(), p)
	var perr *integrity.PromptIntegrityError
	assert.ErrorAs(t, err, &perr)
}

func TestSearchRepoCreateReduced(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p := newSearch("req-reduced")
	p["status"] = integrity.StatusFailed
	p["error"] = "Please provide a more detailed search query"
	rec, err := repo.CreateReduced(ctx, p)
	require.NoError(t, err)

	got, err := repo.Get(ctx, rec.RequestID)
	require.NoError(t, err)
	require.NotNil(t, got.Error)
	assert.Equal(t, "Please provide a more detailed search query", *got.Error)
	assert.Empty(t, got.Filters)
}

func TestSearchRepoUpdateKeepsPrompt(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.Create(ctx, newSearch("req-2"))
	require.NoError(t, err)

	err = repo.Update(ctx, "req-2", integrity.Payload{
		"prompt":          "",
		"status":          integrity.StatusCompleted,
		"completed_at":    "2026-10-18T12:01:00Z",
		"estimated_count": 1200,
		"filters":         map[string]any{"person_locations": []string{"United States"}},
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "req-2")
	require.NoError(t, err)
	assert.Equal(t, "Find CFOs who are hiring in fintech", got.Prompt)
	assert.Equal(t, integrity.StatusCompleted, got.Status)
	require.NotNil(t, got.EstimatedCount)
	assert.Equal(t, 1200, *got.EstimatedCount)
	assert.JSONEq(t, `{"person_locations":["United States"]}`, got.Filters)
	assert.Equal(t, 3, got.MaxCandidates)
}

func TestSearchRepoUpdateRejectsLeavingFinalStatus(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.Create(ctx, newSearch("req-3"))
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, "req-3", integrity.Payload{"status": integrity.StatusFailed, "error": "boom"}))
	err = repo.Update(ctx, "req-3", integrity.Payload{"status": integrity.StatusProcessing})
	assert.True(t, errors.Is(err, ErrStatusTransition))

	err = repo.Update(ctx, "nope", integrity.Payload{"status": integrity.StatusFailed})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchRepoCandidates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	rec, err := repo.Create(ctx, newSearch("req-4"))
	require.NoError(t, err)

	cands := []models.Candidate{
		{
			Name:        "Ada Park",
			Title:       "CFO",
			Company:     "Ledgerly",
			LinkedInURL: "https://www.linkedin.com/in/adapark",
			Accuracy:    91,
			Reasons:     datatypes.JSONSlice[string]{"CFO title", "fintech company"},
			BehavioralData: &models.BehavioralData{
				BehavioralInsight: "Actively reviewing finance tooling.",
				Scores: models.Scores{
					CMI:  models.Score{Score: 72, Explanation: "x"},
					RBFS: models.Score{Score: 40, Explanation: "y"},
					IAS:  models.Score{Score: 65, Explanation: "z"},
				},
			},
		},
		{Name: "Ben Ortiz", Title: "VP Finance", Company: "Paywise", Accuracy: 80},
	}
	require.NoError(t, repo.SaveCandidates(ctx, rec.ID, cands))

	got, err := repo.Candidates(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ada Park", got[0].Name)
	assert.Equal(t, []string{"CFO title", "fintech company"}, []string(got[0].Reasons))
	require.NotNil(t, got[0].BehavioralData)
	assert.Equal(t, 72, got[0].BehavioralData.Scores.CMI.Score)
	assert.Equal(t, "Ben Ortiz", got[1].Name)
	assert.Nil(t, got[1].BehavioralData)
	assert.JSONEq(t, `{}`, string(got[1].LinkedInProfile))
}

func TestSearchRepoListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	first, err := repo.Create(ctx, newSearch("req-a"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newSearch("req-b"))
	require.NoError(t, err)
	require.NoError(t, repo.SaveCandidates(ctx, first.ID, []models.Candidate{{Name: "Cleo Diaz"}}))

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "req-b", list[0].RequestID)

	require.NoError(t, repo.Delete(ctx, "req-a"))
	_, err = repo.Get(ctx, "req-a")
	assert.ErrorIs(t, err, ErrNotFound)
	left, err := repo.Candidates(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, repo.Delete(ctx, "req-a"), ErrNotFound)
	assert.NoError(t, repo.Ping(ctx))
}
