package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb/oxidbtest"
)

func newPool(t *testing.T) *db.Pool {
	t.Helper()
	srv := oxidbtest.New(t)
	pool, err := db.NewPool(srv.Host(), srv.Port(), 2)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestFormRepoRoundTrip(t *testing.T) {
	repo := NewFormRepo(newPool(t))
	require.NoError(t, repo.EnsureIndexes())

	form := &models.Form{
		OwnerID:  "7",
		Title:    "Dinner feedback",
		Slug:     "dinner-feedback-abc",
		Active:   true,
		Settings: models.FormSettings{ReviewRedirect: true, Threshold: 4},
	}
	id, err := repo.Create(form)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.FindByID(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Dinner feedback", got.Title)
	assert.True(t, got.Settings.ReviewRedirect)

	got.Active = false
	require.NoError(t, repo.Update(got))
	got, err = repo.FindBySlug("dinner-feedback-abc")
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = repo.Create(&models.Form{OwnerID: "8", Title: "Dup", Slug: "dinner-feedback-abc"})
	require.Error(t, err)

	missing, err := repo.FindByID("999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFormRepoFindByOwner(t *testing.T) {
	repo := NewFormRepo(newPool(t))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, owner := range []string{"1", "2", "1"} {
		_, err := repo.Create(&models.Form{
			OwnerID:   owner,
			Title:     fmt.Sprintf("form %d", i),
			Slug:      fmt.Sprintf("form-%d", i),
			CreatedAt: models.Timestamp(base.Add(time.Duration(i) * time.Hour)),
		})
		require.NoError(t, err)
	}

	mine, err := repo.FindByOwner("1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "form 2", mine[0].Title)

	all, err := repo.FindByOwner("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestQuestionRepoOrdersByPosition(t *testing.T) {
	repo := NewQuestionRepo(newPool(t))
	for _, pos := range []int{2, 0, 1} {
		_, err := repo.Create(&models.Question{FormID: "1", Type: models.QuestionText, Text: fmt.Sprint(pos), Position: pos})
		require.NoError(t, err)
	}
	_, err := repo.Create(&models.Question{FormID: "2", Type: models.QuestionText, Text: "other"})
	require.NoError(t, err)

	qs, err := repo.FindByForm("1")
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, []string{"0", "1", "2"}, []string{qs[0].Text, qs[1].Text, qs[2].Text})

	require.NoError(t, repo.DeleteByForm("1"))
	qs, err = repo.FindByForm("1")
	require.NoError(t, err)
	assert.Empty(t, qs)
}

func TestSubmissionRepoPaging(t *testing.T) {
	repo := NewSubmissionRepo(newPool(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var subs []models.Submission
	for i := 0; i < 5; i++ {
		subs = append(subs, models.Submission{
			FormID:    "1",
			Outcome:   models.OutcomePrivate,
			Comment:   fmt.Sprintf("comment %d", i),
			CreatedAt: models.Timestamp(base.Add(time.Duration(i) * time.Minute)),
		})
	}
	require.NoError(t, repo.InsertMany(subs))

	page, total, err := repo.FindByFormID("1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "comment 3", page[0].Comment)

	latest, err := repo.Latest("1")
	require.NoError(t, err)
	assert.Equal(t, "comment 4", latest.Comment)

	all, err := repo.FindAllByFormID("1")
	require.NoError(t, err)
	assert.Equal(t, "comment 0", all[0].Comment)

	none, err := repo.Latest("2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSubmissionRepoFilter(t *testing.T) {
	repo := NewSubmissionRepo(newPool(t))
	score := func(f float64) *float64 { return &f }
	yes := true
	require.NoError(t, repo.InsertMany([]models.Submission{
		{FormID: "1", Outcome: models.OutcomePrivate, Critical: true, Score: score(1.5), CreatedAt: "2026-03-01T10:00:00Z"},
		{FormID: "1", Outcome: models.OutcomePrivate, Score: score(3), CreatedAt: "2026-03-01T11:00:00Z"},
		{FormID: "1", Outcome: models.OutcomeReviewRedirect, Score: score(4.5), CreatedAt: "2026-03-01T12:00:00Z"},
		{FormID: "1", Outcome: models.OutcomePrivate, CreatedAt: "2026-03-01T13:00:00Z"},
		{FormID: "2", Outcome: models.OutcomePrivate, Critical: true, Score: score(1), CreatedAt: "2026-03-01T14:00:00Z"},
	}))

	f := SubmissionFilter{FormID: "1", Outcome: models.OutcomePrivate, MinScore: score(2)}
	assert.Equal(t, map[string]any{"$and": []any{
		map[string]any{"formId": "1"},
		map[string]any{"outcome": models.OutcomePrivate},
		map[string]any{"score": map[string]any{"$gte": 2.0}},
	}}, f.Query())

	got, total, err := repo.Find(f, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, *got[0].Score)
	assert.True(t, f.Matches(&got[0]))

	got, total, err = repo.Find(SubmissionFilter{FormID: "1", Critical: &yes}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1.5, *got[0].Score)

	got, _, err = repo.Find(SubmissionFilter{FormID: "1", MaxScore: score(5)}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, got, 3, "unscored submissions never satisfy a score bound")
	assert.False(t, SubmissionFilter{MaxScore: score(5)}.Matches(&models.Submission{}))

	assert.Equal(t, map[string]any{}, SubmissionFilter{}.Query())
	assert.Equal(t, map[string]any{"formId": "2"}, SubmissionFilter{FormID: "2"}.Query())
}

func TestAdminRepoRejectsForeignCollections(t *testing.T) {
	repo := NewAdminRepo(newPool(t))
	_, err := repo.ListIndexes("_legacy_users")
	require.Error(t, err)

	stats, err := repo.Compact(SubmissionsCollection)
	require.NoError(t, err)
	assert.Contains(t, stats, "docs_kept")
}

func TestIDHelpers(t *testing.T) {
	doc := map[string]any{"_id": float64(12)}
	normalizeID(doc)
	assert.Equal(t, "12", doc["_id"])
	assert.Equal(t, "5", extractID(map[string]any{"id": float64(5)}))
	assert.Equal(t, float64(3), toNumericID("3"))
	assert.Equal(t, "abc", toNumericID("abc"))
}
