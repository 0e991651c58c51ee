package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

func TestFormCreateDefaults(t *testing.T) {
	e := newEnv(t)
	me := e.owner(t, "a@example.com")

	form, err := e.forms.Create(me, FormInput{Title: "  <b>Spring</b> Menu!  "})
	require.NoError(t, err)
	assert.Equal(t, "Spring Menu!", form.Title)
	assert.True(t, form.Active)
	assert.True(t, form.Settings.ReviewRedirect)
	assert.Equal(t, 4.0, form.Settings.Threshold)
	assert.Regexp(t, `^spring-menu-[0-9a-f]{8}$`, form.Slug)

	_, err = e.forms.Create(me, FormInput{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = e.forms.Create(me, FormInput{Title: "x", Settings: &models.FormSettings{Threshold: 6}})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = e.forms.Create(me, FormInput{Title: "x", Settings: &models.FormSettings{Threshold: 4, ReviewURL: "ftp://example.com"}})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFormOwnership(t *testing.T) {
	e := newEnv(t)
	alice := e.owner(t, "alice@example.com")
	bob := e.owner(t, "bob@example.com")

	form, err := e.forms.Create(alice, FormInput{Title: "Alice's form"})
	require.NoError(t, err)

	_, err = e.forms.Get(bob, form.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, e.forms.Delete(bob, form.ID), ErrNotFound)

	got, err := e.forms.Get(Actor{UserID: "admin", Admin: true}, form.ID)
	require.NoError(t, err)
	assert.Equal(t, form.ID, got.ID)

	mine, err := e.forms.List(bob)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestFormUpdateAndActive(t *testing.T) {
	e := newEnv(t)
	me := e.owner(t, "a@example.com")
	form, err := e.forms.Create(me, FormInput{Title: "Old"})
	require.NoError(t, err)

	title := "New"
	url := " https://g.page/r/abc "
	got, err := e.forms.Update(me, form.ID, FormPatch{Title: &title, ReviewURL: &url})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "https://g.page/r/abc", got.Settings.ReviewURL)

	_, err = e.forms.SetActive(me, form.ID, false)
	require.NoError(t, err)
	_, err = e.forms.GetActiveBySlug(form.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFormDeleteCascades(t *testing.T) {
	e := newEnv(t)
	me := e.owner(t, "a@example.com")
	form, _ := e.survey(t, me, nil)
	_, err := e.subs.Submit(form.Slug, []models.Answer{{QuestionID: mustQuestion(t, e, me, form.ID, 0), Value: 5.0}}, "")
	require.NoError(t, err)

	require.NoError(t, e.forms.Delete(me, form.ID))

	qs, err := e.questionR.FindByForm(form.ID)
	require.NoError(t, err)
	assert.Empty(t, qs)
	n, err := e.subR.CountByFormID(form.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFormDuplicate(t *testing.T) {
	e := newEnv(t)
	me := e.owner(t, "a@example.com")
	form, qs := e.survey(t, me, nil)

	dup, err := e.forms.Duplicate(me, form.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dinner feedback (copy)", dup.Title)
	assert.NotEqual(t, form.Slug, dup.Slug)

	copied, err := e.questions.List(me, dup.ID)
	require.NoError(t, err)
	require.Len(t, copied, len(qs))
	for i := range qs {
		assert.Equal(t, qs[i].Text, copied[i].Text)
		assert.Equal(t, i, copied[i].Position)
		assert.NotEqual(t, qs[i].ID, copied[i].ID)
	}
}

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "caf-au-lait", generateSlug("Café au lait"))
	assert.Equal(t, "survey", generateSlug("!!!"))
	long := generateSlug(strings.Repeat("ab ", 40))
	assert.LessOrEqual(t, len(long), 48)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func TestUserErrorUnwraps(t *testing.T) {
	err := invalidf("bad %s", "thing")
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Equal(t, "bad thing", err.Error())
}

func mustQuestion(t *testing.T, e *env, actor Actor, formID string, i int) string {
	t.Helper()
	qs, err := e.questions.List(actor, formID)
	require.NoError(t, err)
	require.Greater(t, len(qs), i)
	return qs[i].ID
}
