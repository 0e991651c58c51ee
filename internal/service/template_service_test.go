package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/catalog"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

func TestConvertTemplateQuestionsTypeMap(t *testing.T) {
	cases := map[string]string{
		"star_rating":     models.QuestionRating,
		"rating":          models.QuestionRating,
		"nps":             models.QuestionNPS,
		"single_choice":   models.QuestionMultipleChoice,
		"multiple_choice": models.QuestionMultipleChoice,
		"yes_no":          models.QuestionYesNo,
		"short_text":      models.QuestionText,
		"long_text":       models.QuestionText,
		"text":            models.QuestionText,
	}
	for in, want := range cases {
		tq := models.TemplateQuestion{Type: in, Text: "Q"}
		if want == models.QuestionMultipleChoice {
			tq.Options = []string{"A", "B"}
		}
		got, err := ConvertTemplateQuestions([]models.TemplateQuestion{tq})
		require.NoError(t, err, in)
		assert.Equal(t, want, got[0].Type, in)
	}

	_, err := ConvertTemplateQuestions([]models.TemplateQuestion{{Type: "slider", Text: "Q"}})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestConvertTemplateQuestionsOrders(t *testing.T) {
	got, err := ConvertTemplateQuestions([]models.TemplateQuestion{
		{Type: "long_text", Text: "last", Position: 7},
		{Type: "star_rating", Text: "first", Position: 1},
		{Type: "yes_no", Text: "middle", Position: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "middle", "last"}, texts(got))
	assert.Equal(t, []int{0, 1, 2}, positions(got))
}

func TestTemplateSeedIsIdempotent(t *testing.T) {
	e := newEnv(t)
	builtIn, err := catalog.BuiltIn()
	require.NoError(t, err)

	n, err := e.templates.Seed()
	require.NoError(t, err)
	assert.Equal(t, len(builtIn), n)

	n, err = e.templates.Seed()
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := e.templates.List("")
	require.NoError(t, err)
	assert.Len(t, all, len(builtIn))
}

func TestCreateFromTemplate(t *testing.T) {
	e := newEnv(t)
	me := e.owner(t, "a@example.com")
	_, err := e.templates.Seed()
	require.NoError(t, err)
	all, err := e.templates.List("")
	require.NoError(t, err)
	tpl := all[0]

	form, err := e.templates.CreateFromTemplate(me, tpl.ID, "")
	require.NoError(t, err)
	assert.Equal(t, tpl.Title, form.Title)

	qs, err := e.questions.List(me, form.ID)
	require.NoError(t, err)
	assert.Len(t, qs, len(tpl.Questions))

	form, err = e.templates.CreateFromTemplate(me, tpl.ID, "My own title")
	require.NoError(t, err)
	assert.Equal(t, "My own title", form.Title)

	_, err = e.templates.CreateFromTemplate(me, "999", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFromTemplateUnknownTypePersistsNothing(t *testing.T) {
	e := newEnv(t)
	me := e.owner(t, "a@example.com")
	id, err := e.templateR.Create(&models.Template{
		Key:   "broken",
		Title: "Broken",
		Questions: []models.TemplateQuestion{
			{Type: "star_rating", Text: "ok"},
			{Type: "matrix", Text: "nope", Position: 1},
		},
	})
	require.NoError(t, err)

	_, err = e.templates.CreateFromTemplate(me, id, "")
	assert.ErrorIs(t, err, ErrInvalid)

	forms, err := e.forms.List(me)
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestSaveAsTemplate(t *testing.T) {
	e := newEnv(t)
	me := e.owner(t, "a@example.com")
	form, qs := e.survey(t, me, nil)

	_, err := e.templates.SaveAsTemplate(me, form.ID, SaveTemplateInput{})
	assert.ErrorIs(t, err, ErrForbidden)

	admin := Actor{UserID: "admin", Admin: true}
	tpl, err := e.templates.SaveAsTemplate(admin, form.ID, SaveTemplateInput{Key: "Dinner Survey", Category: "food"})
	require.NoError(t, err)
	assert.Equal(t, "dinner-survey", tpl.Key)
	assert.Len(t, tpl.Questions, len(qs))

	_, err = e.templates.SaveAsTemplate(admin, form.ID, SaveTemplateInput{Key: "dinner-survey"})
	assert.ErrorIs(t, err, ErrConflict)

	byCat, err := e.templates.List("food")
	require.NoError(t, err)
	require.Len(t, byCat, 1)

	// A saved template round-trips into a new form.
	copyForm, err := e.templates.CreateFromTemplate(me, byCat[0].ID, "")
	require.NoError(t, err)
	copied, err := e.questions.List(me, copyForm.ID)
	require.NoError(t, err)
	assert.Equal(t, texts(qs), texts(copied))
}
