package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/config"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/mail"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb/oxidbtest"
)

type stubMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	mailer *stubMailer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := oxidbtest.New(t)
	pool, err := db.NewPool(fake.Host(), fake.Port(), 2)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	cfg := &config.Config{
		PublicBaseURL: "https://grove.test",
		JWTSecret:     "test-secret",
		JWTTTL:        time.Hour,
		AdminEmail:    "admin@grove.test",
		AdminPass:     "adminpass1",
		Routing:       config.RoutingConfig{Threshold: 4, CriticalThreshold: 2},
		Mail:          config.MailConfig{SupportTo: "support@grove.test"},
	}
	m := &stubMailer{}
	a := New(cfg, pool, zap.NewNop(), m)
	require.NoError(t, a.Bootstrap(nil))

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(a.Close)
	return &harness{t: t, srv: srv, mailer: m}
}

// do sends a request and decodes a JSON response into out when non-nil.
func (h *harness) do(method, path, token string, body any, out any) *http.Response {
	h.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.srv.Client().Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (h *harness) register(email string) string {
	h.t.Helper()
	var res struct {
		Token string `json:"token"`
	}
	resp := h.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "password123", "name": "Owner",
	}, &res)
	require.Equal(h.t, http.StatusCreated, resp.StatusCode)
	return res.Token
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	var res struct {
		Token string `json:"token"`
	}
	resp := h.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password}, &res)
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
	return res.Token
}

type formResp struct {
	ID   string `json:"_id"`
	Slug string `json:"slug"`
}

type questionResp struct {
	ID       string `json:"_id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

func TestSurveyLifecycle(t *testing.T) {
	h := newHarness(t)
	tok := h.register("owner@example.com")

	resp := h.do(http.MethodPut, "/api/v1/profile", tok, map[string]any{"reviewUrl": "https://g.page/r/luigi"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var form formResp
	resp = h.do(http.MethodPost, "/api/v1/forms", tok, map[string]any{"title": "Dinner"}, &form)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rating, comment questionResp
	resp = h.do(http.MethodPost, "/api/v1/forms/"+form.ID+"/questions", tok,
		map[string]any{"type": "rating", "text": "Food?", "required": true}, &rating)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	h.do(http.MethodPost, "/api/v1/forms/"+form.ID+"/questions", tok,
		map[string]any{"type": "text", "text": "Comments?"}, &comment)

	var moved []questionResp
	resp = h.do(http.MethodPost, "/api/v1/forms/"+form.ID+"/questions/move", tok, map[string]int{"from": 1, "to": 0}, &moved)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Comments?", moved[0].Text)

	var survey struct {
		Title     string         `json:"title"`
		Questions []questionResp `json:"questions"`
	}
	resp = h.do(http.MethodGet, "/api/v1/public/surveys/"+form.Slug, "", nil, &survey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Dinner", survey.Title)
	require.Len(t, survey.Questions, 2)

	var result struct {
		Outcome     string `json:"outcome"`
		RedirectURL string `json:"redirectUrl"`
	}
	resp = h.do(http.MethodPost, "/api/v1/public/surveys/"+form.Slug+"/responses", "", map[string]any{
		"answers": []map[string]any{{"questionId": rating.ID, "value": 5}, {"questionId": comment.ID, "value": "Superb"}},
	}, &result)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "review_redirect", result.Outcome)
	assert.Equal(t, "https://g.page/r/luigi", result.RedirectURL)

	var bad map[string]string
	resp = h.do(http.MethodPost, "/api/v1/public/surveys/"+form.Slug+"/responses", "", map[string]any{
		"answers": []map[string]any{{"questionId": rating.ID, "value": 9}},
	}, &bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, bad["error"], "1 to 5")

	var summary struct {
		Responses    int      `json:"responses"`
		AverageScore *float64 `json:"averageScore"`
		Redirected   int      `json:"redirected"`
	}
	resp = h.do(http.MethodGet, "/api/v1/forms/"+form.ID+"/analytics?days=7", tok, nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, summary.Responses)
	assert.Equal(t, 1, summary.Redirected)

	var hits struct {
		Total int `json:"total"`
	}
	h.do(http.MethodGet, "/api/v1/forms/"+form.ID+"/search?q=superb", tok, nil, &hits)
	assert.Equal(t, 1, hits.Total)
	h.do(http.MethodGet, "/api/v1/forms/"+form.ID+"/search?outcome=review_redirect&minScore=4.5", tok, nil, &hits)
	assert.Equal(t, 1, hits.Total)
	resp = h.do(http.MethodGet, "/api/v1/forms/"+form.ID+"/search?critical=maybe", tok, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var dash struct {
		FormCount     int `json:"formCount"`
		ResponseCount int `json:"responseCount"`
	}
	h.do(http.MethodGet, "/api/v1/dashboard", tok, nil, &dash)
	assert.Equal(t, 1, dash.FormCount)
	assert.Equal(t, 1, dash.ResponseCount)

	resp = h.do(http.MethodGet, "/api/v1/forms/"+form.ID+"/qr.png?size=128", tok, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = h.do(http.MethodGet, "/api/v1/forms/"+form.ID+"/export.xlsx", tok, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), form.Slug)

	resp = h.do(http.MethodPost, "/api/v1/forms/"+form.ID+"/export/sheets", tok, map[string]string{"spreadsheetId": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodPut, "/api/v1/forms/"+form.ID+"/active", tok, map[string]bool{"active": false}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = h.do(http.MethodGet, "/api/v1/public/surveys/"+form.Slug, "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthAndOwnershipErrors(t *testing.T) {
	h := newHarness(t)
	alice := h.register("alice@example.com")
	bob := h.register("bob@example.com")

	resp := h.do(http.MethodGet, "/api/v1/forms", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "password123", "name": "Again",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var form formResp
	h.do(http.MethodPost, "/api/v1/forms", alice, map[string]any{"title": "Private"}, &form)
	resp = h.do(http.MethodGet, "/api/v1/forms/"+form.ID, bob, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/v1/admin/indexes", alice, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := h.login("admin@grove.test", "adminpass1")
	var idx struct {
		Indexes []map[string]any `json:"indexes"`
	}
	resp = h.do(http.MethodGet, "/api/v1/admin/indexes?collection=_grove_forms", admin, nil, &idx)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, idx.Indexes)

	resp = h.do(http.MethodPost, "/api/v1/forms/"+form.ID+"/template", admin, map[string]string{"key": "private"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTemplatesOverHTTP(t *testing.T) {
	h := newHarness(t)
	tok := h.register("owner@example.com")

	var tpls []struct {
		ID    string `json:"_id"`
		Title string `json:"title"`
	}
	resp := h.do(http.MethodGet, "/api/v1/templates", tok, nil, &tpls)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, tpls)

	var form formResp
	resp = h.do(http.MethodPost, fmt.Sprintf("/api/v1/templates/%s/use", tpls[0].ID), tok, nil, &form)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var qs []questionResp
	h.do(http.MethodGet, "/api/v1/forms/"+form.ID+"/questions", tok, nil, &qs)
	assert.NotEmpty(t, qs)
	for i, q := range qs {
		assert.Equal(t, i, q.Position)
	}
}

func TestContactAndHealth(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	payload := map[string]string{"name": "Ann", "email": "ann@example.com", "message": "Hi"}
	resp = h.do(http.MethodPost, "/api/v1/contact", "", payload, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "ann@example.com", h.mailer.sent[0].ReplyTo)

	h.mailer.err = &mail.ProviderError{Status: 500, Body: "provider exploded"}
	var body map[string]string
	resp = h.do(http.MethodPost, "/api/v1/contact", "", payload, &body)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["error"], "provider exploded")

	resp = h.do(http.MethodPost, "/api/v1/contact", "", map[string]string{"email": "ann@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
