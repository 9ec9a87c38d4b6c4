package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	authSvc := services.NewAuthService(repo, []byte("test-secret-0123456789abcdef"), 0, 4)
	txSvc := services.NewTransactionService(repo, nil, t.TempDir())

	s := NewServer("127.0.0.1:0", authSvc, txSvc, repo.Ping)
	ts := httptest.NewServer(s.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown(context.Background())
	})
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var fields map[string]json.RawMessage
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &fields))
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return resp, fields
}

func registerUser(t *testing.T, ts *httptest.Server, name, email, password string) string {
	t.Helper()
	resp, fields := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var token string
	require.NoError(t, json.Unmarshal(fields["token"], &token))
	return token
}

func listBody(t *testing.T, resp *http.Response) []map[string]json.RawMessage {
	t.Helper()
	var items []map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	return items
}

func TestRegisterLoginCreateSummaryFlow(t *testing.T) {
	ts := newTestServer(t)

	token := registerUser(t, ts, "Alice", "alice@x.com", "secret1")
	require.NotEmpty(t, token)

	resp, fields := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `"Invalid credentials"`, string(fields["message"]))

	resp, fields = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(fields["token"], &token))

	resp, fields = doJSON(t, ts, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "expense", "category": "Food", "amount": 250, "tx_date": "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var id int64
	require.NoError(t, json.Unmarshal(fields["id"], &id))
	assert.NotZero(t, id)

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/transactions?type=expense", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := listBody(t, resp)
	require.Len(t, items, 1)
	assert.JSONEq(t, `"Food"`, string(items[0]["category"]))
	assert.JSONEq(t, `250`, string(items[0]["amount"]))
	assert.JSONEq(t, `"2024-03-01"`, string(items[0]["tx_date"]))

	resp, fields = doJSON(t, ts, http.MethodGet, "/api/transactions/summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `0`, string(fields["income"]))
	assert.JSONEq(t, `250`, string(fields["expense"]))
	assert.JSONEq(t, `-250`, string(fields["balance"]))
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	ts := newTestServer(t)

	registerUser(t, ts, "Alice", "alice@x.com", "secret1")
	resp, _ := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Other", "email": "alice@x.com", "password": "secret2",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUnknownAndWrongPasswordLoginIdentical(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "Alice", "alice@x.com", "secret1")

	respUnknown, fieldsUnknown := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@x.com", "password": "secret1",
	})
	respWrong, fieldsWrong := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@x.com", "password": "wrong",
	})

	assert.Equal(t, respUnknown.StatusCode, respWrong.StatusCode)
	assert.Equal(t, string(fieldsUnknown["message"]), string(fieldsWrong["message"]))
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/transactions"},
		{http.MethodPost, "/api/transactions"},
		{http.MethodPut, "/api/transactions/1"},
		{http.MethodDelete, "/api/transactions/1"},
		{http.MethodGet, "/api/transactions/summary"},
		{http.MethodGet, "/api/transactions/recent"},
		{http.MethodGet, "/api/transactions/by-month"},
		{http.MethodPost, "/api/transactions/export"},
		{http.MethodPost, "/api/auth/change-password"},
	}
	for _, tc := range paths {
		resp, _ := doJSON(t, ts, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}

	resp, _ := doJSON(t, ts, http.MethodGet, "/api/transactions", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUserIsolation(t *testing.T) {
	ts := newTestServer(t)

	aliceToken := registerUser(t, ts, "Alice", "alice@x.com", "secret1")
	bobToken := registerUser(t, ts, "Bob", "bob@x.com", "secret2")

	resp, fields := doJSON(t, ts, http.MethodPost, "/api/transactions", aliceToken, map[string]any{
		"type": "expense", "category": "Food", "amount": 25, "tx_date": "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var id int64
	require.NoError(t, json.Unmarshal(fields["id"], &id))

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/transactions", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, listBody(t, resp))

	resp, _ = doJSON(t, ts, http.MethodDelete, "/api/transactions/"+itoa(id), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/transactions", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, listBody(t, resp), 1)
}

func TestSameDateOrderedByIDDescending(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "Alice", "alice@x.com", "secret1")

	var ids []int64
	for _, category := range []string{"First", "Second"} {
		resp, fields := doJSON(t, ts, http.MethodPost, "/api/transactions", token, map[string]any{
			"type": "expense", "category": category, "amount": 10, "tx_date": "2024-03-01",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var id int64
		require.NoError(t, json.Unmarshal(fields["id"], &id))
		ids = append(ids, id)
	}

	resp, _ := doJSON(t, ts, http.MethodGet, "/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := listBody(t, resp)
	require.Len(t, items, 2)
	assert.JSONEq(t, itoa(ids[1]), string(items[0]["id"]))
	assert.JSONEq(t, itoa(ids[0]), string(items[1]["id"]))
}

func TestPartialUpdateKeepsOtherFields(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "Alice", "alice@x.com", "secret1")

	resp, fields := doJSON(t, ts, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "expense", "category": "Food", "amount": 250, "tx_date": "2024-03-01", "description": "groceries",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var id int64
	require.NoError(t, json.Unmarshal(fields["id"], &id))

	resp, fields = doJSON(t, ts, http.MethodPut, "/api/transactions/"+itoa(id), token, map[string]any{
		"amount": 500,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `true`, string(fields["success"]))

	var updated map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(fields["updated"], &updated))
	assert.JSONEq(t, `500`, string(updated["amount"]))
	assert.JSONEq(t, `"Food"`, string(updated["category"]))
	assert.JSONEq(t, `"expense"`, string(updated["type"]))
	assert.JSONEq(t, `"2024-03-01"`, string(updated["tx_date"]))
	assert.JSONEq(t, `"groceries"`, string(updated["description"]))
}

func TestUpdateValidation(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "Alice", "alice@x.com", "secret1")

	resp, fields := doJSON(t, ts, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "expense", "category": "Food", "amount": 250, "tx_date": "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var id int64
	require.NoError(t, json.Unmarshal(fields["id"], &id))

	resp, _ = doJSON(t, ts, http.MethodPut, "/api/transactions/"+itoa(id), token, map[string]any{
		"type": "transfer",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodPut, "/api/transactions/999999", token, map[string]any{
		"amount": 5,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodPut, "/api/transactions/abc", token, map[string]any{
		"amount": 5,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateValidation(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "Alice", "alice@x.com", "secret1")

	cases := []map[string]any{
		{"type": "transfer", "category": "Food", "amount": 10, "tx_date": "2024-03-01"},
		{"type": "expense", "category": "", "amount": 10, "tx_date": "2024-03-01"},
		{"type": "expense", "category": "Food", "amount": 0, "tx_date": "2024-03-01"},
		{"type": "expense", "category": "Food", "amount": -5, "tx_date": "2024-03-01"},
		{"type": "expense", "category": "Food", "amount": 10, "tx_date": "03/01/2024"},
		{"type": "expense", "category": "Food", "amount": 10},
	}
	for i, body := range cases {
		resp, _ := doJSON(t, ts, http.MethodPost, "/api/transactions", token, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "case %d", i)
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "Alice", "alice@x.com", "secret1")

	for i := 0; i < 7; i++ {
		resp, _ := doJSON(t, ts, http.MethodPost, "/api/transactions", token, map[string]any{
			"type": "expense", "category": "Food", "amount": 10, "tx_date": "2024-03-01",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, _ := doJSON(t, ts, http.MethodGet, "/api/transactions/recent", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, listBody(t, resp), 5)

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/transactions/recent?limit=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, listBody(t, resp), 2)

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/transactions/recent?limit=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChangePasswordFlow(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "Alice", "alice@x.com", "secret1")

	resp, _ := doJSON(t, ts, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "wrong", "newPassword": "newsecret",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "secret1", "newPassword": "newsecret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@x.com", "password": "newsecret",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExportReturnsReportID(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "Alice", "alice@x.com", "secret1")

	resp, fields := doJSON(t, ts, http.MethodPost, "/api/transactions/export", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var reportID string
	require.NoError(t, json.Unmarshal(fields["report_id"], &reportID))
	assert.NotEmpty(t, reportID)
}

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, ts, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadinessFailure(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil, nil, func(context.Context) error {
		return errors.New("db gone")
	})
	ts := httptest.NewServer(s.Server.Handler)
	defer ts.Close()
	defer s.Shutdown(context.Background())

	resp, err := ts.Client().Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, ts, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
