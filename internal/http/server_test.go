package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/auth"
	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/prefs"
	"fintrack/internal/prefs/memory"
	"fintrack/internal/services"
)

var now = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.Local)

type testServer struct {
	*Server
	mem *memory.Store
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	mem := memory.New()
	clock := func() time.Time { return now }

	finance := services.NewFinanceService(
		ledger.NewStore(mem, ledger.WithClock(clock)),
		budget.NewStore(mem, nil),
		services.WithClock(clock),
	)
	authSvc := auth.NewService(mem, auth.WithClock(clock), auth.WithHashCost(bcrypt.MinCost))

	srv := NewServer(":0", finance, authSvc, opts...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{Server: srv, mem: mem}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rr, req)
	return rr
}

// login registers username and returns a session token.
func (ts *testServer) login(t *testing.T, username string) string {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/api/signup", "", auth.RegisterInput{
		Username: username, Email: username + "@example.com", Password: "Secret1", ConfirmPassword: "Secret1",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodPost, "/api/login", "", loginRequest{Username: username, Password: "Secret1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var sess sessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.Token)
	return sess.Token
}

func decodeSnapshot(t *testing.T, rr *httptest.ResponseRecorder) snapshotResponse {
	t.Helper()
	var snap snapshotResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap), rr.Body.String())
	return snap
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	}

	down := newTestServer(t, WithReadiness(func(context.Context) error { return errors.New("db down") }))
	rr := down.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	assert.Equal(t, int64(2), ts.Metrics().TotalRequests)
	assert.Equal(t, int64(0), ts.Metrics().ServerErrors)
	assert.Equal(t, int64(1), down.Metrics().TotalRequests)
}

func TestSignupErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "alice")

	tests := []struct {
		name string
		in   auth.RegisterInput
		want int
	}{
		{"missing fields", auth.RegisterInput{Username: "bob"}, http.StatusBadRequest},
		{"mismatch", auth.RegisterInput{Username: "bob", Email: "bob@example.com", Password: "Secret1", ConfirmPassword: "Secret2"}, http.StatusBadRequest},
		{"weak", auth.RegisterInput{Username: "bob", Email: "bob@example.com", Password: "short", ConfirmPassword: "short"}, http.StatusBadRequest},
		{"email taken", auth.RegisterInput{Username: "bob", Email: "ALICE@example.com", Password: "Secret1", ConfirmPassword: "Secret1"}, http.StatusConflict},
		{"username taken", auth.RegisterInput{Username: "alice", Email: "other@example.com", Password: "Secret1", ConfirmPassword: "Secret1"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPost, "/api/signup", "", tt.in)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestSignupRejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/api/signup", "", map[string]string{"username": "a", "admin": "true"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginAndSessions(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")

	rr := ts.do(t, http.MethodPost, "/api/login", "", loginRequest{Username: "alice", Password: "wrong1A"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/ledger", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = ts.do(t, http.MethodGet, "/api/ledger", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.do(t, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code, "logout is idempotent")

	rr = ts.do(t, http.MethodGet, "/api/ledger", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	ts := newTestServer(t, WithAuthRateLimit(2))
	for i := 0; i < 2; i++ {
		rr := ts.do(t, http.MethodPost, "/api/login", "", loginRequest{Username: "x", Password: "y"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr := ts.do(t, http.MethodPost, "/api/login", "", loginRequest{Username: "x", Password: "y"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")

	rr := ts.do(t, http.MethodGet, "/api/ledger", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decodeSnapshot(t, rr)
	assert.Equal(t, "5000.00", snap.Ledger.Balance)
	assert.Equal(t, budget.LabelNotSet, snap.Budget.Label)

	rr = ts.do(t, http.MethodPost, "/api/transactions", token, transactionInputJSON{
		Title: "Coffee", Amount: "4.50", Kind: "expense", Category: "Food",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	snap = decodeSnapshot(t, rr)
	require.Len(t, snap.Ledger.Transactions, 1)
	coffee := snap.Ledger.Transactions[0]
	assert.Equal(t, "-$4.50", coffee.Display)
	assert.Equal(t, core.ExpenseColor, coffee.Color)
	assert.Equal(t, "Oct 14, 2026 09:30", coffee.DateTime)
	assert.Equal(t, "4995.50", snap.Ledger.Balance)
	assert.Equal(t, "$4995.50", snap.Ledger.BalanceDisplay)

	rr = ts.do(t, http.MethodPut, "/api/transactions", token, editRequest{
		Original: coffee,
		Update:   transactionInputJSON{Title: "Coffee", Amount: "5.00", Kind: "expense", Category: "Food", Date: "Oct 14, 2026", Time: "09:30"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap = decodeSnapshot(t, rr)
	assert.Equal(t, "4995.00", snap.Ledger.Balance)
	edited := snap.Ledger.Transactions[0]

	// the original no longer exists
	rr = ts.do(t, http.MethodDelete, "/api/transactions", token, coffee)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodDelete, "/api/transactions", token, edited)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap = decodeSnapshot(t, rr)
	assert.Empty(t, snap.Ledger.Transactions)
	assert.Equal(t, "5000.00", snap.Ledger.Balance)
}

func TestLedgerSortByTime(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")

	for _, in := range []transactionInputJSON{
		{Title: "Rent", Amount: "900", Kind: "expense", Category: "Housing", Date: "Oct 10, 2026", Time: "08:00"},
		{Title: "Salary", Amount: "3000", Kind: "income", Category: "Other", Date: "Oct 1, 2026", Time: "09:00"},
	} {
		rr := ts.do(t, http.MethodPost, "/api/transactions", token, in)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := ts.do(t, http.MethodGet, "/api/ledger", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entry := decodeSnapshot(t, rr).Ledger.Transactions
	require.Len(t, entry, 2)
	assert.Equal(t, "Salary", entry[0].Title, "entry order is newest entered first")

	rr = ts.do(t, http.MethodGet, "/api/ledger?sort=time", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sorted := decodeSnapshot(t, rr).Ledger.Transactions
	require.Len(t, sorted, 2)
	assert.Equal(t, "Rent", sorted[0].Title)
	assert.Equal(t, "Salary", sorted[1].Title)

	rr = ts.do(t, http.MethodGet, "/api/ledger", token, nil)
	assert.Equal(t, "Salary", decodeSnapshot(t, rr).Ledger.Transactions[0].Title, "sorting a response leaves storage alone")
}

func TestAddTransactionValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")

	tests := []struct {
		name string
		in   transactionInputJSON
	}{
		{"empty title", transactionInputJSON{Title: " ", Amount: "1", Kind: "expense", Category: "Food"}},
		{"bad amount", transactionInputJSON{Title: "x", Amount: "abc", Kind: "expense", Category: "Food"}},
		{"bad kind", transactionInputJSON{Title: "x", Amount: "1", Kind: "gift", Category: "Food"}},
		{"bad category", transactionInputJSON{Title: "x", Amount: "1", Kind: "expense", Category: "Bills"}},
		{"date without time", transactionInputJSON{Title: "x", Amount: "1", Kind: "expense", Category: "Food", Date: "Oct 1, 2026"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPost, "/api/transactions", token, tt.in)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}

	rr := ts.do(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeSnapshot(t, rr).Ledger.Transactions)
}

func TestDashboardDoesNotSeed(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")

	rr := ts.do(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0.00", decodeSnapshot(t, rr).Ledger.Balance)

	_, found, err := ts.mem.Get(context.Background(), ledger.FirstRunKey("alice"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMalformedLedgerIsServedWithWarning(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")
	require.NoError(t, ts.mem.Apply(context.Background(), prefs.Put(ledger.TransactionsKey("alice"), "{not json")))

	rr := ts.do(t, http.MethodGet, "/api/ledger", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap := decodeSnapshot(t, rr)
	assert.Equal(t, "stored transactions could not be read", snap.Warning)
	assert.Empty(t, snap.Ledger.Transactions)
}

func TestBudgetEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")

	rr := ts.do(t, http.MethodPost, "/api/transactions", token, transactionInputJSON{
		Title: "Groceries", Amount: "95", Kind: "expense", Category: "Food",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodPut, "/api/budget", token, setBudgetRequest{Amount: "100"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap := decodeSnapshot(t, rr)
	assert.Equal(t, budget.LabelAlmost, snap.Budget.Label)
	require.NotNil(t, snap.Budget.Alert)
	assert.Equal(t, budget.AlertWarning, snap.Budget.Alert.Kind)
	assert.Equal(t, 95, snap.Budget.Progress)

	rr = ts.do(t, http.MethodGet, "/api/budget", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var b budgetResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b))
	assert.Equal(t, "100.00", b.MonthlyBudget)
	assert.Equal(t, "Oct 2026", b.CreationMonth)
	assert.Equal(t, "5.00", b.Status.Remaining)

	rr = ts.do(t, http.MethodPut, "/api/budget", token, setBudgetRequest{Amount: "-5"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPut, "/api/budget", token, setBudgetRequest{Amount: "lots"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, budget.LabelNotSet, decodeSnapshot(t, rr).Budget.Label)
}

func TestReconcileAndReports(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")

	for i, amount := range []string{"10", "20"} {
		rr := ts.do(t, http.MethodPost, "/api/transactions", token, transactionInputJSON{
			Title: fmt.Sprintf("Item %d", i), Amount: amount, Kind: "expense", Category: "Shopping",
		})
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := ts.do(t, http.MethodPost, "/api/ledger/reconcile", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "4970.00", decodeSnapshot(t, rr).Ledger.Balance)

	rr = ts.do(t, http.MethodGet, "/api/reports", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var summary struct {
		IncomeExpense     []json.RawMessage `json:"incomeExpense"`
		CashFlow          []json.RawMessage `json:"cashFlow"`
		ExpenseByCategory []struct {
			Category string `json:"category"`
			Amount   string `json:"amount"`
		} `json:"expenseByCategory"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Len(t, summary.IncomeExpense, 6)
	assert.Len(t, summary.CashFlow, 7)
	require.Len(t, summary.ExpenseByCategory, 1)
	assert.Equal(t, "Shopping", summary.ExpenseByCategory[0].Category)
	assert.True(t, decimal.RequireFromString(summary.ExpenseByCategory[0].Amount).Equal(decimal.NewFromInt(30)))
}

func TestUsersAreIsolated(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "alice")
	bob := ts.login(t, "bob")

	rr := ts.do(t, http.MethodPost, "/api/transactions", alice, transactionInputJSON{
		Title: "Rent", Amount: "900", Kind: "expense", Category: "Housing",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/ledger", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decodeSnapshot(t, rr)
	assert.Equal(t, "bob", snap.Ledger.Username)
	assert.Empty(t, snap.Ledger.Transactions)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrInvalidAmount, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", core.ErrInvalidCategory), http.StatusBadRequest},
		{budget.ErrInvalidBudget, http.StatusBadRequest},
		{auth.ErrPasswordTooLong, http.StatusBadRequest},
		{auth.ErrSessionNotFound, http.StatusUnauthorized},
		{ledger.ErrTransactionNotFound, http.StatusNotFound},
		{auth.ErrUsernameTaken, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, bearerToken(r))
	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, bearerToken(r))
	r.Header.Set("Authorization", "bearer  tok-1 ")
	assert.Equal(t, "tok-1", bearerToken(r))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Coffee", sanitizeInput("  Cof\x00fee\x07 "))
	assert.Equal(t, "a\tb", sanitizeInput("a\tb"))
}
