package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mukisa/dukabook/internal/auth"
	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/extractor"
	"github.com/mukisa/dukabook/internal/jobs"
	"github.com/mukisa/dukabook/internal/jobs/inmemory"
	"github.com/mukisa/dukabook/internal/observability"
	"github.com/mukisa/dukabook/internal/store/sqlite"
)

type testServer struct {
	srv    *httptest.Server
	token  string
	store  *sqlite.Store
	jobSt  jobs.JobStore
	userID string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	hash, err := auth.HashPassword("secret")
	if err != nil {
		t.Fatal(err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     "akello",
		PasswordHash: hash,
		BusinessName: "Akello General Store",
		Currency:     "UGX",
	}
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}

	signer, err := auth.NewTokenSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	token, err := signer.Sign(user)
	if err != nil {
		t.Fatal(err)
	}

	jobStore := inmemory.NewStore()

	handler := NewRouter(Deps{
		Extractor: extractor.New(extractor.Options{}),
		Store:     st,
		Users:     st,
		Signer:    signer,
		Metrics:   observability.NewMetrics(),
		Log:       zerolog.Nop(),
		JobStore:  jobStore,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, token: token, store: st, jobSt: jobStore, userID: user.ID}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return resp
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "akello", "password": "secret"})
	resp, err := http.Post(ts.srv.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["token"] == "" {
		t.Error("expected a token in the login response")
	}
	if got["currency"] != "UGX" {
		t.Errorf("currency = %v, want UGX", got["currency"])
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "akello", "password": "nope"})
	resp, err := http.Post(ts.srv.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/transactions")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", resp.StatusCode)
	}
}

func TestExtractEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var res domain.ParseResult
	resp := ts.do(t, http.MethodPost, "/api/extract", map[string]string{"text": "Musa paid back 5000"}, &res)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if res.Intent != domain.IntentRecord || res.Type != domain.TypeDebtPayment {
		t.Errorf("got %v/%v, want RECORD/DEBT_PAYMENT", res.Intent, res.Type)
	}
	if res.Counterparty != "Musa" {
		t.Errorf("Counterparty = %q, want Musa", res.Counterparty)
	}
}

func TestExtractEndpoint_JunkIsUnknown(t *testing.T) {
	ts := newTestServer(t)

	var res domain.ParseResult
	resp := ts.do(t, http.MethodPost, "/api/extract", map[string]string{"text": "asdf qwer"}, &res)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 even for junk", resp.StatusCode)
	}
	if res.Intent != domain.IntentUnknown {
		t.Errorf("Intent = %v, want UNKNOWN", res.Intent)
	}
}

func TestCommitAndList(t *testing.T) {
	ts := newTestServer(t)
	amount := 5000.0

	var created domain.Transaction
	resp := ts.do(t, http.MethodPost, "/api/transactions", map[string]interface{}{
		"type":     "INCOME",
		"amount":   amount,
		"category": "Bread",
		"note":     "Sold bread 5000",
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if created.UserID != ts.userID {
		t.Errorf("UserID = %q, want the token's subject", created.UserID)
	}

	var list struct {
		Transactions []domain.Transaction `json:"transactions"`
		Count        int                  `json:"count"`
	}
	resp = ts.do(t, http.MethodGet, "/api/transactions", nil, &list)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if list.Count != 1 || list.Transactions[0].Amount != amount {
		t.Errorf("list = %+v, want the committed transaction", list)
	}
}

func TestCommit_RejectsMissingAmount(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/transactions", map[string]interface{}{
		"type": "EXPENSE",
		"note": "Paid rent",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a draft without an amount", resp.StatusCode)
	}
}

func TestCommit_RejectsDebtWithoutCounterparty(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/transactions", map[string]interface{}{
		"type":   "DEBT",
		"amount": 5000,
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a debt without a counterparty", resp.StatusCode)
	}
}

func TestReports(t *testing.T) {
	ts := newTestServer(t)

	for _, c := range []struct {
		typ    string
		amount float64
		party  string
	}{
		{"INCOME", 50000, ""},
		{"EXPENSE", 20000, ""},
		{"DEBT", 15000, "Musa"},
		{"DEBT_PAYMENT", 5000, "Musa"},
	} {
		resp := ts.do(t, http.MethodPost, "/api/transactions", map[string]interface{}{
			"type":         c.typ,
			"amount":       c.amount,
			"counterparty": c.party,
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seeding %s: status = %d", c.typ, resp.StatusCode)
		}
	}

	var summary struct {
		Inflow  float64 `json:"inflow"`
		Outflow float64 `json:"outflow"`
		Net     float64 `json:"net"`
	}
	resp := ts.do(t, http.MethodGet, "/api/reports/summary?range=today", nil, &summary)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d", resp.StatusCode)
	}
	if summary.Inflow != 55000 || summary.Outflow != 20000 || summary.Net != 35000 {
		t.Errorf("summary = %+v", summary)
	}

	var debts struct {
		Debts []struct {
			Counterparty string  `json:"counterparty"`
			Balance      float64 `json:"balance"`
		} `json:"debts"`
	}
	resp = ts.do(t, http.MethodGet, "/api/reports/debts", nil, &debts)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("debts status = %d", resp.StatusCode)
	}
	if len(debts.Debts) != 1 || debts.Debts[0].Counterparty != "Musa" || debts.Debts[0].Balance != 10000 {
		t.Errorf("debts = %+v", debts.Debts)
	}
}

func TestReceiptsUnconfigured(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/receipts/scan", map[string]string{"gcs_uri": "gs://b/r"}, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when no bucket is configured", resp.StatusCode)
	}
}

func TestJobVisibilityScopedToOwner(t *testing.T) {
	ts := newTestServer(t)

	// A job owned by someone else must not be visible.
	other := &jobs.ScanReceiptJob{
		JobID:     uuid.NewString(),
		UserID:    "someone-else",
		Status:    jobs.JobStatusCompleted,
		CreatedAt: time.Now(),
	}
	if err := ts.jobSt.SaveJob(context.Background(), other); err != nil {
		t.Fatal(err)
	}

	// Receipts deps are nil in this server, so /api/jobs is 503; rebuild
	// with the job store wired through a publisher-less config is not a
	// supported shape. Assert through the store filter instead.
	list, err := ts.jobSt.ListJobs(context.Background(), jobs.JobFilter{UserID: ts.userID})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("expected no jobs for %s, got %d", ts.userID, len(list))
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
