package http_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ARIHANT218/Finance-Tracker/internal/auth"
	"github.com/ARIHANT218/Finance-Tracker/internal/export"
	financeHttp "github.com/ARIHANT218/Finance-Tracker/internal/http"
	exportHandler "github.com/ARIHANT218/Finance-Tracker/internal/http/export"
	importHandler "github.com/ARIHANT218/Finance-Tracker/internal/http/importcsv"
	matchingHandler "github.com/ARIHANT218/Finance-Tracker/internal/http/matching"
	txHandler "github.com/ARIHANT218/Finance-Tracker/internal/http/transaction"
	"github.com/ARIHANT218/Finance-Tracker/internal/importer"
	"github.com/ARIHANT218/Finance-Tracker/internal/matching"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction/memstore"
)

const jwtSecret = "router-test-secret"

// headerResolver lets each request pick its owner, so one server can serve
// several users in a test.
type headerResolver struct{}

func (headerResolver) Resolve(r *http.Request) (string, error) {
	if owner := r.Header.Get("X-Test-Owner"); owner != "" {
		return owner, nil
	}

	return "", auth.ErrUnauthenticated
}

func newServer(t *testing.T, repo transaction.Repository, resolver auth.Resolver) *httptest.Server {
	t.Helper()

	txService := transaction.NewService(repo)
	matcher := matching.NewService(txService)

	router := financeHttp.New(
		financeHttp.Options{Resolver: resolver, AllowedOrigins: []string{"http://localhost:3000"}},
		txHandler.NewHandler(txService),
		importHandler.NewHandler(importer.NewService(txService, matcher)),
		exportHandler.NewHandler(export.NewService(txService)),
		matchingHandler.NewHandler(matcher),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

type client struct {
	t     *testing.T
	base  string
	owner string
}

func (c client) do(method, path, body string) (*http.Response, []byte) {
	c.t.Helper()

	req, err := http.NewRequest(method, c.base+path, strings.NewReader(body))
	require.NoError(c.t, err)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.owner != "" {
		req.Header.Set("X-Test-Owner", c.owner)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(c.t, err)

	return resp, buf.Bytes()
}

type txBody struct {
	ID          string      `json:"_id"`
	UserID      string      `json:"userId"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Date        time.Time   `json:"date"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type errBody struct {
	Error      string `json:"error"`
	Violations []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"violations"`
	Rows []struct {
		Row int `json:"row"`
	} `json:"rows"`
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))

	return v
}

func (c client) create(payload string) txBody {
	c.t.Helper()

	resp, body := c.do(http.MethodPost, "/api/v1/transactions", payload)
	require.Equal(c.t, http.StatusCreated, resp.StatusCode, string(body))

	return decode[txBody](c.t, body)
}

func TestTransactions_CreateNormalizes(t *testing.T) {
	srv := newServer(t, memstore.New(), headerResolver{})
	alice := client{t: t, base: srv.URL, owner: "alice"}

	tx := alice.create(`{"amount":1200.555,"description":"  Rent  ","date":"2024-01-05","type":"expense","userId":"mallory","_id":"x"}`)

	assert.NotEmpty(t, tx.ID)
	assert.NotEqual(t, "x", tx.ID)
	assert.Equal(t, "alice", tx.UserID)
	assert.Equal(t, json.Number("1200.56"), tx.Amount)
	assert.Equal(t, "Rent", tx.Description)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), tx.Date.UTC())
	assert.Equal(t, "expense", tx.Type)
	assert.Equal(t, "Uncategorized", tx.Category)
	assert.False(t, tx.CreatedAt.IsZero())
	assert.Equal(t, tx.CreatedAt, tx.UpdatedAt)
}

func TestTransactions_CreateValidation(t *testing.T) {
	type testCase struct {
		name       string
		payload    string
		wantStatus int
		wantFields []string
	}

	tests := []testCase{
		{
			name:       "Negative amount",
			payload:    `{"amount":-5,"description":"x","date":"2024-01-01","type":"expense"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"amount"},
		},
		{
			name:       "Zero amount",
			payload:    `{"amount":0,"description":"x","date":"2024-01-01","type":"expense"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"amount"},
		},
		{
			name:       "Amount above the storage limit",
			payload:    `{"amount":1e20,"description":"x","date":"2024-01-01","type":"expense"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"amount"},
		},
		{
			name:       "Amount with a huge exponent",
			payload:    `{"amount":1e20000000,"description":"x","date":"2024-01-01","type":"expense"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"amount"},
		},
		{
			name:       "Missing fields",
			payload:    `{}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"amount", "description", "type"},
		},
		{
			name:       "Bad type and date",
			payload:    `{"amount":"10","description":"x","date":"someday","type":"transfer"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"date", "type"},
		},
		{
			name:       "Description too long",
			payload:    `{"amount":1,"description":"` + strings.Repeat("a", 201) + `","type":"income"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"description"},
		},
	}

	srv := newServer(t, memstore.New(), headerResolver{})
	alice := client{t: t, base: srv.URL, owner: "alice"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := alice
			c.t = t

			resp, body := c.do(http.MethodPost, "/api/v1/transactions", tt.payload)
			require.Equal(t, tt.wantStatus, resp.StatusCode)

			got := decode[errBody](t, body)

			fields := make([]string, len(got.Violations))
			for i, v := range got.Violations {
				fields[i] = v.Field
			}

			assert.Equal(t, tt.wantFields, fields)
		})
	}

	resp, body := alice.do(http.MethodGet, "/api/v1/transactions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]txBody](t, body))
}

func TestTransactions_MalformedBody(t *testing.T) {
	srv := newServer(t, memstore.New(), headerResolver{})
	alice := client{t: t, base: srv.URL, owner: "alice"}

	valid := `{"amount":1,"description":"x","type":"income"}`

	for _, body := range []string{
		`{"amount":`,
		`[1,2]`,
		`null`,
		valid + ` trailing`,
		valid + valid,
		valid + ` []`,
	} {
		resp, _ := alice.do(http.MethodPost, "/api/v1/transactions", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}

	resp, body := alice.do(http.MethodGet, "/api/v1/transactions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]txBody](t, body))

	resp, _ = alice.do(http.MethodPost, "/api/v1/transactions", valid+"\n  ")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestTransactions_ListOrderAndIsolation(t *testing.T) {
	srv := newServer(t, memstore.New(), headerResolver{})
	alice := client{t: t, base: srv.URL, owner: "alice"}
	bob := client{t: t, base: srv.URL, owner: "bob"}

	for _, d := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
		alice.create(`{"amount":10,"description":"` + d + `","date":"` + d + `","type":"expense"}`)
	}

	bob.create(`{"amount":10,"description":"bob","date":"2024-04-01","type":"income"}`)

	resp, body := alice.do(http.MethodGet, "/api/v1/transactions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	txs := decode[[]txBody](t, body)
	require.Len(t, txs, 3)
	assert.Equal(t, "2024-03-01", txs[0].Description)
	assert.Equal(t, "2024-02-01", txs[1].Description)
	assert.Equal(t, "2024-01-01", txs[2].Description)

	resp, body = alice.do(http.MethodGet, "/api/v1/transactions?start_date=2024-02-01&end_date=2024-02-29", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decode[[]txBody](t, body), 1)

	resp, _ = alice.do(http.MethodGet, "/api/v1/transactions?type=loan", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransactions_UpdateDeleteLifecycle(t *testing.T) {
	srv := newServer(t, memstore.New(), headerResolver{})
	alice := client{t: t, base: srv.URL, owner: "alice"}
	bob := client{t: t, base: srv.URL, owner: "bob"}

	created := alice.create(`{"amount":50,"description":"Dinner","date":"2024-05-01T19:30:00Z","type":"expense","category":"Food"}`)
	path := "/api/v1/transactions/" + created.ID

	resp, _ := bob.do(http.MethodPut, path, `{"description":"mine now"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = bob.do(http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = bob.do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := alice.do(http.MethodPut, path, `{"amount":"42.005","ownerId":"bob"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	updated := decode[txBody](t, body)
	assert.Equal(t, json.Number("42.01"), updated.Amount)
	assert.Equal(t, "alice", updated.UserID)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Date, updated.Date)
	assert.Equal(t, created.Type, updated.Type)
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	resp, body = alice.do(http.MethodPatch, path, `{"category":null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Uncategorized", decode[txBody](t, body).Category)

	resp, body = alice.do(http.MethodPut, path, `{"type":"gift"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "type", decode[errBody](t, body).Violations[0].Field)

	resp, body = alice.do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)

	resp, _ = alice.do(http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = alice.do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransactions_InvalidIDNeverReachesStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().ValidID("not-an-id").Return(false).Times(4)

	srv := newServer(t, repo, headerResolver{})
	alice := client{t: t, base: srv.URL, owner: "alice"}

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		body := ""
		if method == http.MethodPut || method == http.MethodPatch {
			body = `{"description":"x"}`
		}

		resp, raw := alice.do(method, "/api/v1/transactions/not-an-id", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, method)
		assert.Equal(t, "invalid id", decode[errBody](t, raw).Error)
	}
}

func TestTransactions_StorageFailureIsOpaque(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().
		ListTransactions(gomock.Any(), "alice", transaction.ListFilter{}).
		Return(nil, errors.New("pq: password authentication failed for user \"admin\""))

	srv := newServer(t, repo, headerResolver{})
	alice := client{t: t, base: srv.URL, owner: "alice"}

	resp, body := alice.do(http.MethodGet, "/api/v1/transactions", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"internal error"}`, string(body))
}

func TestTransactions_Unauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	srv := newServer(t, transaction.NewMockRepository(ctrl), auth.NewJWTResolver(jwtSecret, "finance-tracker"))
	anon := client{t: t, base: srv.URL}

	id := uuid.NewString()

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/transactions", ""},
		{http.MethodPost, "/api/v1/transactions", `{"amount":1,"description":"x","type":"income"}`},
		{http.MethodPut, "/api/v1/transactions/" + id, `{"amount":1}`},
		{http.MethodDelete, "/api/v1/transactions/" + id, ""},
		{http.MethodGet, "/api/v1/export", ""},
	} {
		resp, _ := anon.do(tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.method+" "+tc.path)
	}
}

func TestTransactions_JWTOwner(t *testing.T) {
	srv := newServer(t, memstore.New(), auth.NewJWTResolver(jwtSecret, "finance-tracker"))

	token, err := auth.IssueToken(jwtSecret, "finance-tracker", "carol", time.Hour)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/transactions",
		strings.NewReader(`{"amount":5,"description":"Coffee","type":"expense"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var tx txBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tx))
	assert.Equal(t, "carol", tx.UserID)
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, memstore.New(), headerResolver{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func upload(t *testing.T, url, owner, filename, content string) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-Owner", owner)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)

	return resp, out.Bytes()
}

func TestImportAndExport(t *testing.T) {
	srv := newServer(t, memstore.New(), headerResolver{})
	alice := client{t: t, base: srv.URL, owner: "alice"}

	resp, body := upload(t, srv.URL+"/api/v1/import", "alice", "statement.csv", `Date;Description;Amount
30-01-2026;Groceries;-45,10
31-01-2026;Salary;2.500,00
`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	imported := decode[struct {
		Profile  string `json:"profile"`
		Imported int    `json:"imported"`
	}](t, body)
	assert.Equal(t, "statement", imported.Profile)
	assert.Equal(t, 2, imported.Imported)

	resp, body = alice.do(http.MethodGet, "/api/v1/export?type=expense", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Equal(t, "1", resp.Header.Get("X-Transaction-Count"))

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"2026-01-30T00:00:00Z", "Groceries", "45.10", "expense", "Uncategorized"}, records[1])
}

func TestImport_RejectsInvalidRows(t *testing.T) {
	srv := newServer(t, memstore.New(), headerResolver{})
	alice := client{t: t, base: srv.URL, owner: "alice"}

	resp, body := upload(t, srv.URL+"/api/v1/import", "alice", "mine.csv", `date,description,amount,type
2024-01-01,Rent,1000,expense
2024-01-02,Bad,-1,expense
`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got := decode[errBody](t, body)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, 2, got.Rows[0].Row)

	resp, body = alice.do(http.MethodGet, "/api/v1/transactions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]txBody](t, body))

	resp, _ = upload(t, srv.URL+"/api/v1/import", "alice", "junk.csv", "what,is,this\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMatching_SuggestAndImport(t *testing.T) {
	srv := newServer(t, memstore.New(), headerResolver{})
	alice := client{t: t, base: srv.URL, owner: "alice"}
	bob := client{t: t, base: srv.URL, owner: "bob"}

	alice.create(`{"amount":12.5,"description":"Uber *Trip","type":"expense","category":"Transport"}`)

	type suggestion struct {
		Category string `json:"category"`
		Matched  bool   `json:"matched"`
	}

	resp, body := alice.do(http.MethodGet, "/api/v1/matching/suggest?description=UBER+*TRIP+LISBOA", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[suggestion](t, body)
	assert.True(t, got.Matched)
	assert.Equal(t, "Transport", got.Category)

	resp, body = bob.do(http.MethodGet, "/api/v1/matching/suggest?description=UBER+*TRIP", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got = decode[suggestion](t, body)
	assert.False(t, got.Matched)
	assert.Equal(t, transaction.DefaultCategory, got.Category)

	resp, _ = alice.do(http.MethodGet, "/api/v1/matching/suggest", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = upload(t, srv.URL+"/api/v1/import", "alice", "statement.csv", `Date;Description;Amount
01-02-2026;UBER *TRIP HELP.UBER.COM;-8,40
02-02-2026;Bakery;-3,10
`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	imported := decode[struct {
		Categorized  int      `json:"categorized"`
		Transactions []txBody `json:"transactions"`
	}](t, body)
	assert.Equal(t, 1, imported.Categorized)
	require.Len(t, imported.Transactions, 2)
	assert.Equal(t, "Transport", imported.Transactions[0].Category)
	assert.Equal(t, transaction.DefaultCategory, imported.Transactions[1].Category)
}
