package responseupdate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"surveyops/lib/table"
	"surveyops/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type received struct {
	Path  string
	Token string
	Body  updateBody
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []received
	// responses with this id answer 404
	missing string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body updateBody
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, received{
		Path:  r.URL.Path,
		Token: r.Header.Get("X-API-TOKEN"),
		Body:  body,
	})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if strings.HasSuffix(r.URL.Path, "/"+f.missing) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"meta":{"httpStatus":"404 - Not Found"}}`))
		return
	}
	w.Write([]byte(`{"meta":{"httpStatus":"200 - OK"}}`))
}

func newTestService(t *testing.T, api http.Handler) (Service, *testutil.RecordingAPI) {
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	rec := &testutil.RecordingAPI{}
	s, err := NewService(rec, Options{
		BaseURL: server.URL + "/API/v3/responses",
		Token:   "secret-token",
		DumpDir: filepath.Join(t.TempDir(), "dumps"),
	})
	require.NoError(t, err)
	return s, rec
}

func inputTable() table.Table {
	t := table.New("SurveyId", "ResponseId", "region", "tier")
	t.Append("SV_b", "R_1", "west", "gold")
	t.Append("SV_a", "R_2", "east", "silver")
	t.Append("SV_b", "R_3", "north", "")
	return t
}

func TestPlan(t *testing.T) {
	batches, err := Plan(inputTable())
	require.NoError(t, err)

	expected := []Batch{
		{SurveyID: "SV_b", Rows: []int{0, 2}},
		{SurveyID: "SV_a", Rows: []int{1}},
	}
	diff := cmp.Diff(expected, batches)
	if diff != "" {
		t.Fatal(diff)
	}

	summary := Summary(batches)
	require.Equal(t, [][]string{{"SV_b", "2"}, {"SV_a", "1"}}, summary.Rows)

	_, err = Plan(table.New("ResponseId"))
	require.ErrorIs(t, err, table.ErrMissingColumn)
	_, err = Plan(table.New("SurveyId"))
	require.ErrorIs(t, err, table.ErrMissingColumn)
}

func TestRun(t *testing.T) {
	api := &fakeAPI{missing: "R_2"}
	s, rec := newTestService(t, api)

	in := inputTable()
	report, err := s.Run(context.Background(), in)
	require.NoError(t, err)

	// grouped by survey, so R_3 goes before R_2
	expected := []received{
		{
			Path:  "/API/v3/responses/R_1",
			Token: "secret-token",
			Body: updateBody{
				SurveyID:     "SV_b",
				EmbeddedData: map[string]string{"region": "west", "tier": "gold"},
			},
		},
		{
			Path:  "/API/v3/responses/R_3",
			Token: "secret-token",
			Body: updateBody{
				SurveyID:     "SV_b",
				EmbeddedData: map[string]string{"region": "north", "tier": ""},
			},
		},
		{
			Path:  "/API/v3/responses/R_2",
			Token: "secret-token",
			Body: updateBody{
				SurveyID:     "SV_a",
				EmbeddedData: map[string]string{"region": "east", "tier": "silver"},
			},
		},
	}
	diff := cmp.Diff(expected, api.requests)
	if diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, []string{"SurveyId", "ResponseId", "region", "tier", "Result Detail", "HTTP Status"}, report.Header)
	require.Equal(t, "Status: 200", report.Get(0, ColumnHTTPStatus))
	require.Equal(t, "Status: 404", report.Get(1, ColumnHTTPStatus))
	require.Equal(t, "Status: 200", report.Get(2, ColumnHTTPStatus))
	require.Contains(t, report.Get(0, ColumnResultDetail), "ResponseId: R_1")
	require.Contains(t, report.Get(0, ColumnResultDetail), `Request Body: {"region":"west","tier":"gold"}`)

	// the input is left alone
	require.Len(t, in.Header, 4)

	require.Empty(t, rec.Broken())
}

func TestRunUnreachable(t *testing.T) {
	rec := &testutil.RecordingAPI{}
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	s, err := NewService(rec, Options{BaseURL: url})
	require.NoError(t, err)

	report, err := s.Run(context.Background(), inputTable())
	require.NoError(t, err)
	for i := range report.Rows {
		require.Equal(t, StatusFunctionError, report.Get(i, ColumnHTTPStatus))
		require.True(t, strings.HasPrefix(report.Get(i, ColumnResultDetail), "Error: SurveyId: "))
	}
}

func TestRunCancelled(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newTestService(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.Run(ctx, inputTable())
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, api.requests)
	require.Equal(t, 3, report.Len())
	require.Equal(t, "", report.Get(0, ColumnHTTPStatus))
}

func TestRunNeedsColumns(t *testing.T) {
	s, rec := newTestService(t, &fakeAPI{})

	_, err := s.Run(context.Background(), table.New("ResponseId", "region"))
	require.ErrorIs(t, err, table.ErrMissingColumn)

	only := table.New("SurveyId", "ResponseId")
	only.Append("SV_a", "R_1")
	_, err = s.Run(context.Background(), only)
	require.Error(t, err)

	require.Equal(t, []string{"responseupdate: run", "responseupdate: run"}, rec.Broken())
}

func TestDumpsRedactToken(t *testing.T) {
	server := httptest.NewServer(&fakeAPI{})
	t.Cleanup(server.Close)

	dir := filepath.Join(t.TempDir(), "dumps")
	s, err := NewService(&testutil.RecordingAPI{}, Options{
		BaseURL: server.URL,
		Token:   "secret-token",
		DumpDir: dir,
	})
	require.NoError(t, err)

	result := s.Update(context.Background(), "SV_a", "R_1", map[string]string{"region": "west"})
	require.Equal(t, "Status: 200", result.HTTPStatus)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	dump, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(dump), "PUT")
	require.Contains(t, string(dump), `"embeddedData":{"region":"west"}`)
	require.NotContains(t, string(dump), "secret-token")
}

func TestNewServiceNeedsHost(t *testing.T) {
	_, err := NewService(&testutil.RecordingAPI{}, Options{})
	require.ErrorIs(t, err, ErrNoDataCenter)
	require.Equal(t, "https://az1.qualtrics.com/API/v3/responses", BaseURL("az1"))
	require.True(t, strings.HasPrefix(filepath.Base(ReportPath(".")), "update-responses-processing-report-"))
}
