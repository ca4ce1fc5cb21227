package surveysubmit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"surveyops/lib/table"
	"surveyops/lib/testutil"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	calls  []string
	broken map[string]bool
	// cancel is called after this many opens when set
	cancelAfter int
	cancel      context.CancelFunc
	closed      bool
}

func (b *fakeBrowser) Open(_ context.Context, url string) error {
	b.calls = append(b.calls, "open "+url)
	if b.cancel != nil && len(b.calls) >= b.cancelAfter*2-1 {
		b.cancel()
	}
	if b.broken[url] {
		return errors.New("page crashed")
	}
	return nil
}

func (b *fakeBrowser) Click(_ context.Context, selector string) error {
	b.calls = append(b.calls, "click "+selector)
	return nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

func TestRun(t *testing.T) {
	browser := &fakeBrowser{broken: map[string]bool{"https://s/3": true}}
	rec := &testutil.RecordingAPI{}
	s := NewSubmitter(rec, browser, Options{Skip: 1})

	links := []string{"https://s/1", "https://s/2", "https://s/3", "https://s/4"}
	results, err := s.Run(context.Background(), links)
	require.NoError(t, err)

	expectedCalls := []string{
		"open https://s/2",
		"click #NextButton",
		"open https://s/3",
		"open https://s/4",
		"click #NextButton",
	}
	diff := cmp.Diff(expectedCalls, browser.calls)
	if diff != "" {
		t.Fatal(diff)
	}

	require.Len(t, results, 3)
	require.Equal(t, 1, results[0].Index)
	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	require.NoError(t, results[2].Err)

	tbl := ToTable(results)
	require.Equal(t, []string{"2", "https://s/3", "failed", "page crashed"}, tbl.Rows[1])
	require.Equal(t, "submitted", tbl.Get(2, "status"))
	require.Empty(t, rec.Broken())
}

func TestRunSkipPastEnd(t *testing.T) {
	browser := &fakeBrowser{}
	s := NewSubmitter(&testutil.RecordingAPI{}, browser, Options{Skip: 5})

	results, err := s.Run(context.Background(), []string{"https://s/1"})
	require.NoError(t, err)
	require.Empty(t, results)
	require.Empty(t, browser.calls)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	browser := &fakeBrowser{cancelAfter: 1, cancel: cancel}
	s := NewSubmitter(&testutil.RecordingAPI{}, browser, Options{NextButton: "#go"})

	results, err := s.Run(ctx, []string{"https://s/1", "https://s/2"})
	require.ErrorIs(t, err, context.Canceled)
	// the first link was opened, the wait after it sees the cancellation
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, context.Canceled)
	require.Equal(t, []string{"open https://s/1"}, browser.calls)
}

func TestLinks(t *testing.T) {
	tbl := table.New("name", "SurveyURL")
	tbl.Append("a", "https://s/1")
	tbl.Append("b", "https://s/2")

	links, err := Links(tbl, "")
	require.NoError(t, err)
	require.Equal(t, []string{"https://s/1", "https://s/2"}, links)

	_, err = Links(tbl, "Link")
	require.ErrorIs(t, err, table.ErrMissingColumn)
}

func TestRodBrowser(t *testing.T) {
	if testing.Short() {
		t.Skip("launches a browser")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no browser installed")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><button id="NextButton">Next</button></body></html>`)
	}))
	t.Cleanup(server.Close)

	ctx := context.Background()
	browser, err := LaunchRod(ctx, RodOptions{Bin: bin, Headless: true, TimeoutSeconds: 5})
	require.NoError(t, err)
	t.Cleanup(func() { browser.Close() })

	require.NoError(t, browser.Open(ctx, server.URL))
	require.NoError(t, browser.Click(ctx, DefaultNextButton))
	require.Error(t, browser.Click(ctx, "#Missing"))
}
