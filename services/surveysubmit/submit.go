// Package surveysubmit completes anonymous survey links by opening each one
// in a browser and pressing the survey's next button.
package surveysubmit

import (
	"context"
	"strconv"
	"time"

	"surveyops/lib/table"
	"surveyops/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("surveyops.services.surveysubmit")

const (
	ColumnSurveyURL   = "SurveyURL"
	DefaultNextButton = "#NextButton"
)

type Options struct {
	// NextButton selects the button pressed on every page,
	// DefaultNextButton when empty.
	NextButton string
	// Skip leaves out the first links, for resuming an earlier run.
	Skip int
	// LoadDelay is waited after a link opens, ClickDelay after the click.
	LoadDelay  time.Duration
	ClickDelay time.Duration
}

type Submitter struct {
	tel     telemetry.API
	browser Browser
	opts    Options
}

func NewSubmitter(tel telemetry.API, browser Browser, opts Options) Submitter {
	if opts.NextButton == "" {
		opts.NextButton = DefaultNextButton
	}
	return Submitter{
		tel:     telemetry.NewScopedAPI("surveysubmit", tel),
		browser: browser,
		opts:    opts,
	}
}

// Result is the outcome of one link, Err is nil when the button was pressed.
type Result struct {
	// Index is the link's position in the input, skipped links included.
	Index int
	URL   string
	Err   error
}

// Links returns the survey links of `t`, read from `column` or
// ColumnSurveyURL when empty.
func Links(t table.Table, column string) ([]string, error) {
	if column == "" {
		column = ColumnSurveyURL
	}
	return t.Column(column)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s Submitter) submit(ctx context.Context, url string) error {
	ctx, span := tracer.Start(ctx, "submit", trace.WithAttributes(attribute.String("url", url)))
	defer span.End()

	err := s.browser.Open(ctx, url)
	if err == nil {
		err = sleep(ctx, s.opts.LoadDelay)
	}
	if err == nil {
		err = s.browser.Click(ctx, s.opts.NextButton)
	}
	if err == nil {
		err = sleep(ctx, s.opts.ClickDelay)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit")
	}
	return err
}

// Run visits every link after the first Skip, one at a time. A link that
// fails is recorded and the loop moves on, only cancellation stops it early.
func (s Submitter) Run(ctx context.Context, links []string) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(attribute.Int("links", len(links))))
	defer span.End()

	var results []Result
	failed := 0
	for i := s.opts.Skip; i < len(links); i++ {
		if err := ctx.Err(); err != nil {
			s.tel.ReportCount("submitted", int64(len(results)-failed))
			return results, err
		}

		err := s.submit(ctx, links[i])
		if err != nil {
			failed++
			s.tel.ReportWarning("submit", i, links[i], err)
		} else {
			s.tel.ReportDebug("submitted", "index", i, "url", links[i])
		}
		results = append(results, Result{Index: i, URL: links[i], Err: err})
	}

	s.tel.ReportCount("submitted", int64(len(results)-failed))
	if failed > 0 {
		s.tel.ReportCount("failed", int64(failed))
	}
	return results, nil
}

var Header = []string{"index", ColumnSurveyURL, "status", "error"}

func ToTable(results []Result) table.Table {
	out := table.New(Header...)
	for _, r := range results {
		status, message := "submitted", ""
		if r.Err != nil {
			status, message = "failed", r.Err.Error()
		}
		out.Append(strconv.Itoa(r.Index), r.URL, status, message)
	}
	return out
}
