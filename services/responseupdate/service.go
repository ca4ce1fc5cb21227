// Package responseupdate sets embedded data on recorded survey responses
// through the survey platform's REST API, one response at a time.
package responseupdate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"surveyops/lib/restyutil"
	"surveyops/lib/table"
	"surveyops/lib/telemetry"
	"surveyops/lib/timezone"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("surveyops.services.responseupdate")
var meter = otel.Meter("surveyops.services.responseupdate")

var requestCounter, _ = meter.Int64Counter(
	"responseupdate.requests",
	metric.WithDescription("response update requests by outcome"),
)

const (
	ColumnSurveyID     = "SurveyId"
	ColumnResponseID   = "ResponseId"
	ColumnResultDetail = "Result Detail"
	ColumnHTTPStatus   = "HTTP Status"

	StatusFunctionError = "Function Error"
)

var DefaultExcludedColumns = []string{ColumnSurveyID, ColumnResponseID}

var ErrNoDataCenter = errors.New("a data center or base url is required")

type Options struct {
	// DataCenter is the subdomain of the API host, ex. `az1`.
	DataCenter string
	// BaseURL replaces the data center URL when set.
	BaseURL string
	Token   string
	// ExcludedColumns are never sent as embedded data, DefaultExcludedColumns
	// when nil.
	ExcludedColumns []string
	// DumpDir receives a dump of every HTTP exchange when set.
	DumpDir string
}

func BaseURL(dataCenter string) string {
	return fmt.Sprintf("https://%s.qualtrics.com/API/v3/responses", dataCenter)
}

type Service struct {
	tel      telemetry.API
	client   *resty.Client
	excluded []string
}

func NewService(tel telemetry.API, opts Options) (Service, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		if opts.DataCenter == "" {
			return Service{}, ErrNoDataCenter
		}
		baseURL = BaseURL(opts.DataCenter)
	}

	excluded := opts.ExcludedColumns
	if excluded == nil {
		excluded = DefaultExcludedColumns
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("X-API-TOKEN", opts.Token).
		SetHeader("Content-Type", "application/json")

	instrument := restyutil.Options{
		Tracer:   tracer,
		IDPrefix: timezone.FileStamp(timezone.Now()) + "-",
	}
	if opts.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(opts.DumpDir)
		if err != nil {
			return Service{}, err
		}
		instrument.Output = output
	}
	restyutil.Instrument(client, tel, instrument)

	return Service{
		tel:      telemetry.NewScopedAPI("responseupdate", tel),
		client:   client,
		excluded: excluded,
	}, nil
}

type updateBody struct {
	SurveyID          string            `json:"surveyId"`
	ResetRecordedDate bool              `json:"resetRecordedDate"`
	EmbeddedData      map[string]string `json:"embeddedData"`
}

// Result is what one update produced, in the form written to the report.
type Result struct {
	Detail     string
	HTTPStatus string
}

// Update sets `embedded` on one response. A failure to reach the API is
// reported in the result, not returned.
func (s Service) Update(ctx context.Context, surveyID, responseID string, embedded map[string]string) Result {
	ctx, span := tracer.Start(ctx, "Update", trace.WithAttributes(
		attribute.String("survey_id", surveyID),
		attribute.String("response_id", responseID),
	))
	defer span.End()

	requestBody, _ := json.Marshal(embedded)

	res, err := s.client.R().
		SetContext(ctx).
		SetPathParam("responseId", responseID).
		SetBody(updateBody{
			SurveyID:          surveyID,
			ResetRecordedDate: false,
			EmbeddedData:      embedded,
		}).
		Put("/{responseId}")
	if err != nil {
		requestCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		s.tel.ReportWarning("update", surveyID, responseID, err)
		return Result{
			Detail: fmt.Sprintf(
				"Error: SurveyId: %s, ResponseId: %s, Request Body: %s, Error: %s",
				surveyID, responseID, requestBody, err.Error(),
			),
			HTTPStatus: StatusFunctionError,
		}
	}

	requestCounter.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", res.StatusCode())))
	if res.IsError() {
		s.tel.ReportWarning("update.status", surveyID, responseID, res.StatusCode())
	}
	return Result{
		Detail: fmt.Sprintf(
			"Status: %d, Body: %s, ResponseId: %s, Request Body: %s",
			res.StatusCode(), res.String(), responseID, requestBody,
		),
		HTTPStatus: "Status: " + strconv.Itoa(res.StatusCode()),
	}
}

// Batch is the rows of one survey, in file order.
type Batch struct {
	SurveyID string
	Rows     []int
}

// Plan groups the rows of `t` by survey id, surveys ordered by first
// appearance.
func Plan(t table.Table) ([]Batch, error) {
	surveyIDs, err := t.Column(ColumnSurveyID)
	if err != nil {
		return nil, err
	}
	if _, err := t.Indexes(ColumnResponseID); err != nil {
		return nil, err
	}

	var out []Batch
	index := map[string]int{}
	for row, id := range surveyIDs {
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, Batch{SurveyID: id})
		}
		out[i].Rows = append(out[i].Rows, row)
	}
	return out, nil
}

// embeddedColumns are the columns sent as embedded data.
func (s Service) embeddedColumns(t table.Table) []string {
	var out []string
	for _, col := range t.Header {
		if slices.Contains(s.excluded, col) || col == ColumnResultDetail || col == ColumnHTTPStatus {
			continue
		}
		out = append(out, col)
	}
	return out
}

// Run updates every row of `t` and returns `t` with the result of each update
// in the Result Detail and HTTP Status columns. When `ctx` is cancelled the
// rows not yet updated keep empty results and the cancellation is returned
// along with the partial report.
func (s Service) Run(ctx context.Context, t table.Table) (table.Table, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	batches, err := Plan(t)
	if err != nil {
		s.tel.ReportBroken("run", err)
		return table.Table{}, err
	}
	columns := s.embeddedColumns(t)
	if len(columns) == 0 {
		err := fmt.Errorf("no embedded data columns to update")
		s.tel.ReportBroken("run", err)
		return table.Table{}, err
	}

	report := withResultColumns(t)
	detailIdx := report.Index(ColumnResultDetail)
	statusIdx := report.Index(ColumnHTTPStatus)

	count := 0
	for _, batch := range batches {
		for _, row := range batch.Rows {
			if err := ctx.Err(); err != nil {
				s.tel.ReportCount("updated", int64(count))
				return report, err
			}
			count++

			responseID := t.Get(row, ColumnResponseID)
			embedded := make(map[string]string, len(columns))
			for _, col := range columns {
				embedded[col] = t.Get(row, col)
			}

			s.tel.ReportDebug(
				"updating row",
				"row", fmt.Sprintf("%d/%d", count, t.Len()),
				"survey_id", batch.SurveyID,
				"response_id", responseID,
			)
			result := s.Update(ctx, batch.SurveyID, responseID, embedded)
			report.Rows[row][detailIdx] = result.Detail
			report.Rows[row][statusIdx] = result.HTTPStatus
		}
	}

	s.tel.ReportCount("updated", int64(count))
	return report, nil
}

// withResultColumns copies `t` with Result Detail and HTTP Status columns,
// reusing them when the input already has them.
func withResultColumns(t table.Table) table.Table {
	header := slices.Clone(t.Header)
	for _, col := range []string{ColumnResultDetail, ColumnHTTPStatus} {
		if !slices.Contains(header, col) {
			header = append(header, col)
		}
	}

	out := table.New(header...)
	for _, row := range t.Rows {
		cells := make([]string, len(header))
		copy(cells, row)
		out.Append(cells...)
	}
	return out
}

// ReportPath is where a processing report started at the current time is
// written inside `dir`.
func ReportPath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("update-responses-processing-report-%s.csv", timezone.FileStamp(timezone.Now())))
}

// Summary lists how many rows each survey is about to have updated.
func Summary(batches []Batch) table.Table {
	out := table.New(ColumnSurveyID, "Rows")
	for _, b := range batches {
		out.Append(b.SurveyID, strconv.Itoa(len(b.Rows)))
	}
	return out
}
