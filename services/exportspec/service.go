// Package exportspec assembles the client-facing export specification: one
// row per exported column with the field's name, its survey question text and
// the alternative set it answers with.
package exportspec

import (
	"context"
	"fmt"

	"surveyops/lib/altset"
	"surveyops/lib/bulkfile"
	"surveyops/lib/surveyxml"
	"surveyops/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("surveyops.services.exportspec")

// Inputs are the bulk download files and survey document an export spec is
// built from.
type Inputs struct {
	QFields   string `json:"q_fields"`
	EFields   string `json:"e_fields"`
	KFields   string `json:"k_fields"`
	AltSets   string `json:"alt_sets"`
	Exports   string `json:"exports"`
	SurveyXML string `json:"survey_xml"`

	ExportName string `json:"export_name"`
	// Delim separates cells in every text file, a tab when empty.
	Delim string `json:"delim"`
}

func (in Inputs) delim() string {
	if in.Delim == "" {
		return "\t"
	}
	return in.Delim
}

type Service struct {
	tel     telemetry.API
	reader  bulkfile.Reader
	walker  surveyxml.Walker
	columns altset.Columns
}

type Options struct {
	// AltSetColumns picks the alt-set label and value columns, DefaultColumns
	// when zero.
	AltSetColumns altset.Columns
}

func NewService(tel telemetry.API, opts Options) Service {
	columns := opts.AltSetColumns
	if columns == (altset.Columns{}) {
		columns = altset.DefaultColumns
	}
	return Service{
		tel:     telemetry.NewScopedAPI("exportspec", tel),
		reader:  bulkfile.NewReader(tel),
		walker:  surveyxml.NewWalker(tel),
		columns: columns,
	}
}

func (s Service) fail(span trace.Span, id string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, id)
	s.tel.ReportBroken(id, err)
	return err
}

// Assemble reads every input and joins them into the export spec. The first
// input that fails to read stops the assembly.
func (s Service) Assemble(ctx context.Context, in Inputs) ([]Row, error) {
	const id = "assemble"
	ctx, span := tracer.Start(ctx, "Assemble", trace.WithAttributes(
		attribute.String("export_name", in.ExportName),
	))
	defer span.End()

	delim := in.delim()

	qfields, err := s.reader.ReadQFields(ctx, in.QFields, delim)
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("read q-fields: %w", err))
	}
	efields, err := s.reader.ReadEFields(ctx, in.EFields, delim)
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("read e-fields: %w", err))
	}
	kfields, err := s.reader.ReadKFields(ctx, in.KFields, delim)
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("read k-fields: %w", err))
	}
	altTable, err := s.reader.ReadAltSets(ctx, in.AltSets, delim)
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("read alt sets: %w", err))
	}
	exports, err := s.reader.ReadExport(ctx, in.Exports, in.ExportName, delim)
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("read exports: %w", err))
	}

	sets, err := altset.Organize(altTable, s.columns)
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("organize alt sets: %w", err))
	}

	nodes, err := s.walker.WalkFile(ctx, in.SurveyXML, qfields)
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("walk survey: %w", err))
	}

	fields := make([]bulkfile.Field, 0, len(qfields)+len(efields)+len(kfields))
	fields = append(fields, qfields...)
	fields = append(fields, efields...)
	fields = append(fields, kfields...)

	rows := Join(exports, fields, sets, nodes)
	s.tel.ReportCount(id, int64(len(rows)))
	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows, nil
}

// SurveySpec walks the survey document with question text resolved against
// the q-fields file.
func (s Service) SurveySpec(ctx context.Context, xmlPath, qfieldsPath, delim string) ([]surveyxml.Node, error) {
	const id = "survey-spec"
	ctx, span := tracer.Start(ctx, "SurveySpec")
	defer span.End()

	if delim == "" {
		delim = "\t"
	}
	qfields, err := s.reader.ReadQFields(ctx, qfieldsPath, delim)
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("read q-fields: %w", err))
	}
	nodes, err := s.walker.WalkFile(ctx, xmlPath, qfields)
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("walk survey: %w", err))
	}
	return nodes, nil
}
