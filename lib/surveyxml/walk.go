// Package surveyxml walks a survey definition document and produces one
// record per element, annotated with the page, the enclosing group and the
// question text that applies to it.
package surveyxml

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"

	"surveyops/lib/bulkfile"
	"surveyops/lib/table"
	"surveyops/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html/charset"
)

var tracer = otel.Tracer("surveyops.lib.surveyxml")

func attributes(el xml.StartElement) Attributes {
	a := Attributes{
		Type:      table.NotAvailable,
		Name:      table.NotAvailable,
		Text:      table.NotAvailable,
		Field:     table.NotAvailable,
		Condition: table.NotAvailable,
	}
	for _, attr := range el.Attr {
		switch attr.Name.Local {
		case "type":
			a.Type = attr.Value
		case "name":
			a.Name = attr.Value
		case "text":
			a.Text = attr.Value
		case "field":
			a.Field = attr.Value
		case "condition":
			a.Condition = attr.Value
		}
	}
	return a
}

// Walk reads start and end events from `r` depth first and returns the
// node emitted for every element start.
func Walk(ctx context.Context, r io.Reader) ([]Node, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	state := NewState()
	// end events carry no attributes, the open elements are kept to know
	// which element is closing
	var open []Attributes
	var nodes []Node

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error parsing XML: %w", err)
		}

		switch el := token.(type) {
		case xml.StartElement:
			a := attributes(el)
			open = append(open, a)
			var node Node
			state, node = state.Start(a)
			nodes = append(nodes, node)
		case xml.EndElement:
			a := open[len(open)-1]
			open = open[:len(open)-1]
			state = state.End(a)
		}
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("error parsing XML: %w", bulkfile.ErrEmpty)
	}
	return nodes, nil
}

// ResolveQuestionText fills SurveyQuestionText: the walk's question text when
// it found one, else the "In survey" label of the node's q-field.
func ResolveQuestionText(nodes []Node, qfields []bulkfile.Field) []Node {
	labels := make(map[string]string, len(qfields))
	for _, f := range qfields {
		if _, ok := labels[f.Key]; ok {
			continue
		}
		labels[f.Key] = f.InSurvey
	}

	out := make([]Node, len(nodes))
	for i, n := range nodes {
		n.SurveyQuestionText = n.QuestionText
		label, ok := labels[n.Field]
		if n.QuestionText == table.NotAvailable && ok && label != "" && label != table.NotAvailable {
			n.SurveyQuestionText = label
		}
		out[i] = n
	}
	return out
}

// Walker walks survey files and reports failures through telemetry.
type Walker struct {
	tel telemetry.API
}

func NewWalker(tel telemetry.API) Walker {
	return Walker{tel: telemetry.NewScopedAPI("surveyxml", tel)}
}

func (w Walker) fail(span trace.Span, path string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "walk")
	w.tel.ReportBroken("walk", path, err)
	return err
}

// WalkFile walks the survey document at `path` and resolves question text
// against `qfields`.
func (w Walker) WalkFile(ctx context.Context, path string, qfields []bulkfile.Field) ([]Node, error) {
	ctx, span := tracer.Start(ctx, "WalkFile", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	info, err := os.Stat(path)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return nil, w.fail(span, path, fmt.Errorf("%w: %s", bulkfile.ErrNotExist, path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, w.fail(span, path, err)
	}
	defer f.Close()

	nodes, err := Walk(ctx, f)
	if err != nil {
		return nil, w.fail(span, path, err)
	}
	w.tel.ReportCount("walk", int64(len(nodes)))
	return ResolveQuestionText(nodes, qfields), nil
}

// Header names the columns of ToTable, one per Node field written out.
var Header = []string{
	"xml_node_number",
	"xml_node_depth",
	"survey_page_number",
	"group_name",
	"group_text",
	"group_condition",
	"type",
	"name",
	"field",
	"condition",
	"survey_question_text",
}

// ToTable renders one row per node in walk order.
func ToTable(nodes []Node) table.Table {
	out := table.New(Header...)
	for _, n := range nodes {
		out.Append(
			strconv.Itoa(n.Number),
			strconv.Itoa(n.Depth),
			strconv.Itoa(n.Page),
			n.Group.Name,
			n.Group.Text,
			n.Group.Condition,
			n.Type,
			n.Name,
			n.Field,
			n.Condition,
			n.SurveyQuestionText,
		)
	}
	return out
}
