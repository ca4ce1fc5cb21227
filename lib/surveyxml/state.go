package surveyxml

import (
	"surveyops/lib/table"
)

const (
	TypePageBreak      = "PAGE_BREAK"
	TypeGroup          = "GROUP"
	TypeChooseMany     = "CHOOSE_MANY"
	TypeGrid           = "GRID"
	TypeExplanation    = "EXPLANATION"
	TypeAltEntry       = "ALT_ENTRY"
	TypeAltColumn      = "ALT_COLUMN"
	TypeSimpleQuestion = "SIMPLE_QUESTION"
)

const qFieldTextPrefix = "q-field text - "

// Attributes are the attributes of one survey element that the walk cares
// about, absent ones read as NotAvailable.
type Attributes struct {
	Type      string
	Name      string
	Text      string
	Field     string
	Condition string
}

// Group is the context an enclosing GROUP element gives its descendants.
type Group struct {
	Name      string
	Text      string
	Condition string
}

var noGroup = Group{
	Name:      table.NotAvailable,
	Text:      table.NotAvailable,
	Condition: table.NotAvailable,
}

// Node is emitted once per element start.
type Node struct {
	Number int
	Depth  int
	Page   int
	Group  Group

	Type      string
	Name      string
	Field     string
	Text      string
	Condition string

	// QuestionText is the caption the walk derived from the surrounding
	// elements, NotAvailable when nothing applied.
	QuestionText string
	// SurveyQuestionText is QuestionText with the q-field label filled in,
	// set by ResolveQuestionText.
	SurveyQuestionText string
}

// State is carried from one event to the next. Transitions return a new
// State and never touch the receiver.
type State struct {
	Page         int
	Depth        int
	InGroup      bool
	Group        Group
	QuestionText string

	emitted  int
	previous Node
	// hasPrevious is false until the first node is emitted
	hasPrevious bool
}

// NewState is the state before the first event: page 1, outside any group.
func NewState() State {
	return State{
		Page:         1,
		Group:        noGroup,
		QuestionText: table.NotAvailable,
	}
}

// captioned elements carry the question text in their `text` attribute
func captioned(nodeType string) bool {
	switch nodeType {
	case TypeChooseMany, TypeGrid, TypeExplanation:
		return true
	}
	return false
}

type event int

const (
	eventStart event = iota
	eventEnd
)

func (s State) group(ev event, a Attributes) State {
	switch {
	case a.Type == TypeGroup && ev == eventStart:
		s.Group = Group{Name: a.Name, Text: a.Text, Condition: a.Condition}
		s.InGroup = true
	case !s.InGroup:
		s.Group = noGroup
		s.QuestionText = table.NotAvailable
	case a.Type == TypeGroup && ev == eventEnd:
		s.InGroup = false
		s.QuestionText = table.NotAvailable
	}
	return s
}

// question applies the caption rules in order, a later rule overrides an
// earlier one on the same event.
func (s State) question(ev event, a Attributes) State {
	if captioned(a.Type) && ev == eventStart {
		s.QuestionText = a.Text
	}
	// explanations keep their caption so a trailing free text prompt has one
	if captioned(a.Type) && ev == eventEnd && a.Type != TypeExplanation {
		s.QuestionText = table.NotAvailable
	}
	if a.Type == TypeAltEntry && ev == eventStart {
		s.QuestionText = a.Name
	}
	if a.Type == TypeAltColumn && ev == eventStart &&
		s.hasPrevious && s.previous.Type == TypeSimpleQuestion {
		s.QuestionText = qFieldTextPrefix + s.previous.Field
	}
	return s
}

// Start applies an element start and returns the node it emits.
func (s State) Start(a Attributes) (State, Node) {
	s.Depth++
	if a.Type == TypePageBreak {
		s.Page++
	}
	s = s.group(eventStart, a)
	s = s.question(eventStart, a)

	node := Node{
		Number:       s.emitted,
		Depth:        s.Depth,
		Page:         s.Page,
		Group:        s.Group,
		Type:         a.Type,
		Name:         a.Name,
		Field:        a.Field,
		Text:         a.Text,
		Condition:    a.Condition,
		QuestionText: s.QuestionText,
	}
	s.emitted++
	s.previous = node
	s.hasPrevious = true
	return s, node
}

// End applies the end of the element that started with `a`.
func (s State) End(a Attributes) State {
	s.Depth--
	s = s.group(eventEnd, a)
	s = s.question(eventEnd, a)
	return s
}
