package libcal

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// ErrNotQuestionField is returned when a question accessor is given a name
// that is not of the form q<digits>.
var ErrNotQuestionField = errors.New("not a question field")

var questionField = regexp.MustCompile(`^q\d+$`)

// IsQuestionField reports whether name is a custom form answer (q1, q42, ...).
func IsQuestionField(name string) bool {
	return questionField.MatchString(name)
}

// Extras keeps JSON members that are not declared on a record. Every record
// embeds it; the decoder fills it in lenient mode and the encoder writes it
// back.
type Extras struct {
	fields map[string]json.RawMessage
}

// SetExtra stores raw under name.
func (e *Extras) SetExtra(name string, raw json.RawMessage) {
	if e.fields == nil {
		e.fields = make(map[string]json.RawMessage)
	}

	e.fields[name] = append(json.RawMessage(nil), raw...)
}

// Extra returns the raw JSON stored under name.
func (e *Extras) Extra(name string) (json.RawMessage, bool) {
	raw, ok := e.fields[name]

	return raw, ok
}

// HasExtra reports whether name is stored.
func (e *Extras) HasExtra(name string) bool {
	_, ok := e.fields[name]

	return ok
}

// DeleteExtra removes name.
func (e *Extras) DeleteExtra(name string) {
	delete(e.fields, name)
}

// ExtraNames returns the stored names in sorted order.
func (e *Extras) ExtraNames() []string {
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ExtraFields returns a copy of every stored member.
func (e *Extras) ExtraFields() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}

	return out
}

// QuestionExtras is embedded by records that carry custom form answers.
// Answers live in the extras bag but are read and written like fields.
type QuestionExtras struct {
	Extras
}

// IsOverflowField makes the decoder keep question members even in strict mode.
func (q *QuestionExtras) IsOverflowField(name string) bool {
	return IsQuestionField(name)
}

// Question returns the decoded answer for name (string, number, bool, list).
func (q *QuestionExtras) Question(name string) (interface{}, bool) {
	if !IsQuestionField(name) {
		return nil, false
	}

	raw, ok := q.Extra(name)
	if !ok {
		return nil, false
	}

	var value interface{}

	err := json.Unmarshal(raw, &value)
	if err != nil {
		return nil, false
	}

	return value, true
}

// QuestionString returns the answer for name as text. List answers are
// joined with ", ".
func (q *QuestionExtras) QuestionString(name string) string {
	value, ok := q.Question(name)
	if !ok || value == nil {
		return ""
	}

	return answerString(value)
}

// SetQuestion stores value as the answer for name.
func (q *QuestionExtras) SetQuestion(name string, value interface{}) error {
	if !IsQuestionField(name) {
		return fmt.Errorf("%w: %s", ErrNotQuestionField, name)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding answer %s: %w", name, err)
	}

	q.SetExtra(name, raw)

	return nil
}

// HasQuestion reports whether an answer is stored for name.
func (q *QuestionExtras) HasQuestion(name string) bool {
	return IsQuestionField(name) && q.HasExtra(name)
}

// DeleteQuestion removes the answer for name.
func (q *QuestionExtras) DeleteQuestion(name string) {
	if IsQuestionField(name) {
		q.DeleteExtra(name)
	}
}

// QuestionNames returns the names of the stored answers in sorted order.
func (q *QuestionExtras) QuestionNames() []string {
	var names []string

	for _, name := range q.ExtraNames() {
		if IsQuestionField(name) {
			names = append(names, name)
		}
	}

	return names
}
