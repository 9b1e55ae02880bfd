package profile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionType controls how an onboarding answer is interpreted.
type QuestionType string

const (
	QuestionSingle QuestionType = "single"
	QuestionMulti  QuestionType = "multi"
	QuestionText   QuestionType = "text"
)

// Question is one onboarding prompt. Options are display labels; Values are
// the CAP values they map to, index for index.
type Question struct {
	ID       string       `json:"id"`
	Field    string       `json:"field"`
	Question string       `json:"question"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options"`
	Values   []string     `json:"values"`
}

// Questions is the onboarding questionnaire.
var Questions = []Question{
	{
		ID:       "q1",
		Field:    FieldDensity,
		Question: "How much detail do you want for each task?",
		Type:     QuestionSingle,
		Options: []string{
			"Just the essentials — one or two sentences",
			"A bit of context — two or three sentences",
			"Full breakdown — step-by-step instructions",
		},
		Values: []string{"summary", "moderate", "full"},
	},
	{
		ID:       "q2",
		Field:    FieldTimeHorizon,
		Question: "How far ahead do you want deadline reminders?",
		Type:     QuestionSingle,
		Options: []string{
			"Same day (24 hours before)",
			"3 days ahead",
			"1 week ahead",
			"2 weeks ahead",
		},
		Values: []string{"24h", "72h", "1week", "2weeks"},
	},
	{
		ID:       "q3",
		Field:    FieldSensoryFlags,
		Question: "What environments make it hard for you to focus? (Select all that apply)",
		Type:     QuestionMulti,
		Options: []string{
			"Loud or noisy spaces",
			"Bright lighting",
			"Crowded areas",
			"Open or exposed spaces",
		},
		Values: []string{"loud", "bright", "crowds", "open"},
	},
	{
		ID:       "q4",
		Field:    FieldSupportLevel,
		Question: "How much help do you want with tasks?",
		Type:     QuestionSingle,
		Options: []string{
			"Just remind me of the due date",
			"Break each task into numbered steps",
			"Full support — steps plus a suggested start date",
		},
		Values: []string{"reminder", "step-by-step", "full-agent"},
	},
	{
		ID:       "q5",
		Field:    "display_name",
		Question: "What should Vantage call you?",
		Type:     QuestionText,
	},
}

// Answer is a student's response to one question. Answer holds a string for
// single and text questions and a list for multi questions; either the
// display label or the underlying value is accepted.
type Answer struct {
	QuestionID string   `json:"question_id"`
	Answer     []string `json:"answer"`
}

// UnmarshalJSON accepts the answer as a single string or a list.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var wire struct {
		QuestionID  string          `json:"question_id"`
		QuestionID2 string          `json:"questionId"`
		Answer      json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	vals, err := list(wire.Answer)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}
	a.QuestionID = wire.QuestionID
	if a.QuestionID == "" {
		a.QuestionID = wire.QuestionID2
	}
	a.Answer = vals
	return nil
}

// BuildFromAnswers turns onboarding answers into a CAP in external
// vocabulary. Unknown question ids are skipped. Single answers that match
// neither a label nor a value leave the default in place; multi answers keep
// unmatched items verbatim so the encoder can report them.
func BuildFromAnswers(answers []Answer) RawProfile {
	out := RawProfile{
		DisplayName:        "Student",
		InformationDensity: "moderate",
		TimeHorizon:        "72h",
		SupportLevel:       "step-by-step",
		SensoryFlags:       []string{},
	}

	byID := make(map[string]Question, len(Questions))
	for _, q := range Questions {
		byID[q.ID] = q
	}

	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		switch q.Type {
		case QuestionText:
			if len(a.Answer) > 0 {
				if s := strings.TrimSpace(a.Answer[0]); s != "" {
					out.setField(q.Field, s)
				}
			}
		case QuestionMulti:
			selected := make([]string, 0, len(a.Answer))
			for _, item := range a.Answer {
				if v, ok := q.resolve(item); ok {
					selected = append(selected, v)
				} else if item != "" {
					selected = append(selected, item)
				}
			}
			out.SensoryFlags = selected
		default:
			if len(a.Answer) == 0 {
				continue
			}
			if v, ok := q.resolve(a.Answer[0]); ok {
				out.setField(q.Field, v)
			}
		}
	}
	return out
}

func (q Question) resolve(answer string) (string, bool) {
	for _, v := range q.Values {
		if v == answer {
			return v, true
		}
	}
	for i, o := range q.Options {
		if o == answer && i < len(q.Values) {
			return q.Values[i], true
		}
	}
	return "", false
}

func (r *RawProfile) setField(field, v string) {
	switch field {
	case FieldDensity:
		r.InformationDensity = v
	case FieldTimeHorizon:
		r.TimeHorizon = v
	case FieldSupportLevel:
		r.SupportLevel = v
	case "display_name":
		r.DisplayName = v
	}
}
