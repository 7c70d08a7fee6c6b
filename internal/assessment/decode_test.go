//go:build !integration

package assessment

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"interview-coach/internal/domain/model"
)

func sampleAssessment() *model.Assessment {
	return &model.Assessment{
		Summary:       "Solid interview with {braces} in text and a \"quote\".",
		ResponseDepth: model.DepthIntermediate,
		QuestionsAnalysis: []model.QuestionAnalysis{{
			Question:      "Tell me about yourself?",
			Response:      "I build APIs } for a living",
			Feedback:      "Clear and concise.",
			Strengths:     []string{"Concise"},
			Improvements:  []string{"Add metrics"},
			Score:         7.5,
			ResponseDepth: model.DepthIntermediate,
		}},
		CoachingScores:  model.CoachingScores{ClarityOfMotivation: 4, SpecificityOfLearning: 3, CareerGoalAlignment: 5},
		Recommendations: []string{"Use STAR"},
		ClosureMessage:  "Thanks!",
		OverallScore:    72,
		Level:           model.LevelCompetent,
		Source:          model.SourceGenerated,
	}
}

func TestDecode_RoundTripThroughFences(t *testing.T) {
	t.Parallel()
	want := sampleAssessment()
	b, err := json.MarshalIndent(want, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	raw := "Here you go:\n```json\n" + string(b) + "\n```\nLet me know if you need more."

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_RepairsTrailingCommas(t *testing.T) {
	t.Parallel()
	raw := `json {
  "summary": "ok",
  "response_depth": "Novice",
  "questions_analysis": [{"question": "q?", "response": "a", "feedback": "f", "strengths": [], "improvements": [], "score": 4, "response_depth": "Novice",},],
  "coaching_scores": {"clarity_of_motivation": 2, "specificity_of_learning": 2, "career_goal_alignment": 2,},
  "recommendations": ["practice",],
  "closure_message": "bye",
}`
	a, analysed, err := decode(raw)
	if err != nil {
		t.Fatalf("expected repaired payload to decode, got %v", err)
	}
	if len(a.QuestionsAnalysis) != 1 || a.QuestionsAnalysis[0].Score != 4 {
		t.Fatalf("unexpected analyses %+v", a.QuestionsAnalysis)
	}
	if analysed != 1 {
		t.Fatalf("analysed = %d, want 1 counted from the repaired object", analysed)
	}
}

func TestDecode_NoObject(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "I cannot produce JSON today.", "```json\n{\"summary\": \"cut off\"\n```"} {
		if _, err := Decode(raw); !errors.Is(err, errNoObject) {
			t.Errorf("Decode(%q) err = %v, want errNoObject", raw, err)
		}
	}
}

func TestDecode_ValidationFailures(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"missing fields":  `{"summary": "x"}`,
		"bad depth":       `{"summary":"s","response_depth":"Expert","questions_analysis":[],"coaching_scores":{"clarity_of_motivation":3,"specificity_of_learning":3,"career_goal_alignment":3},"recommendations":[],"closure_message":"c"}`,
		"coaching range":  `{"summary":"s","response_depth":"Novice","questions_analysis":[],"coaching_scores":{"clarity_of_motivation":0,"specificity_of_learning":3,"career_goal_alignment":9},"recommendations":[],"closure_message":"c"}`,
		"score range":     `{"summary":"s","response_depth":"Novice","questions_analysis":[{"question":"q","response":"r","feedback":"f","strengths":[],"improvements":[],"score":11,"response_depth":"Novice"}],"coaching_scores":{"clarity_of_motivation":3,"specificity_of_learning":3,"career_goal_alignment":3},"recommendations":[],"closure_message":"c"}`,
		"question fields": `{"summary":"s","response_depth":"Novice","questions_analysis":[{"question":"q"}],"coaching_scores":{"clarity_of_motivation":3,"specificity_of_learning":3,"career_goal_alignment":3},"recommendations":[],"closure_message":"c"}`,
	}
	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(raw)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Problems) == 0 {
				t.Fatal("validation error without problems")
			}
		})
	}
}

func TestFirstObject_IgnoresBracesInStrings(t *testing.T) {
	t.Parallel()
	in := `noise {"a": "}{", "b": {"c": "\"}"}} trailing {"d": 1}`
	got, ok := firstObject(in)
	if !ok {
		t.Fatal("expected an object")
	}
	want := `{"a": "}{", "b": {"c": "\"}"}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()
	got := stripFences("```JSON\n{\"a\":1}\n```")
	if got != `{"a":1}` {
		t.Fatalf("got %q", got)
	}
	if got := stripFences("  json {\"a\":1}"); !strings.HasPrefix(got, "{") {
		t.Fatalf("leading label not removed: %q", got)
	}
}
