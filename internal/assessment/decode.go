package assessment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"

	"interview-coach/internal/domain/model"
)

var errNoObject = errors.New("no complete JSON object found in response")

// ValidationError lists every schema violation found in one decoded payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "assessment schema: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Pointer fields let the validator tell a missing field from a zero value.
type wireQuestion struct {
	Question      *string   `json:"question"`
	Response      *string   `json:"response"`
	Feedback      *string   `json:"feedback"`
	Strengths     *[]string `json:"strengths"`
	Improvements  *[]string `json:"improvements"`
	Score         *float64  `json:"score"`
	ResponseDepth *string   `json:"response_depth"`
}

type wireCoaching struct {
	ClarityOfMotivation   *float64 `json:"clarity_of_motivation"`
	SpecificityOfLearning *float64 `json:"specificity_of_learning"`
	CareerGoalAlignment   *float64 `json:"career_goal_alignment"`
}

type wireAssessment struct {
	Summary           *string         `json:"summary"`
	ResponseDepth     *string         `json:"response_depth"`
	QuestionsAnalysis *[]wireQuestion `json:"questions_analysis"`
	CoachingScores    *wireCoaching   `json:"coaching_scores"`
	Recommendations   *[]string       `json:"recommendations"`
	ClosureMessage    *string         `json:"closure_message"`
	OverallScore      *float64        `json:"overall_score"`
	Level             *string         `json:"level"`
}

// Decode turns raw generator text into a validated Assessment.
// Failures are returned as errors; nothing here panics on malformed input.
func Decode(raw string) (*model.Assessment, error) {
	a, _, err := decode(raw)
	return a, err
}

// decode also reports how many questions_analysis entries the repaired
// object carries, so callers can compare coverage against the transcript.
func decode(raw string) (*model.Assessment, int, error) {
	obj, ok := firstObject(stripFences(raw))
	if !ok {
		return nil, 0, errNoObject
	}
	text := repair(obj)

	var w wireAssessment
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return nil, 0, fmt.Errorf("parse assessment: %w", err)
	}
	analysed := int(gjson.Get(text, "questions_analysis.#").Int())
	a, err := validate(w)
	return a, analysed, err
}

// repair runs the best-effort fixer and keeps the original text when the
// fixer fails or produces something that still is not JSON.
func repair(obj string) string {
	fixed, err := jsonrepair.JSONRepair(obj)
	if err != nil || !gjson.Valid(fixed) {
		return obj
	}
	return fixed
}

func validate(w wireAssessment) (*model.Assessment, error) {
	verr := &ValidationError{}
	a := &model.Assessment{Source: model.SourceGenerated}

	a.Summary = requireString(verr, "summary", w.Summary)
	a.ClosureMessage = requireString(verr, "closure_message", w.ClosureMessage)
	a.ResponseDepth = requireDepth(verr, "response_depth", w.ResponseDepth)

	if w.Recommendations == nil {
		verr.add("recommendations is required")
	} else {
		a.Recommendations = append([]string{}, (*w.Recommendations)...)
	}

	if w.CoachingScores == nil {
		verr.add("coaching_scores is required")
	} else {
		c := w.CoachingScores
		a.CoachingScores = model.CoachingScores{
			ClarityOfMotivation:   requireRange(verr, "coaching_scores.clarity_of_motivation", c.ClarityOfMotivation, 1, 5),
			SpecificityOfLearning: requireRange(verr, "coaching_scores.specificity_of_learning", c.SpecificityOfLearning, 1, 5),
			CareerGoalAlignment:   requireRange(verr, "coaching_scores.career_goal_alignment", c.CareerGoalAlignment, 1, 5),
		}
	}

	if w.QuestionsAnalysis == nil {
		verr.add("questions_analysis is required")
	} else {
		a.QuestionsAnalysis = make([]model.QuestionAnalysis, 0, len(*w.QuestionsAnalysis))
		for i, q := range *w.QuestionsAnalysis {
			p := fmt.Sprintf("questions_analysis[%d].", i)
			qa := model.QuestionAnalysis{
				Question:      requireString(verr, p+"question", q.Question),
				Response:      requireString(verr, p+"response", q.Response),
				Feedback:      requireString(verr, p+"feedback", q.Feedback),
				Score:         requireRange(verr, p+"score", q.Score, 0, 10),
				ResponseDepth: requireDepth(verr, p+"response_depth", q.ResponseDepth),
			}
			if q.Strengths == nil {
				verr.add("%sstrengths is required", p)
			} else {
				qa.Strengths = append([]string{}, (*q.Strengths)...)
			}
			if q.Improvements == nil {
				verr.add("%simprovements is required", p)
			} else {
				qa.Improvements = append([]string{}, (*q.Improvements)...)
			}
			a.QuestionsAnalysis = append(a.QuestionsAnalysis, qa)
		}
	}

	// Score and level are recalculated downstream; accept them only when sane.
	if w.OverallScore != nil && *w.OverallScore >= 0 && *w.OverallScore <= 100 {
		a.OverallScore = int(*w.OverallScore)
	}
	if w.Level != nil && model.Level(*w.Level).Valid() {
		a.Level = model.Level(*w.Level)
	}

	if len(verr.Problems) > 0 {
		return nil, verr
	}
	return a, nil
}

func requireString(verr *ValidationError, field string, v *string) string {
	if v == nil {
		verr.add("%s is required", field)
		return ""
	}
	return *v
}

func requireDepth(verr *ValidationError, field string, v *string) model.ResponseDepth {
	if v == nil {
		verr.add("%s is required", field)
		return ""
	}
	d := model.ResponseDepth(*v)
	if !d.Valid() {
		verr.add("%s: unknown depth %q", field, *v)
	}
	return d
}

func requireRange(verr *ValidationError, field string, v *float64, lo, hi float64) float64 {
	if v == nil {
		verr.add("%s is required", field)
		return 0
	}
	if *v < lo || *v > hi {
		verr.add("%s: %v out of range [%v,%v]", field, *v, lo, hi)
	}
	return *v
}
