//go:build !integration

package assessment

import (
	"reflect"
	"strings"
	"testing"

	"interview-coach/internal/domain/model"
)

const (
	strongAnswer = "I developed a REST API for a logistics project. It served 2000 requests per second. We used a PostgreSQL database and the Gin framework."
	weakAnswer   = "I like teamwork"
)

func transcript(msgs ...string) []model.Message {
	out := make([]model.Message, len(msgs))
	for i, m := range msgs {
		role := model.RoleAI
		if i%2 == 1 {
			role = model.RoleHuman
		}
		out[i] = model.Message{Role: role, Content: m}
	}
	return out
}

func TestFallback_ScoresQuestionPairs(t *testing.T) {
	t.Parallel()
	h := transcript(
		"Tell me about a project you built?", strongAnswer,
		"Great, thanks.", "ok",
		"Why do you want to work with us?", weakAnswer,
	)
	a := Fallback(h)

	if a.Source != model.SourceFallback {
		t.Fatalf("source = %s", a.Source)
	}
	if len(a.QuestionsAnalysis) != 2 {
		t.Fatalf("expected 2 analysed pairs, got %d", len(a.QuestionsAnalysis))
	}

	strong := a.QuestionsAnalysis[0]
	if strong.Score != 9 || strong.ResponseDepth != model.DepthIntermediate {
		t.Errorf("strong answer scored %v/%s", strong.Score, strong.ResponseDepth)
	}
	if strong.Feedback != "Response 1: Excellent response with good detail and structure." {
		t.Errorf("feedback = %q", strong.Feedback)
	}
	wantStrengths := []string{"Provided detailed response", "Included relevant examples", "Well-structured answer", "Included specific details/metrics"}
	if !reflect.DeepEqual(strong.Strengths, wantStrengths) {
		t.Errorf("strengths = %v", strong.Strengths)
	}
	if !reflect.DeepEqual(strong.Improvements, []string{"Continue practicing interview skills"}) {
		t.Errorf("improvements = %v", strong.Improvements)
	}

	weak := a.QuestionsAnalysis[1]
	if weak.Score != 3 || weak.ResponseDepth != model.DepthNovice {
		t.Errorf("weak answer scored %v/%s", weak.Score, weak.ResponseDepth)
	}
	if weak.Feedback != "Response 2: Response needs significant improvement in detail and clarity." {
		t.Errorf("feedback = %q", weak.Feedback)
	}
	if !reflect.DeepEqual(weak.Strengths, []string{"Participated actively in the interview"}) {
		t.Errorf("strengths = %v", weak.Strengths)
	}
	if len(weak.Improvements) != 5 {
		t.Errorf("expected every improvement to fire, got %v", weak.Improvements)
	}

	if a.OverallScore != 60 || a.Level != model.LevelCompetent {
		t.Errorf("aggregate %d/%s", a.OverallScore, a.Level)
	}
	want := model.CoachingScores{ClarityOfMotivation: 4, SpecificityOfLearning: 4, CareerGoalAlignment: 5}
	if a.CoachingScores != want {
		t.Errorf("coaching = %+v", a.CoachingScores)
	}
	wantSummary := "Interview completed with 2 questions answered. Overall performance demonstrates competent level responses with an average score of 6.0/10. Responses demonstrated good understanding with room for more detail."
	if a.Summary != wantSummary {
		t.Errorf("summary = %q", a.Summary)
	}
	if !strings.HasPrefix(a.ClosureMessage, "Thank you for participating in this mock interview. You answered 2 questions with an overall score of 60/100. Good performance") {
		t.Errorf("closure = %q", a.ClosureMessage)
	}
	wantRecs := []string{
		"Work on expanding your answers with more context and details",
		"Prepare concrete examples from your projects and experiences",
		"Focus on providing more comprehensive answers with technical details",
	}
	if !reflect.DeepEqual(a.Recommendations, wantRecs) {
		t.Errorf("recommendations = %v", a.Recommendations)
	}
}

func TestFallback_NoInteraction(t *testing.T) {
	t.Parallel()
	for name, h := range map[string][]model.Message{
		"empty":         nil,
		"only question": transcript("Tell me about yourself?"),
		"no questions":  transcript("Welcome aboard.", "thanks"),
	} {
		h := h
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			a := Fallback(h)
			if len(a.QuestionsAnalysis) != 0 {
				t.Fatalf("expected no analyses, got %d", len(a.QuestionsAnalysis))
			}
			if a.OverallScore != 30 || a.Level != model.LevelBasic {
				t.Errorf("default score %d/%s", a.OverallScore, a.Level)
			}
			if a.CoachingScores != (model.CoachingScores{ClarityOfMotivation: 2, SpecificityOfLearning: 2, CareerGoalAlignment: 2}) {
				t.Errorf("coaching = %+v", a.CoachingScores)
			}
			if a.Summary != noInteractionSummary || a.ClosureMessage != noInteractionClosure {
				t.Errorf("unexpected texts %q / %q", a.Summary, a.ClosureMessage)
			}
			if len(a.Recommendations) != 2 || a.ResponseDepth != model.DepthNovice {
				t.Errorf("recs=%v depth=%s", a.Recommendations, a.ResponseDepth)
			}
		})
	}
}

func TestFallback_IsDeterministic(t *testing.T) {
	t.Parallel()
	h := transcript("How do you handle conflict?", strongAnswer)
	if !reflect.DeepEqual(Fallback(h), Fallback(h)) {
		t.Fatal("fallback must be deterministic")
	}
}

func TestFallback_ScoresStayInRange(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("In my experience on this project I developed an API with 3 databases. ", 20)
	a := Fallback(transcript("Describe your architecture?", long, "What else?", ""))
	for _, q := range a.QuestionsAnalysis {
		if q.Score < 1 || q.Score > 10 {
			t.Fatalf("score %v out of range", q.Score)
		}
	}
	if a.QuestionsAnalysis[0].ResponseDepth != model.DepthAdvanced {
		t.Errorf("long detailed answer should be Advanced, got %s", a.QuestionsAnalysis[0].ResponseDepth)
	}
}
