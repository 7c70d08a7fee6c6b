package assessment

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"interview-coach/internal/domain/model"
)

var (
	questionCues  = []string{"?", "tell me", "can you", "what", "how", "why", "describe", "explain", "share"}
	exampleCues   = []string{"project", "experience", "example", "developed", "worked"}
	technicalCues = []string{"api", "database", "framework", "technology"}
)

const (
	noInteractionSummary = "Interview session completed. Limited interaction detected for comprehensive assessment."
	noInteractionClosure = "Thank you for your participation. We recommend completing a full interview session for comprehensive feedback."
	emptyAverage         = 3.0
)

// answerTraits are the keyword and length signals the heuristic scorer reads.
type answerTraits struct {
	length     int
	lower      string
	examples   bool
	structured bool
	digits     bool
	technical  bool
}

func traitsOf(response string) answerTraits {
	lower := strings.ToLower(response)
	n := utf8.RuneCountInString(response)
	return answerTraits{
		length:     n,
		lower:      lower,
		examples:   containsAny(lower, exampleCues),
		structured: strings.Contains(response, ".") && n > 50,
		digits:     strings.IndexFunc(response, unicode.IsDigit) >= 0,
		technical:  containsAny(lower, technicalCues),
	}
}

// Fallback scores the transcript with fixed keyword and length rules.
// It never calls out and always returns a schema-valid Assessment.
func Fallback(history []model.Message) *model.Assessment {
	pairs := questionPairs(history)
	analyses := make([]model.QuestionAnalysis, 0, len(pairs))
	for i, p := range pairs {
		analyses = append(analyses, analyse(i+1, p))
	}

	avg := emptyAverage
	if len(analyses) > 0 {
		var sum float64
		for _, q := range analyses {
			sum += q.Score
		}
		avg = sum / float64(len(analyses))
	}
	overall := int(math.Round(avg * 10))
	level := levelForAverage(avg)

	a := &model.Assessment{
		ResponseDepth:     overallDepth(analyses),
		QuestionsAnalysis: analyses,
		CoachingScores: model.CoachingScores{
			ClarityOfMotivation:   clamp(math.Round(avg*0.7), 1, 5),
			SpecificityOfLearning: clamp(math.Round(avg*0.6), 1, 5),
			CareerGoalAlignment:   clamp(math.Round(avg*0.8), 1, 5),
		},
		Recommendations: recommendations(analyses, avg),
		OverallScore:    overall,
		Level:           level,
		Source:          model.SourceFallback,
	}
	if len(analyses) == 0 {
		a.Summary = noInteractionSummary
		a.ClosureMessage = noInteractionClosure
		return a
	}
	a.Summary = fmt.Sprintf(
		"Interview completed with %d questions answered. Overall performance demonstrates %s level responses with an average score of %.1f/10. %s",
		len(analyses), strings.ToLower(string(level)), avg, performanceSummary(analyses),
	)
	a.ClosureMessage = fmt.Sprintf(
		"Thank you for participating in this mock interview. You answered %d questions with an overall score of %d/100. %s",
		len(analyses), overall, closureFor(level),
	)
	return a
}

// questionPairs keeps every ai message immediately followed by a human answer
// when the ai message reads like a question.
func questionPairs(history []model.Message) []model.QAPair {
	var out []model.QAPair
	for _, p := range model.PairTurns(history) {
		if containsAny(strings.ToLower(p.Question), questionCues) {
			out = append(out, p)
		}
	}
	return out
}

func analyse(n int, p model.QAPair) model.QuestionAnalysis {
	t := traitsOf(p.Answer)
	score := scoreAnswer(t)
	return model.QuestionAnalysis{
		Question:      p.Question,
		Response:      p.Answer,
		Feedback:      fmt.Sprintf("Response %d: %s", n, basicFeedback(score)),
		Strengths:     strengths(p.Answer, t),
		Improvements:  improvements(t, score),
		Score:         score,
		ResponseDepth: depthOf(t),
	}
}

func scoreAnswer(t answerTraits) float64 {
	score := 3.0
	if t.length > 50 {
		score++
	}
	if t.length > 100 {
		score++
	}
	if t.length > 200 {
		score++
	}
	if t.examples {
		score += 2
	}
	if t.structured {
		score++
	}
	if t.digits {
		score += 0.5
	}
	if t.technical {
		score += 0.5
	}
	return clamp(math.Round(score), 1, 10)
}

func depthOf(t answerTraits) model.ResponseDepth {
	if t.length > 150 && t.examples && t.structured && (t.digits || t.technical) {
		return model.DepthAdvanced
	}
	if t.length > 80 && (t.examples || t.structured) {
		return model.DepthIntermediate
	}
	return model.DepthNovice
}

func basicFeedback(score float64) string {
	switch {
	case score >= 8:
		return "Excellent response with good detail and structure."
	case score >= 6:
		return "Good response but could benefit from more specific examples."
	case score >= 4:
		return "Adequate response but needs more detail and structure."
	default:
		return "Response needs significant improvement in detail and clarity."
	}
}

func strengths(response string, t answerTraits) []string {
	var out []string
	if t.length > 100 {
		out = append(out, "Provided detailed response")
	}
	if containsAny(t.lower, []string{"project", "experience"}) {
		out = append(out, "Included relevant examples")
	}
	if len(strings.Split(response, ".")) > 2 {
		out = append(out, "Well-structured answer")
	}
	if containsAny(t.lower, []string{"learn", "improve"}) {
		out = append(out, "Shows growth mindset")
	}
	if t.digits {
		out = append(out, "Included specific details/metrics")
	}
	if len(out) == 0 {
		return []string{"Participated actively in the interview"}
	}
	return out
}

func improvements(t answerTraits, score float64) []string {
	var out []string
	if t.length < 100 {
		out = append(out, "Provide more detailed responses")
	}
	if !containsAny(t.lower, []string{"project", "experience"}) {
		out = append(out, "Include specific examples from experience")
	}
	if score < 6 {
		out = append(out, "Use structured approach like STAR method")
	}
	if !strings.Contains(t.lower, ".") {
		out = append(out, "Organize thoughts more clearly")
	}
	if !t.digits && score < 7 {
		out = append(out, "Include specific metrics or numbers when relevant")
	}
	if len(out) == 0 {
		return []string{"Continue practicing interview skills"}
	}
	return out
}

func levelForAverage(avg float64) model.Level {
	switch {
	case avg >= 7:
		return model.LevelHighCaliber
	case avg >= 5:
		return model.LevelCompetent
	default:
		return model.LevelBasic
	}
}

func averageDepth(analyses []model.QuestionAnalysis) float64 {
	if len(analyses) == 0 {
		return 1
	}
	total := 0
	for _, q := range analyses {
		total += q.ResponseDepth.Rank()
	}
	return float64(total) / float64(len(analyses))
}

func overallDepth(analyses []model.QuestionAnalysis) model.ResponseDepth {
	switch d := averageDepth(analyses); {
	case d >= 2.5:
		return model.DepthAdvanced
	case d >= 1.5:
		return model.DepthIntermediate
	default:
		return model.DepthNovice
	}
}

func performanceSummary(analyses []model.QuestionAnalysis) string {
	switch d := averageDepth(analyses); {
	case d >= 2.5:
		return "Responses showed strong technical depth and clear communication."
	case d >= 1.5:
		return "Responses demonstrated good understanding with room for more detail."
	default:
		return "Responses were basic and would benefit from more specific examples and detail."
	}
}

func closureFor(level model.Level) string {
	switch level {
	case model.LevelHighCaliber:
		return "Excellent performance! Continue practicing to maintain this high standard."
	case model.LevelCompetent:
		return "Good performance with clear potential. Focus on the recommendations to reach the next level."
	default:
		return "Keep practicing! Focus on providing more detailed responses with specific examples."
	}
}

func recommendations(analyses []model.QuestionAnalysis, avg float64) []string {
	var out []string
	if avg < 6 {
		out = append(out,
			"Practice providing more detailed and structured responses",
			"Prepare specific examples from your experience using the STAR method",
		)
	}

	var short, noExamples, novice bool
	for _, q := range analyses {
		lower := strings.ToLower(q.Response)
		short = short || utf8.RuneCountInString(q.Response) < 100
		noExamples = noExamples || !containsAny(lower, []string{"project", "experience", "example"})
		novice = novice || q.ResponseDepth == model.DepthNovice
	}
	if short {
		out = append(out, "Work on expanding your answers with more context and details")
	}
	if noExamples {
		out = append(out, "Prepare concrete examples from your projects and experiences")
	}
	if novice {
		out = append(out, "Focus on providing more comprehensive answers with technical details")
	}

	if len(out) == 0 {
		out = append(out,
			"Continue practicing to maintain your strong interview performance",
			"Consider mock interviews for advanced scenarios",
		)
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
