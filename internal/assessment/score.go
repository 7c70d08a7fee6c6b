package assessment

import (
	"fmt"
	"math"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
)

const (
	questionWeight = 80.0
	coachingWeight = 20.0
	maxQuestion    = 10.0
	maxCoaching    = 15.0
)

// Compute blends per-question scores (80%) and coaching scores (20%) into a 0..100 score.
func Compute(questions []model.QuestionAnalysis, coaching model.CoachingScores) (int, model.Level, error) {
	if len(questions) == 0 {
		return 0, "", fmt.Errorf("%w: no questions to score", domain.ErrInvalidInput)
	}
	var sum float64
	for _, q := range questions {
		sum += q.Score
	}
	wq := sum / (float64(len(questions)) * maxQuestion) * questionWeight
	wc := coaching.Sum() / maxCoaching * coachingWeight

	score := int(math.Round(wq + wc))
	score = max(0, min(100, score))
	return score, LevelForScore(score), nil
}

func LevelForScore(score int) model.Level {
	switch {
	case score < 50:
		return model.LevelBasic
	case score < 80:
		return model.LevelCompetent
	default:
		return model.LevelHighCaliber
	}
}

// Finalize overwrites score and level with the calculated values.
// An assessment without question analyses keeps its own score.
func Finalize(a *model.Assessment) error {
	if a == nil {
		return fmt.Errorf("%w: nil assessment", domain.ErrInvalidInput)
	}
	if len(a.QuestionsAnalysis) == 0 {
		if !a.Level.Valid() {
			a.Level = LevelForScore(a.OverallScore)
		}
		return nil
	}
	score, level, err := Compute(a.QuestionsAnalysis, a.CoachingScores)
	if err != nil {
		return err
	}
	a.OverallScore = score
	a.Level = level
	return nil
}
