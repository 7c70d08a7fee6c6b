package model

// ResponseDepth grades how thorough an answer (or a whole interview) was.
type ResponseDepth string

const (
	DepthNovice       ResponseDepth = "Novice"
	DepthIntermediate ResponseDepth = "Intermediate"
	DepthAdvanced     ResponseDepth = "Advanced"
)

func (d ResponseDepth) Valid() bool {
	switch d {
	case DepthNovice, DepthIntermediate, DepthAdvanced:
		return true
	}
	return false
}

// Rank maps depth onto 1..3; unknown values rank as Novice.
func (d ResponseDepth) Rank() int {
	switch d {
	case DepthAdvanced:
		return 3
	case DepthIntermediate:
		return 2
	default:
		return 1
	}
}

type Level string

const (
	LevelBasic       Level = "Basic"
	LevelCompetent   Level = "Competent"
	LevelHighCaliber Level = "High-Caliber"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBasic, LevelCompetent, LevelHighCaliber:
		return true
	}
	return false
}

// AssessmentSource tells consumers which path produced an Assessment.
type AssessmentSource string

const (
	SourceGenerated AssessmentSource = "generated"
	SourceFallback  AssessmentSource = "fallback"
)

type QuestionAnalysis struct {
	Question      string        `json:"question"`
	Response      string        `json:"response"`
	Feedback      string        `json:"feedback"`
	Strengths     []string      `json:"strengths"`
	Improvements  []string      `json:"improvements"`
	Score         float64       `json:"score"`
	ResponseDepth ResponseDepth `json:"response_depth"`
}

// CoachingScores are three 1..5 ratings blended into the overall score.
type CoachingScores struct {
	ClarityOfMotivation   float64 `json:"clarity_of_motivation"`
	SpecificityOfLearning float64 `json:"specificity_of_learning"`
	CareerGoalAlignment   float64 `json:"career_goal_alignment"`
}

func (c CoachingScores) Sum() float64 {
	return c.ClarityOfMotivation + c.SpecificityOfLearning + c.CareerGoalAlignment
}

// Assessment is the structured result of a completed interview.
type Assessment struct {
	Summary           string             `json:"summary"`
	ResponseDepth     ResponseDepth      `json:"response_depth"`
	QuestionsAnalysis []QuestionAnalysis `json:"questions_analysis"`
	CoachingScores    CoachingScores     `json:"coaching_scores"`
	Recommendations   []string           `json:"recommendations"`
	ClosureMessage    string             `json:"closure_message"`
	OverallScore      int                `json:"overall_score"`
	Level             Level              `json:"level"`
	Source            AssessmentSource   `json:"source"`
}

func (a *Assessment) Clone() *Assessment {
	if a == nil {
		return nil
	}
	cp := *a
	cp.QuestionsAnalysis = make([]QuestionAnalysis, len(a.QuestionsAnalysis))
	for i, q := range a.QuestionsAnalysis {
		q.Strengths = append([]string(nil), q.Strengths...)
		q.Improvements = append([]string(nil), q.Improvements...)
		cp.QuestionsAnalysis[i] = q
	}
	cp.Recommendations = append([]string(nil), a.Recommendations...)
	return &cp
}
