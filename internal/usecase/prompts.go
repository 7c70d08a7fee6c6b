package usecase

import (
	"fmt"
	"strings"

	"interview-coach/internal/domain/model"
)

const (
	introInput    = "Start the interview with an introductory greeting and the first question."
	nextInput     = "Generate the next question based on the conversation history."
	questionRules = "Ask exactly one question at a time. Do not answer on the candidate's behalf. Keep it under 60 words."
	feedbackRules = "Give short, constructive feedback on the candidate's latest answer in at most 4 sentences. Name one strength and one concrete improvement. Do not ask a new question."
)

// persona describes the interviewer for a given context.
func persona(c model.InterviewContext) string {
	var sb strings.Builder
	switch c.InterviewType {
	case model.InterviewHR:
		fmt.Fprintf(&sb, "You are an HR interviewer running a %s round", c.HRRoundType)
	default:
		sb.WriteString("You are a technical interviewer")
		if c.Domain != "" {
			fmt.Fprintf(&sb, " in the %s domain", c.Domain)
		}
	}
	if c.JobRole != "" {
		fmt.Fprintf(&sb, " for a %s position", c.JobRole)
	}
	if c.CompanyName != "" {
		fmt.Fprintf(&sb, " at %s", c.CompanyName)
	}
	sb.WriteString(".")

	switch {
	case c.InputType == model.InputJobDescription && c.JobDescription != "":
		fmt.Fprintf(&sb, "\nBase your questions on this job description:\n%s", c.JobDescription)
	case len(c.Skills) > 0:
		fmt.Fprintf(&sb, "\nFocus on these skills: %s.", strings.Join(c.Skills, ", "))
	}
	return sb.String()
}

func questionInstruction(c model.InterviewContext) string {
	return persona(c) + "\n" + questionRules
}

func feedbackInstruction(c model.InterviewContext) string {
	return persona(c) + "\n" + feedbackRules
}
