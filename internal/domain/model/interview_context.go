package model

import (
	"fmt"
	"strings"

	"interview-coach/internal/domain"
)

type InterviewType string

const (
	InterviewHR             InterviewType = "hr"
	InterviewDomainSpecific InterviewType = "domain-specific"
)

type HRRoundType string

const (
	HRScreening   HRRoundType = "screening"
	HRSituational HRRoundType = "situational"
	HRStress      HRRoundType = "stress"
	HRBehavioral  HRRoundType = "behavioral"
	HRCulturalFit HRRoundType = "cultural-fit"
)

type InputType string

const (
	InputSkills         InputType = "skills-based"
	InputJobDescription InputType = "job-description"
)

// InterviewContext is passed through to the generator prompts untouched.
type InterviewContext struct {
	InterviewType  InterviewType `json:"interview_type"`
	HRRoundType    HRRoundType   `json:"hr_round_type,omitempty"`
	InputType      InputType     `json:"input_type,omitempty"`
	CompanyName    string        `json:"company_name,omitempty"`
	JobRole        string        `json:"job_role,omitempty"`
	Domain         string        `json:"domain,omitempty"`
	Skills         []string      `json:"skills,omitempty"`
	JobDescription string        `json:"job_description,omitempty"`
}

// SkillBounds constrains how many skills a skills-based interview may carry.
type SkillBounds struct {
	Min int
	Max int
}

func (c InterviewContext) Validate(bounds SkillBounds) error {
	switch c.InterviewType {
	case InterviewHR:
		switch c.HRRoundType {
		case HRScreening, HRSituational, HRStress, HRBehavioral, HRCulturalFit:
			return nil
		default:
			return fmt.Errorf("%w: unknown hr round type %q", domain.ErrInvalidInput, c.HRRoundType)
		}
	case InterviewDomainSpecific, "":
	default:
		return fmt.Errorf("%w: unknown interview type %q", domain.ErrInvalidInput, c.InterviewType)
	}

	switch c.InputType {
	case InputJobDescription:
		if strings.TrimSpace(c.JobDescription) == "" {
			return fmt.Errorf("%w: job description is required", domain.ErrInvalidInput)
		}
	case InputSkills, "":
		n := 0
		for _, s := range c.Skills {
			if strings.TrimSpace(s) != "" {
				n++
			}
		}
		if bounds.Min > 0 && n < bounds.Min || bounds.Max > 0 && n > bounds.Max {
			return fmt.Errorf("%w: expected %d-%d skills, got %d", domain.ErrInvalidInput, bounds.Min, bounds.Max, n)
		}
	default:
		return fmt.Errorf("%w: unknown input type %q", domain.ErrInvalidInput, c.InputType)
	}
	return nil
}

func (c InterviewContext) Clone() InterviewContext {
	c.Skills = append([]string(nil), c.Skills...)
	return c
}
