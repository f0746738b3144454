package store

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a job posting
type JobStatus string

// job statuses
const (
	JobStatusActive   JobStatus = "active"
	JobStatusArchived JobStatus = "archived"
)

// ParseJobStatus converts a string to JobStatus
func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case JobStatusActive, JobStatusArchived:
		return JobStatus(s), nil
	}
	return "", fmt.Errorf("invalid job status %q", s)
}

// Stage is a candidate's position in the hiring pipeline
type Stage string

// pipeline stages, in canonical progression order
const (
	StageApplied  Stage = "applied"
	StageScreen   Stage = "screen"
	StageTech     Stage = "tech"
	StageOffer    Stage = "offer"
	StageHired    Stage = "hired"
	StageRejected Stage = "rejected"
)

// Stages returns all pipeline stages in canonical progression order
func Stages() []Stage {
	return []Stage{StageApplied, StageScreen, StageTech, StageOffer, StageHired, StageRejected}
}

// ParseStage converts a string to Stage
func ParseStage(s string) (Stage, error) {
	for _, st := range Stages() {
		if Stage(s) == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid stage %q", s)
}

// QuestionType identifies how an assessment question is answered
type QuestionType string

// question types
const (
	QuestionSingleChoice QuestionType = "single-choice"
	QuestionMultiChoice  QuestionType = "multi-choice"
	QuestionShortText    QuestionType = "short-text"
	QuestionLongText     QuestionType = "long-text"
	QuestionNumeric      QuestionType = "numeric"
	QuestionFile         QuestionType = "file"
)

// ResponseStatus is the state of an assessment response
type ResponseStatus string

// response statuses
const (
	ResponseInProgress ResponseStatus = "in-progress"
	ResponseCompleted  ResponseStatus = "completed"
	ResponseExpired    ResponseStatus = "expired"
)

// ParseResponseStatus converts a string to ResponseStatus
func ParseResponseStatus(s string) (ResponseStatus, error) {
	switch ResponseStatus(s) {
	case ResponseInProgress, ResponseCompleted, ResponseExpired:
		return ResponseStatus(s), nil
	}
	return "", fmt.Errorf("invalid response status %q", s)
}

// Salary is a compensation band attached to a job posting.
// Min and max are generated independently and may not be ordered.
type Salary struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Currency string `json:"currency"`
}

// Job represents a job posting
type Job struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Status       JobStatus `json:"status"`
	Tags         []string  `json:"tags"`
	Order        int       `json:"order"` // dense 0..N-1, drives default listing and drag reordering
	Description  string    `json:"description"`
	Department   string    `json:"department"`
	Location     string    `json:"location"`
	Requirements []string  `json:"requirements"`
	Salary       *Salary   `json:"salary,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
}

// Note is a free-form note on a candidate with @mentions
type Note struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
	Mentions   []string  `json:"mentions"`
}

// TimelineEntry records a single stage transition for a candidate
type TimelineEntry struct {
	ID        string    `json:"id"`
	Stage     Stage     `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
}

// Candidate represents an applicant moving through the pipeline
type Candidate struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone,omitempty"`
	Stage     Stage           `json:"stage"`
	JobID     string          `json:"jobId"`
	AppliedAt time.Time       `json:"appliedAt"`
	Rating    int             `json:"rating,omitempty"` // 1..5, 0 when not rated
	Notes     []Note          `json:"notes"`
	Timeline  []TimelineEntry `json:"timeline"`
	Skills    []string        `json:"skills"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt,omitzero"`
}

// Validation holds per-question answer constraints
type Validation struct {
	MinLength int     `json:"minLength,omitempty"`
	MaxLength int     `json:"maxLength,omitempty"`
	Min       float64 `json:"min,omitempty"`
	Max       float64 `json:"max,omitempty"`
}

// Conditional shows a question only when another answer matches
type Conditional struct {
	DependsOn string `json:"dependsOn"` // question id
	ShowIf    string `json:"showIf"`    // answer value
}

// Question is a single assessment question nested under a section
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Options     []string     `json:"options,omitempty"` // choice types only
	Validation  *Validation  `json:"validation,omitempty"`
	Conditional *Conditional `json:"conditionalLogic,omitempty"`
}

// Section groups questions inside an assessment, insertion order is significant
type Section struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// Assessment is an authored questionnaire attached to a job
type Assessment struct {
	ID          string    `json:"id"`
	JobID       string    `json:"jobId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Sections    []Section `json:"sections"`
	IsActive    bool      `json:"isActive"`
	TimeLimit   int       `json:"timeLimit,omitempty"` // minutes
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// AssessmentResponse captures a candidate's answers for an assessment
type AssessmentResponse struct {
	ID           string         `json:"id"`
	AssessmentID string         `json:"assessmentId"`
	CandidateID  string         `json:"candidateId"`
	Responses    map[string]any `json:"responses"` // question id -> answer, shape depends on question type
	CompletedAt  time.Time      `json:"completedAt,omitzero"`
	Score        float64        `json:"score,omitempty"`
	Status       ResponseStatus `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt,omitzero"`
}
