package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type assessmentRow struct {
	ID          string        `db:"id"`
	JobID       string        `db:"job_id"`
	Title       string        `db:"title"`
	Description string        `db:"description"`
	Sections    string        `db:"sections"`
	IsActive    bool          `db:"is_active"`
	TimeLimit   int           `db:"time_limit"`
	CreatedAt   int64         `db:"created_at"`
	UpdatedAt   sql.NullInt64 `db:"updated_at"`
}

func (r assessmentRow) toAssessment() (Assessment, error) {
	a := Assessment{
		ID:          r.ID,
		JobID:       r.JobID,
		Title:       r.Title,
		Description: r.Description,
		IsActive:    r.IsActive,
		TimeLimit:   r.TimeLimit,
		CreatedAt:   fromUnix(r.CreatedAt),
		UpdatedAt:   fromUnix(r.UpdatedAt.Int64),
	}
	a.Sections = []Section{}
	if err := unmarshalDoc(r.Sections, &a.Sections); err != nil {
		return a, fmt.Errorf("assessment %s sections: %w", r.ID, err)
	}
	return a, nil
}

func assessmentToRow(a Assessment) (assessmentRow, error) {
	sections, err := marshalDoc(a.Sections)
	if err != nil {
		return assessmentRow{}, err
	}
	return assessmentRow{
		ID:          a.ID,
		JobID:       a.JobID,
		Title:       a.Title,
		Description: a.Description,
		Sections:    sections,
		IsActive:    a.IsActive,
		TimeLimit:   a.TimeLimit,
		CreatedAt:   toUnix(a.CreatedAt),
		UpdatedAt:   sql.NullInt64{Int64: toUnix(a.UpdatedAt), Valid: !a.UpdatedAt.IsZero()},
	}, nil
}

const insertAssessmentQuery = `
	INSERT INTO assessments (id, job_id, title, description, sections, is_active, time_limit, created_at, updated_at)
	VALUES (:id, :job_id, :title, :description, :sections, :is_active, :time_limit, :created_at, :updated_at)`

func (s *Store) prepareAssessment(a *Assessment) error {
	if a.JobID == "" || a.Title == "" {
		return fmt.Errorf("%w: assessment jobId and title are required", ErrValidation)
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Sections == nil {
		a.Sections = []Section{}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	return nil
}

// CreateAssessment inserts a single assessment, stamping id and createdAt when absent
func (s *Store) CreateAssessment(a *Assessment) error {
	if err := s.prepareAssessment(a); err != nil {
		return err
	}
	row, err := assessmentToRow(*a)
	if err != nil {
		return err
	}
	if _, err := s.db.NamedExec(insertAssessmentQuery, row); err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

// BulkInsertAssessments inserts assessments in a single transaction, all-or-nothing
func (s *Store) BulkInsertAssessments(assessments []Assessment) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for i := range assessments {
		if err := s.prepareAssessment(&assessments[i]); err != nil {
			return err
		}
		row, err := assessmentToRow(assessments[i])
		if err != nil {
			return err
		}
		if _, err := tx.NamedExec(insertAssessmentQuery, row); err != nil {
			return fmt.Errorf("failed to insert assessment %s: %w", assessments[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAssessment retrieves a single assessment by id
func (s *Store) GetAssessment(id string) (Assessment, error) {
	var row assessmentRow
	if err := s.db.Get(&row, "SELECT * FROM assessments WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assessment{}, fmt.Errorf("assessment %s: %w", id, ErrNotFound)
		}
		return Assessment{}, fmt.Errorf("failed to get assessment %s: %w", id, err)
	}
	return row.toAssessment()
}

// ListAssessments returns assessments ordered by creation date.
// jobID narrows the result to one job when non-empty.
func (s *Store) ListAssessments(jobID string) ([]Assessment, error) {
	query := "SELECT * FROM assessments ORDER BY created_at"
	args := []any{}
	if jobID != "" {
		query = "SELECT * FROM assessments WHERE job_id = ? ORDER BY created_at"
		args = append(args, jobID)
	}
	var rows []assessmentRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	assessments := make([]Assessment, 0, len(rows))
	for _, row := range rows {
		a, err := row.toAssessment()
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, nil
}

// CountAssessments returns the total number of assessments
func (s *Store) CountAssessments() (int, error) {
	var count int
	if err := s.db.Get(&count, "SELECT COUNT(*) FROM assessments"); err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

type responseRow struct {
	ID           string        `db:"id"`
	AssessmentID string        `db:"assessment_id"`
	CandidateID  string        `db:"candidate_id"`
	Responses    string        `db:"responses"`
	CompletedAt  sql.NullInt64 `db:"completed_at"`
	Score        float64       `db:"score"`
	Status       string        `db:"status"`
	CreatedAt    int64         `db:"created_at"`
	UpdatedAt    sql.NullInt64 `db:"updated_at"`
}

func (r responseRow) toResponse() (AssessmentResponse, error) {
	resp := AssessmentResponse{
		ID:           r.ID,
		AssessmentID: r.AssessmentID,
		CandidateID:  r.CandidateID,
		CompletedAt:  fromUnix(r.CompletedAt.Int64),
		Score:        r.Score,
		Status:       ResponseStatus(r.Status),
		CreatedAt:    fromUnix(r.CreatedAt),
		UpdatedAt:    fromUnix(r.UpdatedAt.Int64),
	}
	resp.Responses = map[string]any{}
	if err := unmarshalDoc(r.Responses, &resp.Responses); err != nil {
		return resp, fmt.Errorf("response %s answers: %w", r.ID, err)
	}
	return resp, nil
}

// CreateResponse inserts an assessment response. Status defaults to in-progress,
// completedAt is stamped for completed responses when not supplied.
func (s *Store) CreateResponse(resp *AssessmentResponse) error {
	if resp.AssessmentID == "" || resp.CandidateID == "" {
		return fmt.Errorf("%w: response assessmentId and candidateId are required", ErrValidation)
	}
	if resp.ID == "" {
		resp.ID = uuid.New().String()
	}
	if resp.Status == "" {
		resp.Status = ResponseInProgress
	}
	if resp.Responses == nil {
		resp.Responses = map[string]any{}
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = s.now()
	}
	if resp.Status == ResponseCompleted && resp.CompletedAt.IsZero() {
		resp.CompletedAt = s.now()
	}

	answers, err := marshalDoc(resp.Responses)
	if err != nil {
		return err
	}
	row := responseRow{
		ID:           resp.ID,
		AssessmentID: resp.AssessmentID,
		CandidateID:  resp.CandidateID,
		Responses:    answers,
		CompletedAt:  sql.NullInt64{Int64: toUnix(resp.CompletedAt), Valid: !resp.CompletedAt.IsZero()},
		Score:        resp.Score,
		Status:       string(resp.Status),
		CreatedAt:    toUnix(resp.CreatedAt),
		UpdatedAt:    sql.NullInt64{Int64: toUnix(resp.UpdatedAt), Valid: !resp.UpdatedAt.IsZero()},
	}
	_, err = s.db.NamedExec(`
		INSERT INTO assessment_responses (id, assessment_id, candidate_id, responses, completed_at,
			score, status, created_at, updated_at)
		VALUES (:id, :assessment_id, :candidate_id, :responses, :completed_at,
			:score, :status, :created_at, :updated_at)`, row)
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	return nil
}

// ListResponses returns responses for an assessment ordered by creation date.
// candidateID narrows the result to one candidate when non-empty.
func (s *Store) ListResponses(assessmentID, candidateID string) ([]AssessmentResponse, error) {
	query := "SELECT * FROM assessment_responses WHERE assessment_id = ? ORDER BY created_at"
	args := []any{assessmentID}
	if candidateID != "" {
		query = "SELECT * FROM assessment_responses WHERE assessment_id = ? AND candidate_id = ? ORDER BY created_at"
		args = append(args, candidateID)
	}
	var rows []responseRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list responses for assessment %s: %w", assessmentID, err)
	}
	responses := make([]AssessmentResponse, 0, len(rows))
	for _, row := range rows {
		resp, err := row.toResponse()
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
