package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type candidateRow struct {
	ID        string        `db:"id"`
	Name      string        `db:"name"`
	Email     string        `db:"email"`
	Phone     string        `db:"phone"`
	Stage     string        `db:"stage"`
	JobID     string        `db:"job_id"`
	AppliedAt int64         `db:"applied_at"`
	Rating    int           `db:"rating"`
	Notes     string        `db:"notes"`
	Timeline  string        `db:"timeline"`
	Skills    string        `db:"skills"`
	CreatedAt int64         `db:"created_at"`
	UpdatedAt sql.NullInt64 `db:"updated_at"`
}

func (r candidateRow) toCandidate() (Candidate, error) {
	c := Candidate{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Stage:     Stage(r.Stage),
		JobID:     r.JobID,
		AppliedAt: fromUnix(r.AppliedAt),
		Rating:    r.Rating,
		CreatedAt: fromUnix(r.CreatedAt),
		UpdatedAt: fromUnix(r.UpdatedAt.Int64),
	}
	c.Notes = []Note{}
	if err := unmarshalDoc(r.Notes, &c.Notes); err != nil {
		return c, fmt.Errorf("candidate %s notes: %w", r.ID, err)
	}
	c.Timeline = []TimelineEntry{}
	if err := unmarshalDoc(r.Timeline, &c.Timeline); err != nil {
		return c, fmt.Errorf("candidate %s timeline: %w", r.ID, err)
	}
	c.Skills = []string{}
	if err := unmarshalDoc(r.Skills, &c.Skills); err != nil {
		return c, fmt.Errorf("candidate %s skills: %w", r.ID, err)
	}
	return c, nil
}

func candidateToRow(c Candidate) (candidateRow, error) {
	notes, err := marshalDoc(c.Notes)
	if err != nil {
		return candidateRow{}, err
	}
	timeline, err := marshalDoc(c.Timeline)
	if err != nil {
		return candidateRow{}, err
	}
	skills, err := marshalDoc(c.Skills)
	if err != nil {
		return candidateRow{}, err
	}
	return candidateRow{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Stage:     string(c.Stage),
		JobID:     c.JobID,
		AppliedAt: toUnix(c.AppliedAt),
		Rating:    c.Rating,
		Notes:     notes,
		Timeline:  timeline,
		Skills:    skills,
		CreatedAt: toUnix(c.CreatedAt),
		UpdatedAt: sql.NullInt64{Int64: toUnix(c.UpdatedAt), Valid: !c.UpdatedAt.IsZero()},
	}, nil
}

const insertCandidateQuery = `
	INSERT INTO candidates (id, name, email, phone, stage, job_id, applied_at, rating, notes,
		timeline, skills, created_at, updated_at)
	VALUES (:id, :name, :email, :phone, :stage, :job_id, :applied_at, :rating, :notes,
		:timeline, :skills, :created_at, :updated_at)`

func (s *Store) prepareCandidate(c *Candidate) error {
	if c.Name == "" || c.Email == "" {
		return fmt.Errorf("%w: candidate name and email are required", ErrValidation)
	}
	if c.JobID == "" {
		return fmt.Errorf("%w: candidate jobId is required", ErrValidation)
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Stage == "" {
		c.Stage = StageApplied
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.AppliedAt.IsZero() {
		c.AppliedAt = c.CreatedAt
	}
	return nil
}

// CreateCandidate inserts a single candidate, stamping id, stage and timestamps when absent
func (s *Store) CreateCandidate(c *Candidate) error {
	if err := s.prepareCandidate(c); err != nil {
		return err
	}
	row, err := candidateToRow(*c)
	if err != nil {
		return err
	}
	if _, err := s.db.NamedExec(insertCandidateQuery, row); err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	return nil
}

// BulkInsertCandidates inserts candidates in a single transaction, all-or-nothing
func (s *Store) BulkInsertCandidates(candidates []Candidate) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for i := range candidates {
		if err := s.prepareCandidate(&candidates[i]); err != nil {
			return err
		}
		row, err := candidateToRow(candidates[i])
		if err != nil {
			return err
		}
		if _, err := tx.NamedExec(insertCandidateQuery, row); err != nil {
			return fmt.Errorf("failed to insert candidate %s: %w", candidates[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCandidate retrieves a single candidate by id
func (s *Store) GetCandidate(id string) (Candidate, error) {
	var row candidateRow
	if err := s.db.Get(&row, "SELECT * FROM candidates WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Candidate{}, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
		}
		return Candidate{}, fmt.Errorf("failed to get candidate %s: %w", id, err)
	}
	return row.toCandidate()
}

// ListCandidates returns all candidates ordered by application date, newest first.
// jobID narrows the result to one job when non-empty.
func (s *Store) ListCandidates(jobID string) ([]Candidate, error) {
	query := "SELECT * FROM candidates ORDER BY applied_at DESC"
	args := []any{}
	if jobID != "" {
		query = "SELECT * FROM candidates WHERE job_id = ? ORDER BY applied_at DESC"
		args = append(args, jobID)
	}
	var rows []candidateRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCandidate()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// RecentCandidatesByJob returns the latest applicants for a job, newest first
func (s *Store) RecentCandidatesByJob(jobID string, limit int) ([]Candidate, error) {
	var rows []candidateRow
	err := s.db.Select(&rows, "SELECT * FROM candidates WHERE job_id = ? ORDER BY applied_at DESC LIMIT ?", jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates for job %s: %w", jobID, err)
	}
	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCandidate()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// CountCandidatesByJob counts candidates referencing a job, the read-time join count
func (s *Store) CountCandidatesByJob(jobID string) (int, error) {
	var count int
	if err := s.db.Get(&count, "SELECT COUNT(*) FROM candidates WHERE job_id = ?", jobID); err != nil {
		return 0, fmt.Errorf("failed to count candidates for job %s: %w", jobID, err)
	}
	return count, nil
}

// CountCandidates returns the total number of candidates
func (s *Store) CountCandidates() (int, error) {
	var count int
	if err := s.db.Get(&count, "SELECT COUNT(*) FROM candidates"); err != nil {
		return 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	return count, nil
}

// CandidatePatch holds optional field updates for a candidate, nil fields are left unchanged
type CandidatePatch struct {
	Name     *string          `json:"name"`
	Email    *string          `json:"email"`
	Phone    *string          `json:"phone"`
	Stage    *Stage           `json:"stage"`
	Rating   *int             `json:"rating"`
	Notes    *[]Note          `json:"notes"`
	Timeline *[]TimelineEntry `json:"timeline"`
	Skills   *[]string        `json:"skills"`
}

// UpdateCandidate merges non-nil patch fields into the candidate and stamps updatedAt.
// Stage transitions are applied as given, the canonical progression is not re-validated here.
func (s *Store) UpdateCandidate(id string, patch CandidatePatch) (Candidate, error) {
	c, err := s.GetCandidate(id)
	if err != nil {
		return Candidate{}, err
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Stage != nil {
		c.Stage = *patch.Stage
	}
	if patch.Rating != nil {
		c.Rating = *patch.Rating
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
	if patch.Timeline != nil {
		c.Timeline = *patch.Timeline
	}
	if patch.Skills != nil {
		c.Skills = *patch.Skills
	}
	c.UpdatedAt = s.now()

	row, err := candidateToRow(c)
	if err != nil {
		return Candidate{}, err
	}
	res, err := s.db.NamedExec(`
		UPDATE candidates SET name = :name, email = :email, phone = :phone, stage = :stage,
			rating = :rating, notes = :notes, timeline = :timeline, skills = :skills,
			updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return Candidate{}, fmt.Errorf("failed to update candidate %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return Candidate{}, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	return c, nil
}
