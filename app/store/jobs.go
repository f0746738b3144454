package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type jobRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Slug         string         `db:"slug"`
	Status       string         `db:"status"`
	Tags         string         `db:"tags"`
	SortIndex    int            `db:"sort_index"`
	Description  string         `db:"description"`
	Department   string         `db:"department"`
	Location     string         `db:"location"`
	Requirements string         `db:"requirements"`
	Salary       sql.NullString `db:"salary"`
	CreatedAt    int64          `db:"created_at"`
	UpdatedAt    sql.NullInt64  `db:"updated_at"`
}

func (r jobRow) toJob() (Job, error) {
	job := Job{
		ID:          r.ID,
		Title:       r.Title,
		Slug:        r.Slug,
		Status:      JobStatus(r.Status),
		Order:       r.SortIndex,
		Description: r.Description,
		Department:  r.Department,
		Location:    r.Location,
		CreatedAt:   fromUnix(r.CreatedAt),
		UpdatedAt:   fromUnix(r.UpdatedAt.Int64),
	}
	job.Tags = []string{}
	if err := unmarshalDoc(r.Tags, &job.Tags); err != nil {
		return job, fmt.Errorf("job %s tags: %w", r.ID, err)
	}
	job.Requirements = []string{}
	if err := unmarshalDoc(r.Requirements, &job.Requirements); err != nil {
		return job, fmt.Errorf("job %s requirements: %w", r.ID, err)
	}
	if r.Salary.Valid && r.Salary.String != "" {
		job.Salary = &Salary{}
		if err := unmarshalDoc(r.Salary.String, job.Salary); err != nil {
			return job, fmt.Errorf("job %s salary: %w", r.ID, err)
		}
	}
	return job, nil
}

func jobToRow(job Job) (jobRow, error) {
	tags, err := marshalDoc(job.Tags)
	if err != nil {
		return jobRow{}, err
	}
	reqs, err := marshalDoc(job.Requirements)
	if err != nil {
		return jobRow{}, err
	}
	row := jobRow{
		ID:           job.ID,
		Title:        job.Title,
		Slug:         job.Slug,
		Status:       string(job.Status),
		Tags:         tags,
		SortIndex:    job.Order,
		Description:  job.Description,
		Department:   job.Department,
		Location:     job.Location,
		Requirements: reqs,
		CreatedAt:    toUnix(job.CreatedAt),
		UpdatedAt:    sql.NullInt64{Int64: toUnix(job.UpdatedAt), Valid: !job.UpdatedAt.IsZero()},
	}
	if job.Salary != nil {
		salary, err := marshalDoc(job.Salary)
		if err != nil {
			return jobRow{}, err
		}
		row.Salary = sql.NullString{String: salary, Valid: true}
	}
	return row, nil
}

const insertJobQuery = `
	INSERT INTO jobs (id, title, slug, status, tags, sort_index, description, department, location,
		requirements, salary, created_at, updated_at)
	VALUES (:id, :title, :slug, :status, :tags, :sort_index, :description, :department, :location,
		:requirements, :salary, :created_at, :updated_at)`

// prepareJob stamps server-assigned fields and checks required ones
func (s *Store) prepareJob(job *Job) error {
	if job.Title == "" {
		return fmt.Errorf("%w: job title is required", ErrValidation)
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = JobStatusActive
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}
	return nil
}

// CreateJob inserts a single job, stamping id, status and createdAt when absent
func (s *Store) CreateJob(job *Job) error {
	if err := s.prepareJob(job); err != nil {
		return err
	}
	row, err := jobToRow(*job)
	if err != nil {
		return err
	}
	if _, err := s.db.NamedExec(insertJobQuery, row); err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// BulkInsertJobs inserts jobs in a single transaction, all-or-nothing
func (s *Store) BulkInsertJobs(jobs []Job) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for i := range jobs {
		if err := s.prepareJob(&jobs[i]); err != nil {
			return err
		}
		row, err := jobToRow(jobs[i])
		if err != nil {
			return err
		}
		if _, err := tx.NamedExec(insertJobQuery, row); err != nil {
			return fmt.Errorf("failed to insert job %s: %w", jobs[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetJob retrieves a single job by id
func (s *Store) GetJob(id string) (Job, error) {
	var row jobRow
	if err := s.db.Get(&row, "SELECT * FROM jobs WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return Job{}, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return row.toJob()
}

// ListJobs returns all jobs ordered by their display order
func (s *Store) ListJobs() ([]Job, error) {
	var rows []jobRow
	if err := s.db.Select(&rows, "SELECT * FROM jobs ORDER BY sort_index"); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	jobs := make([]Job, 0, len(rows))
	for _, row := range rows {
		job, err := row.toJob()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// CountJobs returns the total number of jobs
func (s *Store) CountJobs() (int, error) {
	var count int
	if err := s.db.Get(&count, "SELECT COUNT(*) FROM jobs"); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// JobPatch holds optional field updates for a job, nil fields are left unchanged
type JobPatch struct {
	Title        *string    `json:"title"`
	Slug         *string    `json:"slug"`
	Status       *JobStatus `json:"status"`
	Tags         *[]string  `json:"tags"`
	Description  *string    `json:"description"`
	Department   *string    `json:"department"`
	Location     *string    `json:"location"`
	Requirements *[]string  `json:"requirements"`
	Salary       *Salary    `json:"salary"`
}

// UpdateJob merges non-nil patch fields into the job and stamps updatedAt
func (s *Store) UpdateJob(id string, patch JobPatch) (Job, error) {
	job, err := s.GetJob(id)
	if err != nil {
		return Job{}, err
	}

	if patch.Title != nil {
		job.Title = *patch.Title
	}
	if patch.Slug != nil {
		job.Slug = *patch.Slug
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.Tags != nil {
		job.Tags = *patch.Tags
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.Department != nil {
		job.Department = *patch.Department
	}
	if patch.Location != nil {
		job.Location = *patch.Location
	}
	if patch.Requirements != nil {
		job.Requirements = *patch.Requirements
	}
	if patch.Salary != nil {
		job.Salary = patch.Salary
	}
	job.UpdatedAt = s.now()

	row, err := jobToRow(job)
	if err != nil {
		return Job{}, err
	}
	res, err := s.db.NamedExec(`
		UPDATE jobs SET title = :title, slug = :slug, status = :status, tags = :tags,
			description = :description, department = :department, location = :location,
			requirements = :requirements, salary = :salary, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return Job{}, fmt.Errorf("failed to update job %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return job, nil
}

// ReorderJob moves a job to toOrder and shifts exactly the affected range,
// keeping order values dense with no duplicates. The move source is the
// job's stored order, not a caller-supplied one.
func (s *Store) ReorderJob(id string, toOrder int) (Job, error) {
	job, err := s.GetJob(id)
	if err != nil {
		return Job{}, err
	}
	count, err := s.CountJobs()
	if err != nil {
		return Job{}, err
	}
	if toOrder < 0 {
		toOrder = 0
	}
	if toOrder > count-1 {
		toOrder = count - 1
	}
	from := job.Order
	if from == toOrder {
		return job, nil
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return Job{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if from < toOrder {
		_, err = tx.Exec("UPDATE jobs SET sort_index = sort_index - 1 WHERE sort_index > ? AND sort_index <= ?", from, toOrder)
	} else {
		_, err = tx.Exec("UPDATE jobs SET sort_index = sort_index + 1 WHERE sort_index >= ? AND sort_index < ?", toOrder, from)
	}
	if err != nil {
		return Job{}, fmt.Errorf("failed to shift job order: %w", err)
	}

	job.Order = toOrder
	job.UpdatedAt = s.now()
	if _, err = tx.Exec("UPDATE jobs SET sort_index = ?, updated_at = ? WHERE id = ?", toOrder, toUnix(job.UpdatedAt), id); err != nil {
		return Job{}, fmt.Errorf("failed to move job %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return Job{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return job, nil
}
