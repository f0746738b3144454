// Package seed produces the synthetic dataset populating the store on first
// launch. Content is randomized from fixed vocabularies but referentially
// consistent: every candidate references a generated job, timelines follow
// the canonical stage progression, and job order values are dense.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/talentflow/talentflow/app/store"
)

// generation defaults
const (
	DefaultJobs           = 25
	DefaultCandidates     = 1000
	DefaultAssessmentRate = 0.7

	jobLookbackDays       = 90
	candidateLookbackDays = 60
	stageStepDays         = 2 // timeline entries advance by this many days per stage
)

// Config holds generator parameters. Zero values fall back to defaults.
type Config struct {
	Jobs           int
	Candidates     int
	AssessmentRate float64
	Rand           *rand.Rand       // source for all randomness, seedable for reproducible output
	Now            func() time.Time // time source, defaults to time.Now
}

// Generator produces the synthetic dataset. All randomness flows from a
// single injectable source, so a fixed seed yields a reproducible dataset.
type Generator struct {
	vocab          *Vocab
	rnd            *rand.Rand
	now            func() time.Time
	jobs           int
	candidates     int
	assessmentRate float64
}

// New creates a generator with the embedded vocabularies
func New(cfg Config) (*Generator, error) {
	vocab, err := loadVocab()
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}

	g := &Generator{
		vocab:          vocab,
		rnd:            cfg.Rand,
		now:            cfg.Now,
		jobs:           cfg.Jobs,
		candidates:     cfg.Candidates,
		assessmentRate: cfg.AssessmentRate,
	}
	if g.rnd == nil {
		g.rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // synthetic data, not security sensitive
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.jobs <= 0 {
		g.jobs = DefaultJobs
	}
	if g.candidates <= 0 {
		g.candidates = DefaultCandidates
	}
	if g.assessmentRate <= 0 {
		g.assessmentRate = DefaultAssessmentRate
	}
	return g, nil
}

// Seed populates the store on first run. It is idempotent: a store with any
// jobs already present is left untouched. On bulk-insert failure it logs and
// aborts without retry, partial state is accepted for this tool.
func (g *Generator) Seed(st *store.Store) error {
	count, err := st.CountJobs()
	if err != nil {
		return fmt.Errorf("failed to check existing data: %w", err)
	}
	if count > 0 {
		log.Printf("[DEBUG] store already seeded with %d jobs, skipping", count)
		return nil
	}

	log.Printf("[INFO] seeding store with %d jobs and %d candidates", g.jobs, g.candidates)

	jobs := g.Jobs()
	if err := st.BulkInsertJobs(jobs); err != nil {
		log.Printf("[WARN] seeding aborted on jobs: %v", err)
		return fmt.Errorf("failed to seed jobs: %w", err)
	}

	candidates := g.Candidates(jobs)
	if err := st.BulkInsertCandidates(candidates); err != nil {
		log.Printf("[WARN] seeding aborted on candidates: %v", err)
		return fmt.Errorf("failed to seed candidates: %w", err)
	}

	assessments := g.Assessments(jobs)
	if err := st.BulkInsertAssessments(assessments); err != nil {
		log.Printf("[WARN] seeding aborted on assessments: %v", err)
		return fmt.Errorf("failed to seed assessments: %w", err)
	}

	log.Printf("[INFO] seeded %d jobs, %d candidates, %d assessments", len(jobs), len(candidates), len(assessments))
	return nil
}

// Jobs generates job postings with dense 0..N-1 order values
func (g *Generator) Jobs() []store.Job {
	jobs := make([]store.Job, 0, g.jobs)
	for i := 0; i < g.jobs; i++ {
		title := g.choice(g.vocab.JobTitles)
		department := g.choice(g.vocab.Departments)
		location := g.choice(g.vocab.Locations)
		tags := g.choices(g.tagsFor(department), g.rnd.Intn(4)+2)

		status := store.JobStatusActive
		if g.rnd.Float64() <= 0.3 {
			status = store.JobStatusArchived
		}

		displayTitle, slug := title, slugify(title)
		if i > 0 {
			displayTitle = fmt.Sprintf("%s (%d)", title, i+1)
			slug = fmt.Sprintf("%s-%d", slug, i+1)
		}

		jobs = append(jobs, store.Job{
			ID:          g.newID(),
			Title:       displayTitle,
			Slug:        slug,
			Status:      status,
			Tags:        tags,
			Order:       i,
			Description: fmt.Sprintf("We are looking for an experienced %s to join our %s team. This is an exciting opportunity to work with cutting-edge technologies and make a significant impact on our product.", title, department),
			Department:  department,
			Location:    location,
			Requirements: []string{
				fmt.Sprintf("5+ years of experience in %s", strings.ToLower(title)),
				"Strong communication and teamwork skills",
				"Experience with agile development methodologies",
				fmt.Sprintf("Proficiency in %s", strings.Join(tags[:min(2, len(tags))], " and ")),
			},
			// min and max are generated independently, ordering is not guaranteed
			Salary: &store.Salary{
				Min:      80000 + g.rnd.Intn(50000),
				Max:      120000 + g.rnd.Intn(80000),
				Currency: "USD",
			},
			CreatedAt: g.randDate(jobLookbackDays),
		})
	}
	return jobs
}

// Candidates generates applicants referencing the given jobs. Each timeline
// covers every canonical stage from applied through the candidate's terminal
// stage, with timestamps advancing by a fixed step per stage.
func (g *Generator) Candidates(jobs []store.Job) []store.Candidate {
	stages := store.Stages()
	candidates := make([]store.Candidate, 0, g.candidates)
	for i := 0; i < g.candidates; i++ {
		first := g.choice(g.vocab.FirstNames)
		last := g.choice(g.vocab.LastNames)
		stage := stages[g.rnd.Intn(len(stages))]
		appliedAt := g.randDate(candidateLookbackDays)

		candidates = append(candidates, store.Candidate{
			ID:        g.newID(),
			Name:      first + " " + last,
			Email:     strings.ToLower(first) + "." + strings.ToLower(last) + "@email.com",
			Phone:     fmt.Sprintf("+1 (555) %d-%d", g.rnd.Intn(900)+100, g.rnd.Intn(9000)+1000),
			Stage:     stage,
			JobID:     jobs[g.rnd.Intn(len(jobs))].ID,
			AppliedAt: appliedAt,
			Rating:    g.rnd.Intn(5) + 1,
			Notes:     []store.Note{},
			Timeline:  g.timeline(stage, appliedAt),
			Skills:    g.choices(g.vocab.TechTags, g.rnd.Intn(5)+2),
			CreatedAt: appliedAt,
		})
	}
	return candidates
}

// timeline synthesizes one entry per canonical stage from applied up to and
// including the terminal stage, monotonically increasing in timestamp
func (g *Generator) timeline(terminal store.Stage, appliedAt time.Time) []store.TimelineEntry {
	stages := store.Stages()
	entries := []store.TimelineEntry{{
		ID:        g.newID(),
		Stage:     store.StageApplied,
		Timestamp: appliedAt,
		Note:      g.stageNote(store.StageApplied),
		UserID:    "system",
		UserName:  "System",
	}}

	for j := 1; j < len(stages); j++ {
		if stages[j-1] == terminal {
			break
		}
		entries = append(entries, store.TimelineEntry{
			ID:        g.newID(),
			Stage:     stages[j],
			Timestamp: appliedAt.Add(time.Duration(j) * stageStepDays * 24 * time.Hour),
			Note:      g.stageNote(stages[j]),
			UserID:    "hr-1",
			UserName:  "HR Team",
		})
	}
	return entries
}

// Assessments generates one assessment for roughly assessmentRate of the jobs
func (g *Generator) Assessments(jobs []store.Job) []store.Assessment {
	assessments := make([]store.Assessment, 0, len(jobs))
	for _, job := range jobs {
		if g.rnd.Float64() >= g.assessmentRate {
			continue
		}
		assessments = append(assessments, store.Assessment{
			ID:          g.newID(),
			JobID:       job.ID,
			Title:       job.Title + " Assessment",
			Description: fmt.Sprintf("Technical and behavioral assessment for %s position", job.Title),
			Sections:    g.sections(job),
			IsActive:    job.Status == store.JobStatusActive,
			TimeLimit:   g.rnd.Intn(60) + 30,
			CreatedAt:   job.CreatedAt,
		})
	}
	return assessments
}

// sections builds the fixed section set: technical, behavioral, and a coding
// challenge for Engineering jobs only
func (g *Generator) sections(job store.Job) []store.Section {
	sections := []store.Section{
		{
			ID:          g.newID(),
			Title:       "Technical Knowledge",
			Description: "Evaluate technical skills and experience",
			Questions:   g.technicalQuestions(job.Tags),
		},
		{
			ID:          g.newID(),
			Title:       "Behavioral Assessment",
			Description: "Assess soft skills and cultural fit",
			Questions:   g.behavioralQuestions(),
		},
	}
	if job.Department == "Engineering" {
		sections = append(sections, store.Section{
			ID:          g.newID(),
			Title:       "Coding Challenge",
			Description: "Practical coding assessment",
			Questions:   g.codingQuestions(),
		})
	}
	return sections
}

func (g *Generator) technicalQuestions(tags []string) []store.Question {
	return []store.Question{
		{
			ID:       g.newID(),
			Type:     store.QuestionSingleChoice,
			Title:    fmt.Sprintf("What is your experience level with %s?", tags[0]),
			Required: true,
			Options:  []string{"Beginner (0-1 years)", "Intermediate (2-4 years)", "Advanced (5-7 years)", "Expert (8+ years)"},
		},
		{
			ID:       g.newID(),
			Type:     store.QuestionMultiChoice,
			Title:    "Which technologies have you worked with? (Select all that apply)",
			Required: true,
			Options:  append(append([]string{}, tags...), "Git", "CI/CD", "Testing", "Docker"),
		},
		{
			ID:         g.newID(),
			Type:       store.QuestionLongText,
			Title:      "Describe a challenging technical problem you solved recently",
			Required:   true,
			Validation: &store.Validation{MinLength: 100, MaxLength: 1000},
		},
	}
}

func (g *Generator) behavioralQuestions() []store.Question {
	return []store.Question{
		{
			ID:         g.newID(),
			Type:       store.QuestionLongText,
			Title:      "Tell us about a time when you had to work with a difficult team member",
			Required:   true,
			Validation: &store.Validation{MinLength: 50, MaxLength: 500},
		},
		{
			ID:       g.newID(),
			Type:     store.QuestionSingleChoice,
			Title:    "How do you prefer to receive feedback?",
			Required: true,
			Options:  []string{"Regular one-on-ones", "Written feedback", "Immediate verbal feedback", "Peer reviews"},
		},
	}
}

func (g *Generator) codingQuestions() []store.Question {
	return []store.Question{
		{
			ID:         g.newID(),
			Type:       store.QuestionLongText,
			Title:      "Write a function that reverses a string without using built-in reverse methods",
			Required:   true,
			Validation: &store.Validation{MinLength: 50, MaxLength: 2000},
		},
		{
			ID:       g.newID(),
			Type:     store.QuestionFile,
			Title:    "Upload your solution to the coding challenge (if you prefer to code in your IDE)",
			Required: false,
		},
	}
}

// tagsFor picks the tag vocabulary for a department
func (g *Generator) tagsFor(department string) []string {
	switch department {
	case "Design":
		return g.vocab.DesignTags
	case "Product", "Marketing", "Sales", "HR":
		return g.vocab.BusinessTags
	default:
		return g.vocab.TechTags
	}
}

func (g *Generator) stageNote(stage store.Stage) string {
	if note, ok := g.vocab.StageNotes[string(stage)]; ok {
		return note
	}
	return "Status updated"
}

// newID derives a uuid from the generator's random source, keeping ids
// reproducible under a fixed seed
func (g *Generator) newID() string {
	id, err := uuid.NewRandomFromReader(g.rnd)
	if err != nil {
		return uuid.New().String() // never happens with a rand.Rand reader
	}
	return id.String()
}

func (g *Generator) choice(list []string) string {
	return list[g.rnd.Intn(len(list))]
}

// choices returns up to count distinct elements in random order
func (g *Generator) choices(list []string, count int) []string {
	shuffled := append([]string{}, list...)
	g.rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:min(count, len(shuffled))]
}

// randDate returns a random time within daysBack days before now
func (g *Generator) randDate(daysBack int) time.Time {
	offset := time.Duration(g.rnd.Float64() * float64(daysBack) * 24 * float64(time.Hour))
	return g.now().Add(-offset)
}

func slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
