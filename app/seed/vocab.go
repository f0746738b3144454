package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed vocab.yml
var embeddedVocabData []byte

//go:embed schema.json
var embeddedSchemaData []byte

// Vocab holds the fixed vocabularies the generator samples from.
// Which tag list a job draws on is decided by its department.
type Vocab struct {
	JobTitles    []string          `yaml:"job_titles" json:"job_titles" jsonschema:"required"`
	Departments  []string          `yaml:"departments" json:"departments" jsonschema:"required"`
	Locations    []string          `yaml:"locations" json:"locations" jsonschema:"required"`
	TechTags     []string          `yaml:"tech_tags" json:"tech_tags" jsonschema:"required"`
	DesignTags   []string          `yaml:"design_tags" json:"design_tags" jsonschema:"required"`
	BusinessTags []string          `yaml:"business_tags" json:"business_tags" jsonschema:"required"`
	FirstNames   []string          `yaml:"first_names" json:"first_names" jsonschema:"required"`
	LastNames    []string          `yaml:"last_names" json:"last_names" jsonschema:"required"`
	StageNotes   map[string]string `yaml:"stage_notes" json:"stage_notes" jsonschema:"required"`
}

// loadVocab parses the embedded vocabulary file and validates it
func loadVocab() (*Vocab, error) {
	var v Vocab
	if err := yaml.Unmarshal(embeddedVocabData, &v); err != nil {
		return nil, fmt.Errorf("parse embedded vocabulary: %w", err)
	}
	if err := verifyAgainstEmbeddedSchema(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// verifyAgainstEmbeddedSchema validates the vocabulary against the embedded JSON schema
func verifyAgainstEmbeddedSchema(v *Vocab) error {
	// parse embedded schema
	var schema map[string]interface{}
	if err := json.Unmarshal(embeddedSchemaData, &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	if err := validateRequiredFields(v); err != nil {
		return fmt.Errorf("vocabulary validation failed: %w", err)
	}
	return nil
}

// validateRequiredFields performs basic validation of required vocabulary lists
func validateRequiredFields(v *Vocab) error {
	lists := map[string][]string{
		"job_titles":    v.JobTitles,
		"departments":   v.Departments,
		"locations":     v.Locations,
		"tech_tags":     v.TechTags,
		"design_tags":   v.DesignTags,
		"business_tags": v.BusinessTags,
		"first_names":   v.FirstNames,
		"last_names":    v.LastNames,
	}
	for name, list := range lists {
		if len(list) == 0 {
			return fmt.Errorf("vocabulary list %q must not be empty", name)
		}
	}
	if len(v.StageNotes) == 0 {
		return fmt.Errorf("stage_notes must not be empty")
	}
	return nil
}
