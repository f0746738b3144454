package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVocab(t *testing.T) {
	v, err := loadVocab()
	require.NoError(t, err)

	assert.Len(t, v.JobTitles, 25)
	assert.Len(t, v.Departments, 7)
	assert.Len(t, v.Locations, 6)
	assert.NotEmpty(t, v.TechTags)
	assert.NotEmpty(t, v.DesignTags)
	assert.NotEmpty(t, v.BusinessTags)
	assert.Len(t, v.FirstNames, 20)
	assert.Len(t, v.LastNames, 20)
	assert.Contains(t, v.StageNotes, "applied")
}

func TestValidateRequiredFields(t *testing.T) {
	v, err := loadVocab()
	require.NoError(t, err)
	require.NoError(t, validateRequiredFields(v))

	broken := *v
	broken.Departments = nil
	require.Error(t, validateRequiredFields(&broken))

	broken = *v
	broken.StageNotes = nil
	require.Error(t, validateRequiredFields(&broken))
}
