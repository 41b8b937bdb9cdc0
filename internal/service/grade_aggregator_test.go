package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efvillarin/sis-api/internal/models"
)

func f(v float64) *float64 { return &v }

func TestQuarterAverage(t *testing.T) {
	subjects := []models.SubjectGrade{
		{SubjectID: "math", Q1: f(80), Q2: f(85)},
		{SubjectID: "english", Q1: f(90)},
		{SubjectID: "science"},
	}

	avg, ok := QuarterAverage(subjects, 1)
	require.True(t, ok)
	assert.InDelta(t, 85, avg, 0.001)

	avg, ok = QuarterAverage(subjects, 2)
	require.True(t, ok)
	assert.InDelta(t, 85, avg, 0.001)
}

func TestQuarterAverageEmptyQuarterIsNoData(t *testing.T) {
	subjects := []models.SubjectGrade{
		{SubjectID: "math", Q1: f(80)},
		{SubjectID: "english", Q1: f(90)},
	}

	avg, ok := QuarterAverage(subjects, 3)
	assert.False(t, ok)
	assert.Zero(t, avg)

	_, ok = QuarterAverage(nil, 1)
	assert.False(t, ok)
}

func TestSubjectRemarks(t *testing.T) {
	assert.Equal(t, models.RemarksPassed, SubjectRemarks(models.SubjectGrade{Q1: f(75)}))
	assert.Equal(t, models.RemarksPassed, SubjectRemarks(models.SubjectGrade{Q1: f(70), Q2: f(80)}))
	assert.Equal(t, models.RemarksFailed, SubjectRemarks(models.SubjectGrade{Q1: f(74.99)}))
	assert.Equal(t, "", SubjectRemarks(models.SubjectGrade{}))
}

func TestFinalAverage(t *testing.T) {
	subjects := []models.SubjectGrade{
		{SubjectID: "math", Q1: f(80), Q2: f(90)},   // 85
		{SubjectID: "english", Q1: f(70), Q2: f(80)}, // 75
		{SubjectID: "pe"},                            // ignored
	}

	final, ok := FinalAverage(subjects)
	require.True(t, ok)
	assert.InDelta(t, 80, final, 0.001)

	_, ok = FinalAverage([]models.SubjectGrade{{SubjectID: "pe"}})
	assert.False(t, ok)
}

func TestFinalRemarks(t *testing.T) {
	assert.Equal(t, models.RemarksPassed, FinalRemarks(f(75)))
	assert.Equal(t, models.RemarksFailed, FinalRemarks(f(74.5)))
	assert.Equal(t, "", FinalRemarks(nil))
}
