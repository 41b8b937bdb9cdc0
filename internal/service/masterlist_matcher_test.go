package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efvillarin/sis-api/internal/models"
)

func TestFindMasterlistLegacyStringSection(t *testing.T) {
	masterlists := []models.Masterlist{
		{ID: "m1", Grade: 7, Section: models.SectionRef{SectionName: "Lily"}},
		{ID: "m2", Grade: 7, Section: models.SectionRef{ID: "sec-2", SectionName: "Rose"}},
	}

	found := FindMasterlist(masterlists, 7, "Lily")
	require.NotNil(t, found)
	assert.Equal(t, "m1", found.ID)
	assert.True(t, found.Section.Legacy())

	found = FindMasterlist(masterlists, 7, "Rose")
	require.NotNil(t, found)
	assert.Equal(t, "m2", found.ID)
	assert.False(t, found.Section.Legacy())

	assert.Nil(t, FindMasterlist(masterlists, 8, "Lily"))
	assert.Nil(t, FindMasterlist(nil, 7, "Lily"))
}

func TestFindMasterlistFirstMatchWins(t *testing.T) {
	masterlists := []models.Masterlist{
		{ID: "m1", Grade: 9, Section: models.SectionRef{SectionName: "Orchid"}},
		{ID: "m2", Grade: 9, Section: models.SectionRef{ID: "sec-9", SectionName: "Orchid"}},
	}
	found := FindMasterlist(masterlists, 9, "Orchid")
	require.NotNil(t, found)
	assert.Equal(t, "m1", found.ID)
}

func TestSectionRefUnmarshalBothShapes(t *testing.T) {
	var legacy models.SectionRef
	require.NoError(t, json.Unmarshal([]byte(`"Lily"`), &legacy))
	assert.Equal(t, "Lily", legacy.Name())
	assert.True(t, legacy.Legacy())

	var populated models.SectionRef
	require.NoError(t, json.Unmarshal([]byte(`{"id":"sec-1","section_name":"Lily"}`), &populated))
	assert.Equal(t, "Lily", populated.Name())
	assert.False(t, populated.Legacy())
}

func TestResolveStudentAssignmentMonotonicOR(t *testing.T) {
	ml := &models.Masterlist{Grade: 7, Section: models.SectionRef{SectionName: "Lily"}, StudentUserIDs: []string{"u1"}}

	onRoster := models.Student{ID: "s1", UserID: "u1", EnrollmentStatus: false}
	flagOnly := models.Student{ID: "s2", UserID: "u2", EnrollmentStatus: true}
	neither := models.Student{ID: "s3", UserID: "u3", EnrollmentStatus: false}
	both := models.Student{ID: "s4", UserID: "u1", EnrollmentStatus: true}

	assert.True(t, ResolveStudentAssignment(onRoster, ml, nil).IsEnrolled)
	assert.True(t, ResolveStudentAssignment(flagOnly, ml, nil).IsEnrolled)
	assert.False(t, ResolveStudentAssignment(neither, ml, nil).IsEnrolled)
	assert.True(t, ResolveStudentAssignment(both, ml, nil).IsEnrolled)

	// disagreement is surfaced, never hidden by the OR
	assert.True(t, ResolveStudentAssignment(onRoster, ml, nil).SignalsDisagree)
	assert.True(t, ResolveStudentAssignment(flagOnly, ml, nil).SignalsDisagree)
	assert.False(t, ResolveStudentAssignment(both, ml, nil).SignalsDisagree)
}

func TestResolveStudentAssignmentSectionFallback(t *testing.T) {
	secID := "sec-1"
	sections := []models.Section{
		{ID: "sec-1", GradeLevel: 7, SectionName: "Lily"},
		{ID: "sec-2", GradeLevel: 7, SectionName: "Rose"},
	}

	// legacy masterlist names the section; roster member resolves through it
	ml := &models.Masterlist{Grade: 7, Section: models.SectionRef{SectionName: "Lily"}, StudentUserIDs: []string{"u1"}}
	rostered := models.Student{ID: "s1", UserID: "u1"}
	got := ResolveStudentAssignment(rostered, ml, sections)
	require.True(t, got.HasAssignedSection)
	assert.Equal(t, "sec-1", got.AssignedSection.ID)

	// off-roster student falls back to Student.SectionID
	offRoster := models.Student{ID: "s2", UserID: "u2", SectionID: &secID}
	got = ResolveStudentAssignment(offRoster, ml, sections)
	require.True(t, got.HasAssignedSection)
	assert.Equal(t, "Lily", got.AssignedSection.SectionName)

	// no signals at all
	got = ResolveStudentAssignment(models.Student{ID: "s3", UserID: "u3"}, nil, sections)
	assert.False(t, got.HasAssignedSection)
	assert.Nil(t, got.AssignedSection)
}

func TestGroupSectionsByGradeSorted(t *testing.T) {
	sections := []models.Section{
		{ID: "a", GradeLevel: 7, SectionName: "Rose"},
		{ID: "b", GradeLevel: 7, SectionName: "Lily"},
		{ID: "c", GradeLevel: 8, SectionName: "Emerald"},
	}

	grouped := GroupSectionsByGrade(sections)
	require.Len(t, grouped[7], 2)
	assert.Equal(t, "Lily", grouped[7][0].SectionName)
	assert.Equal(t, "Rose", grouped[7][1].SectionName)
	require.Len(t, grouped[8], 1)
}
