package service

import (
	"sort"

	"github.com/efvillarin/sis-api/internal/models"
)

// StudentAssignment is the reconciled view of where a student stands
// relative to a masterlist.
type StudentAssignment struct {
	// IsEnrolled is the union of two independent signals: roster membership
	// and the denormalized Student.EnrollmentStatus flag.
	IsEnrolled bool `json:"is_enrolled"`
	// SignalsDisagree flags rosters and the denormalized flag contradicting
	// each other, so callers can surface the inconsistency instead of
	// silently trusting the OR.
	SignalsDisagree    bool            `json:"signals_disagree"`
	AssignedSection    *models.Section `json:"assigned_section,omitempty"`
	HasAssignedSection bool            `json:"has_assigned_section"`
}

// FindMasterlist locates the first masterlist matching the grade and the
// normalized section name. Legacy records store the section as a raw name
// string and newer records as a populated reference; SectionRef.Name() hides
// the difference. First match wins.
func FindMasterlist(masterlists []models.Masterlist, grade int, sectionName string) *models.Masterlist {
	for i := range masterlists {
		m := &masterlists[i]
		if m.Grade == grade && m.Section.Name() == sectionName {
			found := *m
			return &found
		}
	}
	return nil
}

// ResolveStudentAssignment derives a student's enrollment/assignment status
// relative to a masterlist. Roster membership is authoritative for section
// attribution; Student.SectionID resolved through the sections table is the
// fallback when the student is not on the roster.
func ResolveStudentAssignment(student models.Student, masterlist *models.Masterlist, sections []models.Section) StudentAssignment {
	onRoster := masterlist != nil && masterlist.HasStudent(student.UserID)

	assignment := StudentAssignment{
		IsEnrolled:      onRoster || student.EnrollmentStatus,
		SignalsDisagree: masterlist != nil && onRoster != student.EnrollmentStatus,
	}

	if onRoster {
		assignment.AssignedSection = sectionByName(sections, masterlist.Grade, masterlist.Section.Name())
	}
	if assignment.AssignedSection == nil && student.SectionID != nil {
		assignment.AssignedSection = sectionByID(sections, *student.SectionID)
	}
	assignment.HasAssignedSection = assignment.AssignedSection != nil

	return assignment
}

// GroupSectionsByGrade buckets sections per grade level, section names
// sorted lexicographically within each bucket.
func GroupSectionsByGrade(sections []models.Section) map[int][]models.Section {
	grouped := make(map[int][]models.Section)
	for _, s := range sections {
		grouped[s.GradeLevel] = append(grouped[s.GradeLevel], s)
	}
	for grade := range grouped {
		bucket := grouped[grade]
		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].SectionName < bucket[j].SectionName
		})
		grouped[grade] = bucket
	}
	return grouped
}

func sectionByName(sections []models.Section, grade int, name string) *models.Section {
	for i := range sections {
		if sections[i].GradeLevel == grade && sections[i].SectionName == name {
			found := sections[i]
			return &found
		}
	}
	return nil
}

func sectionByID(sections []models.Section, id string) *models.Section {
	for i := range sections {
		if sections[i].ID == id {
			found := sections[i]
			return &found
		}
	}
	return nil
}
