package service

import (
	"math"

	"github.com/efvillarin/sis-api/internal/models"
)

// Grade derivations over the sparse per-subject quarter matrix. A quarter or
// subject without any posted marks yields ok=false / empty remarks, which is
// a distinct state from a grade of zero.

// QuarterAverage computes the arithmetic mean of quarter n across subjects
// that have a mark for it. ok is false when no subject has one.
func QuarterAverage(subjects []models.SubjectGrade, quarter int) (float64, bool) {
	sum := 0.0
	count := 0
	for _, sg := range subjects {
		if v := sg.Quarter(quarter); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return round2(sum / float64(count)), true
}

// SubjectAverage computes the mean of a subject's posted quarters.
// ok is false when the subject has no marks at all.
func SubjectAverage(sg models.SubjectGrade) (float64, bool) {
	sum := 0.0
	count := 0
	for q := 1; q <= 4; q++ {
		if v := sg.Quarter(q); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return round2(sum / float64(count)), true
}

// SubjectRemarks returns PASSED/FAILED by the subject average against the
// passing cutoff, or empty when the subject has no marks yet.
func SubjectRemarks(sg models.SubjectGrade) string {
	avg, ok := SubjectAverage(sg)
	if !ok {
		return ""
	}
	if avg >= models.PassingGrade {
		return models.RemarksPassed
	}
	return models.RemarksFailed
}

// FinalAverage computes the general average: mean of subject averages over
// subjects with at least one mark. ok is false when nothing is posted.
func FinalAverage(subjects []models.SubjectGrade) (float64, bool) {
	sum := 0.0
	count := 0
	for _, sg := range subjects {
		if avg, graded := SubjectAverage(sg); graded {
			sum += avg
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return round2(sum / float64(count)), true
}

// FinalRemarks applies the same passing cutoff to a final average.
func FinalRemarks(final *float64) string {
	if final == nil {
		return ""
	}
	if *final >= models.PassingGrade {
		return models.RemarksPassed
	}
	return models.RemarksFailed
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
