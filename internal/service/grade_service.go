package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/export"
)

type gradeRepository interface {
	FindByStudentAndYear(ctx context.Context, studentID, schoolYear string) (*models.Grade, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	UpsertSubjectMark(ctx context.Context, gradeID, subjectID string, quarter int, value float64) error
	UpdateSummary(ctx context.Context, gradeID string, finalGrade *float64, remarks, comment string) error
}

type gradeSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type gradeStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type gradeUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type reportCardRenderer interface {
	RenderWithHeader(data export.Dataset, title string, header [][2]string) ([]byte, error)
}

// PostMarkInput is one quarter mark submission.
type PostMarkInput struct {
	StudentID  string  `json:"student_id" validate:"required"`
	SchoolYear string  `json:"school_year" validate:"required"`
	SubjectID  string  `json:"subject_id" validate:"required"`
	Quarter    int     `json:"quarter" validate:"required,min=1,max=4"`
	Value      float64 `json:"value" validate:"min=0,max=100"`
}

// ReportCard is the derived view of a grade record.
type ReportCard struct {
	Grade           models.Grade        `json:"grade"`
	QuarterAverages map[int]*float64    `json:"quarter_averages"`
	SubjectAverages map[string]*float64 `json:"subject_averages"`
	SubjectRemarks  map[string]string   `json:"subject_remarks"`
	FinalAverage    *float64            `json:"final_average,omitempty"`
	FinalRemarks    string              `json:"final_remarks,omitempty"`
}

// GradeService manages quarterly marks and derives report cards.
type GradeService struct {
	repo      gradeRepository
	subjects  gradeSubjectReader
	students  gradeStudentReader
	users     gradeUserReader
	pdf       reportCardRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService instance.
func NewGradeService(
	repo gradeRepository,
	subjects gradeSubjectReader,
	students gradeStudentReader,
	users gradeUserReader,
	pdf reportCardRenderer,
	validate *validator.Validate,
	logger *zap.Logger,
) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GradeService{
		repo:      repo,
		subjects:  subjects,
		students:  students,
		users:     users,
		pdf:       pdf,
		validator: validate,
		logger:    logger,
	}
}

// PostMark records one quarter mark. Only a teacher assigned to the subject
// may post; posting recomputes and persists the record summary.
func (s *GradeService) PostMark(ctx context.Context, teacherID string, input PostMarkInput) (*models.Grade, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	subject, err := s.subjects.FindByID(ctx, input.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if !subject.HasTeacher(teacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher is not assigned to this subject")
	}

	if _, err := s.students.FindByID(ctx, input.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grade, err := s.repo.FindByStudentAndYear(ctx, input.StudentID, input.SchoolYear)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade record")
		}
		grade = &models.Grade{StudentID: input.StudentID, SchoolYear: input.SchoolYear}
		if err := s.repo.Create(ctx, grade); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade record")
		}
	}

	if err := s.repo.UpsertSubjectMark(ctx, grade.ID, input.SubjectID, input.Quarter, input.Value); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record mark")
	}

	grade, err = s.repo.FindByStudentAndYear(ctx, input.StudentID, input.SchoolYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload grade record")
	}

	var final *float64
	if avg, ok := FinalAverage(grade.Subjects); ok {
		final = &avg
	}
	remarks := FinalRemarks(final)
	if err := s.repo.UpdateSummary(ctx, grade.ID, final, remarks, grade.Comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade summary")
	}
	grade.FinalGrade = final
	grade.Remarks = remarks

	s.logger.Info("mark posted",
		zap.String("grade_id", grade.ID),
		zap.String("subject_id", input.SubjectID),
		zap.Int("quarter", input.Quarter))
	return grade, nil
}

// SetComment stores the adviser's comment on a grade record.
func (s *GradeService) SetComment(ctx context.Context, studentID, schoolYear, comment string) (*models.Grade, error) {
	grade, err := s.repo.FindByStudentAndYear(ctx, studentID, schoolYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade record")
	}
	if err := s.repo.UpdateSummary(ctx, grade.ID, grade.FinalGrade, grade.Remarks, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade record")
	}
	grade.Comment = comment
	return grade, nil
}

// ReportCard derives the quarter/subject/final averages for a student's
// record. When requested by the student themselves, visibility is gated on
// the enrollment flag: records of unenrolled students stay hidden.
func (s *GradeService) ReportCard(ctx context.Context, requesterUserID, studentID, schoolYear string, selfView bool) (*ReportCard, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if selfView {
		if student.UserID != requesterUserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "grades belong to another student")
		}
		if !student.EnrollmentStatus {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "grades are available to enrolled students only")
		}
	}

	grade, err := s.repo.FindByStudentAndYear(ctx, studentID, schoolYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no grade record for this school year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade record")
	}

	return buildReportCard(grade), nil
}

// ExportPDF renders a report card as a PDF document.
func (s *GradeService) ExportPDF(ctx context.Context, studentID, schoolYear string) ([]byte, string, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grade, err := s.repo.FindByStudentAndYear(ctx, studentID, schoolYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "no grade record for this school year")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade record")
	}

	studentName := student.LRN
	if user, err := s.users.FindByID(ctx, student.UserID); err == nil {
		studentName = user.FullName()
	}

	card := buildReportCard(grade)
	dataset := export.Dataset{
		Headers: []string{"Subject", "Q1", "Q2", "Q3", "Q4", "Average", "Remarks"},
	}
	for _, sg := range grade.Subjects {
		row := map[string]string{
			"Subject": sg.SubjectName,
			"Q1":      formatMark(sg.Q1),
			"Q2":      formatMark(sg.Q2),
			"Q3":      formatMark(sg.Q3),
			"Q4":      formatMark(sg.Q4),
			"Average": formatMark(card.SubjectAverages[sg.SubjectID]),
			"Remarks": card.SubjectRemarks[sg.SubjectID],
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	header := [][2]string{
		{"Student", studentName},
		{"LRN", student.LRN},
		{"Grade Level", strconv.Itoa(student.GradeLevel)},
		{"School Year", schoolYear},
		{"General Average", formatMark(card.FinalAverage)},
		{"Remarks", card.FinalRemarks},
	}

	payload, err := s.pdf.RenderWithHeader(dataset, "Report Card", header)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report card")
	}

	filename := fmt.Sprintf("report-card-%s-%s.pdf", student.LRN, schoolYear)
	return payload, filename, nil
}

func buildReportCard(grade *models.Grade) *ReportCard {
	card := &ReportCard{
		Grade:           *grade,
		QuarterAverages: make(map[int]*float64, 4),
		SubjectAverages: make(map[string]*float64, len(grade.Subjects)),
		SubjectRemarks:  make(map[string]string, len(grade.Subjects)),
	}

	for q := 1; q <= 4; q++ {
		if avg, ok := QuarterAverage(grade.Subjects, q); ok {
			v := avg
			card.QuarterAverages[q] = &v
		} else {
			card.QuarterAverages[q] = nil
		}
	}
	for _, sg := range grade.Subjects {
		if avg, ok := SubjectAverage(sg); ok {
			v := avg
			card.SubjectAverages[sg.SubjectID] = &v
		} else {
			card.SubjectAverages[sg.SubjectID] = nil
		}
		card.SubjectRemarks[sg.SubjectID] = SubjectRemarks(sg)
	}
	if avg, ok := FinalAverage(grade.Subjects); ok {
		v := avg
		card.FinalAverage = &v
		card.FinalRemarks = FinalRemarks(&v)
	}
	return card
}

func formatMark(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
