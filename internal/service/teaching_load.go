package service

import "github.com/efvillarin/sis-api/internal/models"

// ScheduleConflict pairs two overlapping slots.
type ScheduleConflict struct {
	A models.Schedule `json:"a"`
	B models.Schedule `json:"b"`
}

// TeachingLoad summarises a teacher's weekly load in hours.
type TeachingLoad struct {
	TeacherID    string             `json:"teacher_id"`
	TotalHours   float64            `json:"total_hours"`
	DailyHours   map[string]float64 `json:"daily_hours"`
	CapHours     float64            `json:"cap_hours"`
	OverCapacity bool               `json:"over_capacity"`
}

// SlotsOverlap reports whether two slots collide: same day and intersecting
// [start, end) intervals. Slots with malformed times never collide.
func SlotsOverlap(a, b models.Schedule) bool {
	if a.Day != b.Day {
		return false
	}
	aStart, aEnd, err := a.Minutes()
	if err != nil {
		return false
	}
	bStart, bEnd, err := b.Minutes()
	if err != nil {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

// FindConflicts returns every colliding pair among the given slots. Intended
// for one teacher's or one section's schedule; quadratic is fine at school
// timetable sizes.
func FindConflicts(schedules []models.Schedule) []ScheduleConflict {
	conflicts := make([]ScheduleConflict, 0)
	for i := 0; i < len(schedules); i++ {
		for j := i + 1; j < len(schedules); j++ {
			if SlotsOverlap(schedules[i], schedules[j]) {
				conflicts = append(conflicts, ScheduleConflict{A: schedules[i], B: schedules[j]})
			}
		}
	}
	return conflicts
}

// ComputeTeachingLoad totals a teacher's weekly hours with a per-day
// breakdown and flags loads above the cap. Malformed slots are skipped.
func ComputeTeachingLoad(teacherID string, schedules []models.Schedule, capHours float64) TeachingLoad {
	load := TeachingLoad{
		TeacherID:  teacherID,
		DailyHours: make(map[string]float64, len(models.ScheduleDays)),
		CapHours:   capHours,
	}
	for _, s := range schedules {
		if s.TeacherID != teacherID {
			continue
		}
		start, end, err := s.Minutes()
		if err != nil {
			continue
		}
		hours := float64(end-start) / 60
		load.DailyHours[s.Day] += hours
		load.TotalHours += hours
	}
	load.OverCapacity = capHours > 0 && load.TotalHours > capHours
	return load
}
