package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efvillarin/sis-api/internal/models"
)

func slot(id, teacher, day, start, end string) models.Schedule {
	return models.Schedule{ID: id, TeacherID: teacher, Day: day, StartTime: start, EndTime: end}
}

func TestSlotsOverlap(t *testing.T) {
	a := slot("a", "t1", "Monday", "08:00", "09:00")

	assert.True(t, SlotsOverlap(a, slot("b", "t1", "Monday", "08:30", "09:30")))
	assert.False(t, SlotsOverlap(a, slot("c", "t1", "Monday", "09:00", "10:00"))) // touching, not overlapping
	assert.False(t, SlotsOverlap(a, slot("d", "t1", "Tuesday", "08:00", "09:00")))
	assert.False(t, SlotsOverlap(a, slot("e", "t1", "Monday", "bad", "09:00")))
}

func TestFindConflicts(t *testing.T) {
	schedules := []models.Schedule{
		slot("a", "t1", "Monday", "08:00", "09:00"),
		slot("b", "t1", "Monday", "08:30", "09:30"),
		slot("c", "t1", "Monday", "10:00", "11:00"),
	}

	conflicts := FindConflicts(schedules)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "a", conflicts[0].A.ID)
	assert.Equal(t, "b", conflicts[0].B.ID)

	assert.Empty(t, FindConflicts(nil))
}

func TestComputeTeachingLoad(t *testing.T) {
	schedules := []models.Schedule{
		slot("a", "t1", "Monday", "08:00", "10:00"),
		slot("b", "t1", "Monday", "13:00", "14:30"),
		slot("c", "t1", "Tuesday", "08:00", "09:00"),
		slot("d", "t2", "Monday", "08:00", "12:00"), // other teacher, ignored
	}

	load := ComputeTeachingLoad("t1", schedules, 30)
	assert.InDelta(t, 4.5, load.TotalHours, 0.001)
	assert.InDelta(t, 3.5, load.DailyHours["Monday"], 0.001)
	assert.InDelta(t, 1.0, load.DailyHours["Tuesday"], 0.001)
	assert.False(t, load.OverCapacity)
}

func TestComputeTeachingLoadOverCap(t *testing.T) {
	schedules := []models.Schedule{
		slot("a", "t1", "Monday", "07:00", "17:00"),
		slot("b", "t1", "Tuesday", "07:00", "17:00"),
		slot("c", "t1", "Wednesday", "07:00", "17:00"),
		slot("d", "t1", "Thursday", "07:00", "09:00"),
	}

	load := ComputeTeachingLoad("t1", schedules, 30)
	assert.InDelta(t, 32, load.TotalHours, 0.001)
	assert.True(t, load.OverCapacity)

	uncapped := ComputeTeachingLoad("t1", schedules, 0)
	assert.False(t, uncapped.OverCapacity)
}
