package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDropsCourseWithNoStudents(t *testing.T) {
	result, err := Process(Course{ID: "c1", RegisteredStudents: 0, TotalSemesterSessions: 10}, 16, 60, 3)
	require.NoError(t, err)
	assert.Empty(t, result.Groups)
}

func TestProcessDropsCourseWithNoSessions(t *testing.T) {
	result, err := Process(Course{ID: "c1", RegisteredStudents: 30, TotalSemesterSessions: 0}, 16, 60, 3)
	require.NoError(t, err)
	assert.Empty(t, result.Groups)
}

func TestProcessPicksSmallestFittingSessionsPerWeek(t *testing.T) {
	// 16 sessions in a 16-week semester fit at k=1 (W=16).
	result, err := Process(Course{ID: "c1", RegisteredStudents: 30, TotalSemesterSessions: 16}, 16, 60, 3)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, 1, result.Groups[0].SessionsPerWeek)
	assert.Equal(t, 16, result.Groups[0].CourseWeeks)
}

func TestProcessIncreasesSessionsPerWeekWhenSemesterIsShort(t *testing.T) {
	// 32 sessions must use k=2 to fit a 16-week semester (W=16).
	result, err := Process(Course{ID: "c1", RegisteredStudents: 30, TotalSemesterSessions: 32}, 16, 60, 3)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, 2, result.Groups[0].SessionsPerWeek)
	assert.Equal(t, 16, result.Groups[0].CourseWeeks)
}

func TestProcessReturnsFitErrorWhenNoKFits(t *testing.T) {
	// 100 sessions can never fit 10 weeks even at the maximum allowed
	// sessions-per-week of 3 (ceil(100/3)=34 > 10).
	_, err := Process(Course{ID: "c1", RegisteredStudents: 30, TotalSemesterSessions: 100}, 10, 60, 3)
	require.Error(t, err)
	var fitErr *FitError
	assert.ErrorAs(t, err, &fitErr)
	assert.Equal(t, "c1", fitErr.CourseID)
}

func TestProcessSplitsGroupsByTargetSize(t *testing.T) {
	// 130 students at a target of 60 per group needs ceil(130/60) = 3 groups.
	result, err := Process(Course{ID: "c1", RegisteredStudents: 130, TotalSemesterSessions: 16}, 16, 60, 3)
	require.NoError(t, err)
	require.Len(t, result.Groups, 3)

	total := 0
	for i, g := range result.Groups {
		assert.Equal(t, i+1, g.GroupNumber)
		total += g.StudentCount
	}
	assert.Equal(t, 130, total)
}

func TestProcessAssignsSequentialSessionNumbers(t *testing.T) {
	result, err := Process(Course{ID: "c1", RegisteredStudents: 30, TotalSemesterSessions: 5}, 16, 60, 3)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	require.Len(t, result.Groups[0].Sessions, 5)
	for i, s := range result.Groups[0].Sessions {
		assert.Equal(t, i+1, s.SequenceNumber)
	}
}
