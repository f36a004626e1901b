package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTypeOrdinalsAreStable(t *testing.T) {
	assert.Equal(t, 0, int(Attendance))
	assert.Equal(t, 1, int(Internal1))
	assert.Equal(t, 2, int(Assignment1))
	assert.Equal(t, 3, int(Internal2))
	assert.Equal(t, 4, int(Assignment2))
	assert.Equal(t, 5, int(SemesterExam))
}

func TestParseRecordType(t *testing.T) {
	for n := 0; n <= 5; n++ {
		rt, err := ParseRecordType(n)
		require.NoError(t, err)
		assert.Equal(t, n, int(rt))
	}
	_, err := ParseRecordType(6)
	assert.Error(t, err)
	_, err = ParseRecordType(-1)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		typ   RecordType
		value int
		ok    bool
	}{
		{Attendance, 0, true},
		{Attendance, 1, true},
		{Attendance, 2, false},
		{Internal1, 20, true},
		{Internal1, 21, false},
		{Assignment2, 5, true},
		{Assignment2, 6, false},
		{SemesterExam, 100, true},
		{SemesterExam, -1, false},
	}
	for _, tt := range tests {
		err := tt.typ.Validate(tt.value)
		if tt.ok {
			assert.NoError(t, err, "%s=%d", tt.typ, tt.value)
		} else {
			assert.ErrorIs(t, err, ErrValueOutOfRange, "%s=%d", tt.typ, tt.value)
		}
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "Present", Attendance.FormatValue(1))
	assert.Equal(t, "Absent", Attendance.FormatValue(0))
	assert.Equal(t, "18 / 20", Internal1.FormatValue(18))
	assert.Equal(t, "4 / 5", Assignment1.FormatValue(4))
	assert.Equal(t, "80 / 100", SemesterExam.FormatValue(80))
}
