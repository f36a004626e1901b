package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeachers(t *testing.T) *TeacherStore {
	t.Helper()
	s := NewTeacherStore()
	for _, id := range []string{"T2", "T1", "T3"} {
		_, err := s.Insert(id, "Teacher "+id, "pw-"+id, "Math")
		require.NoError(t, err)
	}
	return s
}

func TestTeacherInsertFindAndDuplicate(t *testing.T) {
	s := newTeachers(t)
	assert.Equal(t, 3, s.Len())

	tt := s.Find("T1")
	require.NotNil(t, tt)
	assert.Equal(t, "Teacher T1", tt.Name)
	assert.Equal(t, 0, tt.FailedAttempts)

	_, err := s.Insert("T1", "Other", "x", "Art")
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, "Teacher T1", s.Find("T1").Name)
	assert.Equal(t, 3, s.Len())

	var ids []string
	s.Walk(func(t *Teacher) bool {
		ids = append(ids, t.ID())
		return true
	})
	assert.Equal(t, []string{"T1", "T2", "T3"}, ids)

	ids = nil
	s.WalkPreOrder(func(t *Teacher) bool {
		ids = append(ids, t.ID())
		return true
	})
	assert.Equal(t, []string{"T2", "T1", "T3"}, ids)
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	s := newTeachers(t)
	auth := NewAuthenticator(s)

	_, err := auth.Login("T1", "wrong")
	require.Error(t, err)
	assert.Equal(t, 1, s.Find("T1").FailedAttempts)

	sess, err := auth.Login("T1", "pw-T1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "T1", sess.Teacher.ID())
	assert.Equal(t, 0, s.Find("T1").FailedAttempts)
}

func TestLoginUnknownTeacher(t *testing.T) {
	auth := NewAuthenticator(newTeachers(t))
	_, err := auth.Login("nobody", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLockoutAfterThreeFailures(t *testing.T) {
	s := newTeachers(t)
	var alerts []SecurityAlert
	auth := NewAuthenticator(s, AlertFunc(func(a SecurityAlert) error {
		alerts = append(alerts, a)
		return nil
	}))

	for i, remaining := range []int{2, 1, 0} {
		_, err := auth.Login("T2", "bad")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		var ce *CredentialsError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, remaining, ce.Remaining)
		assert.Equal(t, i+1, s.Find("T2").FailedAttempts)
	}
	assert.True(t, s.Find("T2").Locked())
	require.Len(t, alerts, 1)
	assert.Equal(t, "T2", alerts[0].TeacherID)
	assert.Equal(t, 3, alerts[0].Attempts)

	// The correct password no longer helps.
	_, err := auth.Login("T2", "pw-T2")
	assert.ErrorIs(t, err, ErrAccountLocked)
	assert.Equal(t, 3, s.Find("T2").FailedAttempts)
	assert.Len(t, alerts, 1)

	// Other accounts are unaffected.
	_, err = auth.Login("T3", "pw-T3")
	assert.NoError(t, err)
}

func TestFailingSinkDoesNotChangeOutcome(t *testing.T) {
	s := newTeachers(t)
	auth := NewAuthenticator(s, AlertFunc(func(SecurityAlert) error {
		return errors.New("pager offline")
	}))
	for i := 0; i < 3; i++ {
		_, err := auth.Login("T1", "bad")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := auth.Login("T1", "pw-T1")
	assert.ErrorIs(t, err, ErrAccountLocked)
}
