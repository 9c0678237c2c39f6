package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classlink/internal/account"
	"classlink/internal/attendance"
	"classlink/internal/store"
)

func setup(t *testing.T) (*Controller, *account.Manager, *attendance.Ledger) {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemory()
	accounts := account.NewManager(ctx, kv)
	ledger := attendance.NewLedger(attendance.NewRepository(ctx, kv), accounts)
	return NewController(accounts, ledger), accounts, ledger
}

func TestRoleSelectionWithoutSession(t *testing.T) {
	c, _, _ := setup(t)
	assert.Equal(t, Screen{View: RoleSelection}, c.Current())
}

func TestStudentDashboard(t *testing.T) {
	ctx := context.Background()
	c, accounts, ledger := setup(t)

	st, err := accounts.RegisterStudent(ctx, account.StudentForm{Name: "Ani", Username: "ani1", Password: "p", Grade: "5", Classroom: "A"})
	require.NoError(t, err)
	_, err = accounts.Login(ctx, account.KindStudent, "ani1", "p")
	require.NoError(t, err)

	screen := c.Current()
	require.Equal(t, StudentDashboard, screen.View)
	require.NotNil(t, screen.Student)
	assert.Nil(t, screen.Teacher)
	assert.Equal(t, "Ani", screen.Student.Profile.Name)
	assert.Empty(t, screen.Student.Profile.Password)
	assert.False(t, screen.Student.Marked)
	assert.Equal(t, attendance.StatusNotMarked, screen.Student.TodayStatus)
	assert.Empty(t, screen.Student.History)

	_, err = ledger.Mark(ctx, st.ID, attendance.StatusPresent, attendance.SnapshotOf(st), "2000-01-01")
	require.NoError(t, err)
	_, err = ledger.Mark(ctx, st.ID, attendance.StatusPresent, attendance.SnapshotOf(st), "")
	require.NoError(t, err)

	screen = c.Current()
	assert.True(t, screen.Student.Marked)
	assert.Equal(t, attendance.StatusPresent, screen.Student.TodayStatus)
	require.Len(t, screen.Student.History, 2)
	assert.Equal(t, screen.Student.Today, screen.Student.History[0].Date)
}

func TestTeacherDashboard(t *testing.T) {
	ctx := context.Background()
	c, accounts, ledger := setup(t)

	for _, f := range []account.StudentForm{
		{Name: "A", Username: "a", Password: "p", Grade: "7", Classroom: "A"},
		{Name: "B", Username: "b", Password: "p", Grade: "5", Classroom: "A"},
	} {
		_, err := accounts.RegisterStudent(ctx, f)
		require.NoError(t, err)
	}
	_, err := accounts.RegisterTeacher(ctx, account.TeacherForm{Name: "Mr T", Username: "t", Password: "x", Subject: "Math"})
	require.NoError(t, err)
	_, err = accounts.Login(ctx, account.KindTeacher, "t", "x")
	require.NoError(t, err)

	screen := c.Current()
	require.Equal(t, TeacherDashboard, screen.View)
	require.NotNil(t, screen.Teacher)
	assert.Equal(t, "Math", screen.Teacher.Profile.Subject)
	assert.Equal(t, ledger.Today(), screen.Teacher.ReportDate)
	assert.Equal(t, []string{"5", "7"}, screen.Teacher.Grades)

	accounts.Logout(ctx)
	assert.Equal(t, RoleSelection, c.Current().View)
}
