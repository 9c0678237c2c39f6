// Package view decides which screen a client shows and assembles its data
// from the current session.
package view

import (
	"classlink/internal/account"
	"classlink/internal/attendance"
)

// Name identifies a screen.
type Name string

const (
	RoleSelection    Name = "role-selection"
	StudentDashboard Name = "student-dashboard"
	TeacherDashboard Name = "teacher-dashboard"
)

// Screen is the active view and the data needed to render it.
type Screen struct {
	View    Name          `json:"view"`
	Student *StudentPanel `json:"student,omitempty"`
	Teacher *TeacherPanel `json:"teacher,omitempty"`
}

// StudentPanel is the student dashboard.
type StudentPanel struct {
	Profile     account.Session     `json:"profile"`
	Today       string              `json:"today"`
	TodayStatus attendance.Status   `json:"todayStatus"`
	Marked      bool                `json:"marked"`
	History     []attendance.Record `json:"history"`
}

// TeacherPanel is the teacher dashboard before a class is picked.
type TeacherPanel struct {
	Profile    account.Session `json:"profile"`
	ReportDate string          `json:"reportDate"`
	Grades     []string        `json:"grades"`
}

// Accounts is the part of the account manager the controller reads.
type Accounts interface {
	Current() (account.Session, bool)
	Grades() []string
}

// Controller derives the screen from the session and the ledger. It holds no state.
type Controller struct {
	accounts Accounts
	ledger   *attendance.Ledger
}

func NewController(accounts Accounts, ledger *attendance.Ledger) *Controller {
	return &Controller{accounts: accounts, ledger: ledger}
}

// Current returns the screen for the current session.
func (c *Controller) Current() Screen {
	sess, ok := c.accounts.Current()
	if !ok {
		return Screen{View: RoleSelection}
	}
	// profiles are rendered to clients; the stored password stays server side
	profile := sess
	profile.Password = ""

	switch sess.Role {
	case account.KindStudent:
		status, marked := c.ledger.TodayStatus(sess.ID)
		if !marked {
			status = attendance.StatusNotMarked
		}
		return Screen{View: StudentDashboard, Student: &StudentPanel{
			Profile:     profile,
			Today:       c.ledger.Today(),
			TodayStatus: status,
			Marked:      marked,
			History:     c.ledger.History(sess.ID),
		}}
	case account.KindTeacher:
		return Screen{View: TeacherDashboard, Teacher: &TeacherPanel{
			Profile:    profile,
			ReportDate: c.ledger.Today(),
			Grades:     c.accounts.Grades(),
		}}
	}
	return Screen{View: RoleSelection}
}
