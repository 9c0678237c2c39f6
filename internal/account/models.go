package account

import "strings"

// Kind is the account namespace a username belongs to.
type Kind string

const (
	KindStudent Kind = "student"
	KindTeacher Kind = "teacher"
)

// ParseKind maps a path or form value onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindStudent:
		return KindStudent, nil
	case KindTeacher:
		return KindTeacher, nil
	}
	return "", ErrUnknownKind
}

// Student is a registered student account. It never changes after registration.
type Student struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Grade     string `json:"grade"`
	Classroom string `json:"classroom"`
}

// Teacher is a registered teacher account.
type Teacher struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Subject  string `json:"subject"`
}

// Session is a copy of the logged-in account tagged with its role.
type Session struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	Grade     string `json:"grade,omitempty"`
	Classroom string `json:"classroom,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Role      Kind   `json:"role"`
}

// StudentForm carries the student registration fields.
type StudentForm struct {
	Name      string `json:"name" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Grade     string `json:"grade" validate:"required"`
	Classroom string `json:"classroom" validate:"required"`
}

// TeacherForm carries the teacher registration fields.
type TeacherForm struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Subject  string `json:"subject"`
}

func studentSession(s Student) Session {
	return Session{
		ID:        s.ID,
		Name:      s.Name,
		Username:  s.Username,
		Password:  s.Password,
		Grade:     s.Grade,
		Classroom: s.Classroom,
		Role:      KindStudent,
	}
}

func teacherSession(t Teacher) Session {
	return Session{
		ID:       t.ID,
		Name:     t.Name,
		Username: t.Username,
		Password: t.Password,
		Subject:  t.Subject,
		Role:     KindTeacher,
	}
}
