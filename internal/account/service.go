package account

import (
	"context"
	"errors"
	"log"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"classlink/internal/store"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// Manager owns the student and teacher collections and the current session.
// Collections are read once from the store and written back after every change.
type Manager struct {
	kv    store.KV
	newID func() string

	mu       sync.RWMutex
	students []Student
	teachers []Teacher
	session  *Session
}

// NewManager loads accounts and any persisted session from kv.
func NewManager(ctx context.Context, kv store.KV) *Manager {
	return &Manager{
		kv:       kv,
		newID:    newID,
		students: store.Load[Student](ctx, kv, store.Students),
		teachers: store.Load[Teacher](ctx, kv, store.Teachers),
		session:  store.LoadOne[Session](ctx, kv, store.CurrentSession),
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// RegisterStudent validates and stores a new student. It does not log the student in.
func (m *Manager) RegisterStudent(ctx context.Context, form StudentForm) (Student, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Username = strings.TrimSpace(form.Username)
	form.Grade = strings.TrimSpace(form.Grade)
	form.Classroom = strings.TrimSpace(form.Classroom)

	// blank passwords are rejected, but the stored password keeps its spaces
	check := form
	check.Password = strings.TrimSpace(form.Password)
	if err := validateForm(check); err != nil {
		return Student{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.ContainsFunc(m.students, func(s Student) bool { return s.Username == form.Username }) {
		return Student{}, ErrDuplicateUsername
	}

	st := Student{
		ID:        m.newID(),
		Name:      form.Name,
		Username:  form.Username,
		Password:  form.Password,
		Grade:     form.Grade,
		Classroom: form.Classroom,
	}
	next := append(slices.Clip(m.students), st)
	if err := store.Save(ctx, m.kv, store.Students, next); err != nil {
		return Student{}, err
	}
	m.students = next
	return st, nil
}

func validateForm(form StudentForm) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Fields: fields}
}

// RegisterTeacher stores a new teacher. Fields are taken as given: only the
// username is checked, for uniqueness among teachers.
func (m *Manager) RegisterTeacher(ctx context.Context, form TeacherForm) (Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.ContainsFunc(m.teachers, func(t Teacher) bool { return t.Username == form.Username }) {
		return Teacher{}, ErrDuplicateUsername
	}

	t := Teacher{
		ID:       m.newID(),
		Name:     form.Name,
		Username: form.Username,
		Password: form.Password,
		Subject:  form.Subject,
	}
	next := append(slices.Clip(m.teachers), t)
	if err := store.Save(ctx, m.kv, store.Teachers, next); err != nil {
		return Teacher{}, err
	}
	m.teachers = next
	return t, nil
}

// Login matches username and password exactly within the kind's accounts and
// makes the match the current session.
func (m *Manager) Login(ctx context.Context, kind Kind, username, password string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		sess  Session
		found bool
	)
	switch kind {
	case KindStudent:
		if i := slices.IndexFunc(m.students, func(s Student) bool {
			return s.Username == username && s.Password == password
		}); i >= 0 {
			sess, found = studentSession(m.students[i]), true
		}
	case KindTeacher:
		if i := slices.IndexFunc(m.teachers, func(t Teacher) bool {
			return t.Username == username && t.Password == password
		}); i >= 0 {
			sess, found = teacherSession(m.teachers[i]), true
		}
	default:
		return Session{}, ErrUnknownKind
	}
	if !found {
		return Session{}, ErrInvalidCredentials
	}

	if err := store.Save(ctx, m.kv, store.CurrentSession, sess); err != nil {
		return Session{}, err
	}
	m.session = &sess
	return sess, nil
}

// Logout ends the current session, if any.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	if err := store.Remove(ctx, m.kv, store.CurrentSession); err != nil {
		log.Printf("logout: %v", err)
	}
}

// Current returns the logged-in identity.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Students returns all students in registration order.
func (m *Manager) Students() []Student {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.students)
}

// Student looks up a student by id.
func (m *Manager) Student(id string) (Student, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := slices.IndexFunc(m.students, func(s Student) bool { return s.ID == id })
	if i < 0 {
		return Student{}, false
	}
	return m.students[i], true
}

// Grades lists the distinct grades of registered students in ascending order.
func (m *Manager) Grades() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	grades := make([]string, 0, len(m.students))
	for _, s := range m.students {
		grades = append(grades, s.Grade)
	}
	slices.Sort(grades)
	return slices.Compact(grades)
}
