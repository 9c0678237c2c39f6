package attendance

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"classlink/internal/account"
)

// DateLayout is the calendar date format used for attendance days.
const DateLayout = "2006-01-02"

// Status is a student's attendance for one day.
type Status string

const (
	StatusPresent   Status = "present"
	StatusAbsent    Status = "absent"
	StatusNotMarked Status = "not-marked"
)

var (
	ErrAlreadyMarked = errors.New("attendance already marked for this day")
	ErrInvalidStatus = errors.New("status must be present or absent")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
)

// Record is one attendance mark. Name, grade and classroom are copied from the
// student when the mark is made and are not refreshed afterwards.
type Record struct {
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	Grade       string    `json:"grade"`
	Classroom   string    `json:"classroom"`
	Date        string    `json:"date"`
	Status      Status    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// Snapshot is the student data captured on a record.
type Snapshot struct {
	Name      string
	Grade     string
	Classroom string
}

// SnapshotOf captures a student for marking.
func SnapshotOf(s account.Student) Snapshot {
	return Snapshot{Name: s.Name, Grade: s.Grade, Classroom: s.Classroom}
}

// RosterEntry is a class member with their status for the report date.
type RosterEntry struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Grade     string `json:"grade"`
	Classroom string `json:"classroom"`
	Status    Status `json:"status"`
}

// Directory lists registered students.
type Directory interface {
	Students() []account.Student
}

// Ledger records one status per student per day. Records are never updated or removed.
type Ledger struct {
	repo *Repository
	dir  Directory
	now  func() time.Time

	mu sync.Mutex
}

// NewLedger creates a ledger backed by a repository.
func NewLedger(repo *Repository, dir Directory) *Ledger {
	return &Ledger{repo: repo, dir: dir, now: time.Now}
}

// Today returns the current UTC calendar date.
func (l *Ledger) Today() string {
	return l.now().UTC().Format(DateLayout)
}

// TodayStatus reports how the student was marked today, if at all.
func (l *Ledger) TodayStatus(studentID string) (Status, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.repo.Find(studentID, l.Today())
	return rec.Status, ok
}

// Mark records status for the student on date, or today when date is empty.
func (l *Ledger) Mark(ctx context.Context, studentID string, status Status, snap Snapshot, date string) (Record, error) {
	if status != StatusPresent && status != StatusAbsent {
		return Record{}, ErrInvalidStatus
	}
	date = strings.TrimSpace(date)
	if date == "" {
		date = l.Today()
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		return Record{}, ErrInvalidDate
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.repo.Find(studentID, date); ok {
		return Record{}, ErrAlreadyMarked
	}
	rec := Record{
		StudentID:   studentID,
		StudentName: snap.Name,
		Grade:       snap.Grade,
		Classroom:   snap.Classroom,
		Date:        date,
		Status:      status,
		Timestamp:   l.now().UTC(),
	}
	if err := l.repo.Append(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// History returns the student's records, most recent date first.
func (l *Ledger) History(studentID string) []Record {
	l.mu.Lock()
	recs := l.repo.Filter(func(r Record) bool { return r.StudentID == studentID })
	l.mu.Unlock()

	slices.SortStableFunc(recs, func(a, b Record) int { return strings.Compare(b.Date, a.Date) })
	if recs == nil {
		recs = []Record{}
	}
	return recs
}

// ClassReport maps student id to status for records of the class on date.
// Students without a record are left out.
func (l *Ledger) ClassReport(grade, classroom, date string) map[string]Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]Status)
	for _, r := range l.repo.Filter(func(r Record) bool {
		return r.Grade == grade && r.Classroom == classroom && r.Date == date
	}) {
		out[r.StudentID] = r.Status
	}
	return out
}

// Roster lists every registered student of the class, in registration order,
// with their status on date or StatusNotMarked.
func (l *Ledger) Roster(grade, classroom, date string) []RosterEntry {
	report := l.ClassReport(grade, classroom, date)
	out := []RosterEntry{}
	for _, s := range l.dir.Students() {
		if s.Grade != grade || s.Classroom != classroom {
			continue
		}
		status, ok := report[s.ID]
		if !ok {
			status = StatusNotMarked
		}
		out = append(out, RosterEntry{
			StudentID: s.ID,
			Name:      s.Name,
			Username:  s.Username,
			Grade:     s.Grade,
			Classroom: s.Classroom,
			Status:    status,
		})
	}
	return out
}

// AvailableClassrooms lists the distinct classrooms of students in grade, ascending.
func (l *Ledger) AvailableClassrooms(grade string) []string {
	rooms := []string{}
	for _, s := range l.dir.Students() {
		if s.Grade == grade {
			rooms = append(rooms, s.Classroom)
		}
	}
	slices.Sort(rooms)
	return slices.Compact(rooms)
}
