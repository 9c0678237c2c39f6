package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"classlink/internal/account"
	"classlink/internal/attendance"
	"classlink/internal/audit"
	"classlink/internal/auth"
	"classlink/internal/metrics"
	"classlink/internal/store"
	"classlink/internal/view"
)

// TokenConfig controls the access tokens handed out at login.
type TokenConfig struct {
	Issuer     string
	SigningKey string
	TTL        time.Duration
}

// Handler serves the JSON API over the account manager and attendance ledger.
type Handler struct {
	accounts *account.Manager
	ledger   *attendance.Ledger
	views    *view.Controller
	backend  store.Backend
	events   *audit.Publisher
	tokens   TokenConfig
}

func New(accounts *account.Manager, ledger *attendance.Ledger, views *view.Controller,
	backend store.Backend, events *audit.Publisher, tokens TokenConfig) *Handler {
	return &Handler{
		accounts: accounts,
		ledger:   ledger,
		views:    views,
		backend:  backend,
		events:   events,
		tokens:   tokens,
	}
}

// Routes mounts the API. limit guards the credential endpoints.
func (h *Handler) Routes(r gin.IRouter, limit gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")
	v1.POST("/students/register", limit, h.RegisterStudent)
	v1.POST("/teachers/register", limit, h.RegisterTeacher)
	v1.POST("/login/:kind", limit, h.Login)
	v1.POST("/logout", h.Logout)
	v1.GET("/view", h.View)

	authed := v1.Group("", auth.SessionAuth(h.tokens.SigningKey, h.tokens.Issuer, h.accounts))

	student := authed.Group("", auth.RequireRole(account.KindStudent))
	student.GET("/attendance/today", h.Today)
	student.POST("/attendance", h.Mark)
	student.GET("/attendance/history", h.History)

	teacher := authed.Group("", auth.RequireRole(account.KindTeacher))
	teacher.GET("/classrooms", h.Classrooms)
	teacher.GET("/reports/class", h.ClassReport)
	teacher.GET("/audit", h.Audit)
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	if !h.backend.Healthy(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": true})
}

// ---------- Accounts ----------

type studentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Grade     string `json:"grade"`
	Classroom string `json:"classroom"`
}

type teacherResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Subject  string `json:"subject"`
}

func (h *Handler) RegisterStudent(c *gin.Context) {
	var form account.StudentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	st, err := h.accounts.RegisterStudent(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Registered(string(account.KindStudent))
	h.publish(c.Request.Context(), audit.StudentRegistered, st.ID, account.KindStudent, st.Grade+"/"+st.Classroom)

	c.JSON(http.StatusCreated, gin.H{
		"message": "registration successful, please log in",
		"student": studentResponse{ID: st.ID, Name: st.Name, Username: st.Username, Grade: st.Grade, Classroom: st.Classroom},
	})
}

func (h *Handler) RegisterTeacher(c *gin.Context) {
	var form account.TeacherForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	t, err := h.accounts.RegisterTeacher(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Registered(string(account.KindTeacher))
	h.publish(c.Request.Context(), audit.TeacherRegistered, t.ID, account.KindTeacher, t.Subject)

	c.JSON(http.StatusCreated, gin.H{
		"message": "registration successful, please log in",
		"teacher": teacherResponse{ID: t.ID, Name: t.Name, Username: t.Username, Subject: t.Subject},
		"next":    "teacher-login",
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	kind, err := account.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := h.accounts.Login(c.Request.Context(), kind, req.Username, req.Password)
	metrics.Login(string(kind), err == nil)
	if err != nil {
		writeError(c, err)
		return
	}

	tok, err := auth.Issue(sess.ID, string(sess.Role), h.tokens.Issuer, h.tokens.SigningKey, h.tokens.TTL)
	if err != nil {
		log.Printf("login: token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	h.publish(c.Request.Context(), audit.LoggedIn, sess.ID, sess.Role, "")

	c.JSON(http.StatusOK, gin.H{
		"token":     tok.AccessToken,
		"expiresAt": tok.ExpiresAt.Unix(),
		"screen":    h.views.Current(),
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if sess, ok := h.accounts.Current(); ok {
		h.publish(c.Request.Context(), audit.LoggedOut, sess.ID, sess.Role, "")
	}
	h.accounts.Logout(c.Request.Context())
	c.JSON(http.StatusOK, h.views.Current())
}

func (h *Handler) View(c *gin.Context) {
	c.JSON(http.StatusOK, h.views.Current())
}

// ---------- Student attendance ----------

func (h *Handler) Today(c *gin.Context) {
	sess, _ := auth.SessionFrom(c)
	status, marked := h.ledger.TodayStatus(sess.ID)
	if !marked {
		status = attendance.StatusNotMarked
	}
	c.JSON(http.StatusOK, gin.H{"date": h.ledger.Today(), "status": status, "marked": marked})
}

type markRequest struct {
	Status attendance.Status `json:"status"`
}

// Mark records today's attendance for the logged-in student.
func (h *Handler) Mark(c *gin.Context) {
	sess, _ := auth.SessionFrom(c)
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	st, ok := h.accounts.Student(sess.ID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	rec, err := h.ledger.Mark(c.Request.Context(), st.ID, req.Status, attendance.SnapshotOf(st), "")
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyMarked) {
			metrics.MarkRejected()
		}
		writeError(c, err)
		return
	}
	metrics.Marked(string(rec.Status))
	h.publish(c.Request.Context(), audit.AttendanceMarked, sess.ID, sess.Role, rec.Date+" "+string(rec.Status))

	c.JSON(http.StatusCreated, gin.H{"message": "marked as " + string(rec.Status), "record": rec})
}

func (h *Handler) History(c *gin.Context) {
	sess, _ := auth.SessionFrom(c)
	c.JSON(http.StatusOK, gin.H{"records": h.ledger.History(sess.ID)})
}

// ---------- Teacher views ----------

func (h *Handler) Classrooms(c *gin.Context) {
	grade := strings.TrimSpace(c.Query("grade"))
	if grade == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grade is required"})
		return
	}
	rooms := h.ledger.AvailableClassrooms(grade)
	resp := gin.H{"grade": grade, "classrooms": rooms}
	if len(rooms) == 0 {
		resp["message"] = "no students in this grade yet"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ClassReport(c *gin.Context) {
	grade := strings.TrimSpace(c.Query("grade"))
	classroom := strings.TrimSpace(c.Query("classroom"))
	if grade == "" || classroom == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please choose grade and classroom"})
		return
	}
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = h.ledger.Today()
	} else if _, err := time.Parse(attendance.DateLayout, date); err != nil {
		writeError(c, attendance.ErrInvalidDate)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"grade":     grade,
		"classroom": classroom,
		"date":      date,
		"report":    h.ledger.ClassReport(grade, classroom, date),
		"roster":    h.ledger.Roster(grade, classroom, date),
	})
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

func (h *Handler) Audit(c *gin.Context) {
	limit := defaultAuditLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return
		}
		limit = min(parsed, maxAuditLimit)
	}
	c.JSON(http.StatusOK, gin.H{"entries": audit.Recent(c.Request.Context(), h.backend, limit)})
}

func (h *Handler) publish(ctx context.Context, typ, actorID string, role account.Kind, detail string) {
	h.events.Publish(ctx, typ, audit.Event{ActorID: actorID, Role: string(role), Detail: detail})
}
