// Package clinictest runs an in-memory stand-in for the clinic REST
// backend. It exists only for tests: service and end-to-end tests talk
// to it over real HTTP so the gateway, token handling, and JSON
// contracts are exercised the same way they are in production.
package clinictest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"medicrm/internal/clinic"
)

var signingSecret = []byte("clinictest-secret")

type userAccount struct {
	ID       int
	Username string
	Password string
	Role     string
}

// Server is the fake backend. All state is in memory and guarded by a
// single mutex; handlers are trivial by design.
type Server struct {
	ts *httptest.Server

	mu           sync.Mutex
	users        map[string]userAccount
	patients     map[int]clinic.Patient
	appointments map[int]clinic.Appointment
	records      map[int]clinic.Record
	messages     []clinic.Message
	nextID       int
	clock        int
}

// New starts the fake backend with two seeded accounts:
// "house" (doctor, id 1) and "smith" (secretary, id 2), both with
// password "pw". The server is shut down via Close.
func New() *Server {
	s := &Server{
		users: map[string]userAccount{
			"house": {ID: 1, Username: "house", Password: "pw", Role: "doctor"},
			"smith": {ID: 2, Username: "smith", Password: "pw", Role: "secretary"},
		},
		patients:     map[int]clinic.Patient{},
		appointments: map[int]clinic.Appointment{},
		records:      map[int]clinic.Record{},
		nextID:       100,
	}

	e := echo.New()
	e.HideBanner = true

	apiGroup := e.Group("/api")
	apiGroup.POST("/login", s.login)
	apiGroup.POST("/refresh", s.refresh)

	authed := apiGroup.Group("", s.requireToken)
	authed.GET("/patients", s.listPatients)
	authed.POST("/patients", s.createPatient)
	authed.GET("/patients/:id", s.getPatient)
	authed.PUT("/patients/:id", s.updatePatient)
	authed.DELETE("/patients/:id", s.deletePatient)
	authed.GET("/patients/:id/records", s.listRecords)
	authed.POST("/patients/:id/records", s.createRecord)
	authed.PUT("/patients/:id/records/:rid", s.updateRecord)
	authed.DELETE("/patients/:id/records/:rid", s.deleteRecord)
	authed.GET("/appointments", s.listAppointments)
	authed.POST("/appointments", s.createAppointment)
	authed.GET("/appointments/:id", s.getAppointment)
	authed.PUT("/appointments/:id", s.updateAppointment)
	authed.DELETE("/appointments/:id", s.deleteAppointment)
	authed.GET("/messages", s.listMessages)
	authed.POST("/messages", s.sendMessage)
	authed.PUT("/messages/:id", s.updateMessage)
	authed.GET("/users/conversation-partners", s.listPartners)

	s.ts = httptest.NewServer(e)
	return s
}

// Close shuts the fake backend down.
func (s *Server) Close() { s.ts.Close() }

// BaseURL is the API root the client should be pointed at.
func (s *Server) BaseURL() string { return s.ts.URL + "/api" }

// TokenFor mints a valid access token for a seeded username. Panics on
// unknown users; it is test plumbing.
func (s *Server) TokenFor(username string) string {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		panic("clinictest: unknown user " + username)
	}
	return mintToken(u, "access", time.Hour)
}

// ExpiredTokenFor mints an access token that is already past expiry.
func (s *Server) ExpiredTokenFor(username string) string {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		panic("clinictest: unknown user " + username)
	}
	return mintToken(u, "access", -time.Hour)
}

// SeedPatient inserts a patient directly, bypassing HTTP.
func (s *Server) SeedPatient(p clinic.Patient) clinic.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.allocID()
	}
	s.patients[p.ID] = p
	return p
}

// SeedMessage inserts a message directly, bypassing HTTP.
func (s *Server) SeedMessage(m clinic.Message) clinic.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.allocID()
	}
	if m.CreatedAt == "" {
		m.CreatedAt = s.timestamp()
	}
	s.messages = append(s.messages, m)
	return m
}

func (s *Server) allocID() int {
	s.nextID++
	return s.nextID
}

// timestamp produces strictly increasing RFC3339 stamps so ordering by
// creation time is deterministic in tests.
func (s *Server) timestamp() string {
	s.clock++
	return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC).
		Add(time.Duration(s.clock) * time.Second).Format(time.RFC3339)
}

func mintToken(u userAccount, typ string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub":  u.Username,
		"role": u.Role,
		"uid":  u.ID,
		"typ":  typ,
		"exp":  jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(signingSecret)
	if err != nil {
		panic(err)
	}
	return signed
}

// requireToken enforces a live bearer token and stashes the caller's
// account in the echo context.
func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
		}
		parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return signingSecret, nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
		if err != nil || !parsed.Valid {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}
		claims := parsed.Claims.(jwt.MapClaims)
		if typ, _ := claims["typ"].(string); typ != "access" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not an access token"})
		}
		uid, _ := claims["uid"].(float64)
		c.Set("uid", int(uid))
		return next(c)
	}
}

func (s *Server) login(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad payload"})
	}
	s.mu.Lock()
	u, ok := s.users[body.Username]
	s.mu.Unlock()
	if !ok || u.Password != body.Password {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "bad credentials"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  mintToken(u, "access", time.Hour),
		"refresh_token": mintToken(u, "refresh", 24*time.Hour),
	})
}

func (s *Server) refresh(c echo.Context) error {
	header := c.Request().Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing refresh token"})
	}
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return signingSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not a refresh token"})
	}
	sub, _ := claims["sub"].(string)
	s.mu.Lock()
	u, ok := s.users[sub]
	s.mu.Unlock()
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
	}
	return c.JSON(http.StatusOK, echo.Map{"access_token": mintToken(u, "access", time.Hour)})
}

func pathID(c echo.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	return id, err == nil && id > 0
}

func (s *Server) listPatients(c echo.Context) error {
	s.mu.Lock()
	out := make([]clinic.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, p)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createPatient(c echo.Context) error {
	var p clinic.Patient
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad payload"})
	}
	if p.FirstName == "" || p.LastName == "" || p.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name, last_name and email are required"})
	}
	s.mu.Lock()
	p.ID = s.allocID()
	s.patients[p.ID] = p
	s.mu.Unlock()
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) getPatient(c echo.Context) error {
	id, ok := pathID(c, "id")
	s.mu.Lock()
	p, found := s.patients[id]
	s.mu.Unlock()
	if !ok || !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) updatePatient(c echo.Context) error {
	id, ok := pathID(c, "id")
	var p clinic.Patient
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.patients[id]; !ok || !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
	}
	p.ID = id
	s.patients[id] = p
	return c.JSON(http.StatusOK, p)
}

func (s *Server) deletePatient(c echo.Context) error {
	id, ok := pathID(c, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.patients[id]; !ok || !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
	}
	delete(s.patients, id)
	// Cascade: a patient's records and appointments go with it.
	for rid, r := range s.records {
		if r.PatientID == id {
			delete(s.records, rid)
		}
	}
	for aid, a := range s.appointments {
		if a.PatientID == id {
			delete(s.appointments, aid)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listRecords(c echo.Context) error {
	id, ok := pathID(c, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.patients[id]; !ok || !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
	}
	out := make([]clinic.Record, 0)
	for _, r := range s.records {
		if r.PatientID == id {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordDate < out[j].RecordDate })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createRecord(c echo.Context) error {
	id, ok := pathID(c, "id")
	var r clinic.Record
	if err := c.Bind(&r); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.patients[id]; !ok || !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
	}
	r.ID = s.allocID()
	r.PatientID = id
	if r.RecordDate == "" {
		r.RecordDate = s.timestamp()
	}
	s.records[r.ID] = r
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) updateRecord(c echo.Context) error {
	id, okP := pathID(c, "id")
	rid, okR := pathID(c, "rid")
	var r clinic.Record
	if err := c.Bind(&r); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.records[rid]
	if !okP || !okR || !found || existing.PatientID != id {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
	}
	existing.Notes = r.Notes
	existing.Diagnosis = r.Diagnosis
	existing.Prescription = r.Prescription
	existing.UpdatedBy = r.UpdatedBy
	existing.UpdatedAt = s.timestamp()
	s.records[rid] = existing
	return c.JSON(http.StatusOK, existing)
}

func (s *Server) deleteRecord(c echo.Context) error {
	id, okP := pathID(c, "id")
	rid, okR := pathID(c, "rid")
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.records[rid]
	if !okP || !okR || !found || existing.PatientID != id {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
	}
	delete(s.records, rid)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listAppointments(c echo.Context) error {
	s.mu.Lock()
	out := make([]clinic.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, a)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createAppointment(c echo.Context) error {
	var a clinic.Appointment
	if err := c.Bind(&a); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, found := s.patients[a.PatientID]
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
	}
	a.ID = s.allocID()
	a.PatientName = p.FullName()
	s.appointments[a.ID] = a
	return c.JSON(http.StatusCreated, a)
}

func (s *Server) getAppointment(c echo.Context) error {
	id, ok := pathID(c, "id")
	s.mu.Lock()
	a, found := s.appointments[id]
	s.mu.Unlock()
	if !ok || !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) updateAppointment(c echo.Context) error {
	id, ok := pathID(c, "id")
	var a clinic.Appointment
	if err := c.Bind(&a); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.appointments[id]; !ok || !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}
	p, found := s.patients[a.PatientID]
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
	}
	a.ID = id
	a.PatientName = p.FullName()
	s.appointments[id] = a
	return c.JSON(http.StatusOK, a)
}

func (s *Server) deleteAppointment(c echo.Context) error {
	id, ok := pathID(c, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.appointments[id]; !ok || !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}
	delete(s.appointments, id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listMessages(c echo.Context) error {
	partner, err := strconv.Atoi(c.QueryParam("user_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	uid := c.Get("uid").(int)
	s.mu.Lock()
	out := make([]clinic.Message, 0)
	for _, m := range s.messages {
		between := (m.SenderID == uid && m.RecipientID == partner) ||
			(m.SenderID == partner && m.RecipientID == uid)
		if between {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) sendMessage(c echo.Context) error {
	var body struct {
		RecipientID int    `json:"recipient_id"`
		Content     string `json:"content"`
	}
	if err := c.Bind(&body); err != nil || body.RecipientID <= 0 || body.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "recipient_id and content are required"})
	}
	uid := c.Get("uid").(int)
	s.mu.Lock()
	m := clinic.Message{
		ID:          s.allocID(),
		SenderID:    uid,
		RecipientID: body.RecipientID,
		Content:     body.Content,
		CreatedAt:   s.timestamp(),
	}
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) updateMessage(c echo.Context) error {
	id, ok := pathID(c, "id")
	var body struct {
		Read bool `json:"read"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id && ok {
			s.messages[i].Read = body.Read
			return c.JSON(http.StatusOK, s.messages[i])
		}
	}
	return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
}

func (s *Server) listPartners(c echo.Context) error {
	uid := c.Get("uid").(int)
	s.mu.Lock()
	out := make([]clinic.User, 0, len(s.users))
	for _, u := range s.users {
		if u.ID == uid {
			continue
		}
		out = append(out, clinic.User{ID: u.ID, Username: u.Username, Role: u.Role})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

// MessageCount reports how many messages the server holds; handy for
// polling assertions.
func (s *Server) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
