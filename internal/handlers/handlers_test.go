package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"telemedicine-portal-server/internal/config"
	"telemedicine-portal-server/internal/models"
	"telemedicine-portal-server/internal/routes"
	"telemedicine-portal-server/internal/utils"
)

// A Monday inside an availability window seeded below.
const mondayDate = "2026-09-07"

type portal struct {
	db      *gorm.DB
	router  *gin.Engine
	cfg     *config.Config
	doctor  *models.User
	patient *models.User
	admin   *models.User
}

var portalSeq int

func newPortal(t *testing.T) *portal {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:                 "test-access-secret",
		JWTRefreshSecret:          "test-refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 168,
		CallTokenSecret:           "test-call-secret",
		CallSessionExpiryHours:    2,
		ValidateOnApprove:         true,
	}

	router := gin.New()
	routes.SetupRoutes(router, db, cfg)

	hospital := &models.Hospital{Name: "General"}
	if err := db.Create(hospital).Error; err != nil {
		t.Fatalf("create hospital: %v", err)
	}

	seed := func(role models.Role) *models.User {
		portalSeq++
		user := &models.User{
			Email:      fmt.Sprintf("%s%d@portal.test", role, portalSeq),
			FirstName:  "Test",
			LastName:   string(role),
			Role:       role,
			HospitalID: &hospital.ID,
		}
		if err := user.SetPassword("password123"); err != nil {
			t.Fatalf("set password: %v", err)
		}
		if err := db.Create(user).Error; err != nil {
			t.Fatalf("create %s: %v", role, err)
		}
		return user
	}

	p := &portal{
		db:      db,
		router:  router,
		cfg:     cfg,
		doctor:  seed(models.RoleDoctor),
		patient: seed(models.RolePatient),
		admin:   seed(models.RoleAdmin),
	}

	window := &models.AvailabilityWindow{
		DoctorID:    p.doctor.ID,
		DayOfWeek:   models.Monday,
		StartTime:   "09:00",
		EndTime:     "12:00",
		IsAvailable: true,
	}
	if err := db.Create(window).Error; err != nil {
		t.Fatalf("create window: %v", err)
	}

	return p
}

func (p *portal) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	access, _, err := utils.GenerateTokens(user, p.cfg)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}
	return access
}

func (p *portal) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	p.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeData(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %s: %v", recorder.Body.String(), err)
	}
	return envelope.Data
}

func TestHealthEndpoint(t *testing.T) {
	p := newPortal(t)
	recorder := p.do(t, http.MethodGet, "/health", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestAppointmentsRequireAuth(t *testing.T) {
	p := newPortal(t)
	recorder := p.do(t, http.MethodGet, "/api/v1/appointments", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	p := newPortal(t)

	recorder := p.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    p.doctor.Email,
		"password": "password123",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	data := decodeData(t, recorder)
	if data["accessToken"] == "" || data["accessToken"] == nil {
		t.Fatal("expected access token in login response")
	}

	recorder = p.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    p.doctor.Email,
		"password": "wrong",
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", recorder.Code)
	}
}

func TestCreateAppointmentOverHTTP(t *testing.T) {
	p := newPortal(t)
	adminToken := p.tokenFor(t, p.admin)
	body := gin.H{
		"doctorId":  p.doctor.ID,
		"patientId": p.patient.ID,
		"date":      mondayDate,
		"time":      "09:30",
		"notes":     "follow-up",
	}

	recorder := p.do(t, http.MethodPost, "/api/v1/appointments", adminToken, body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	data := decodeData(t, recorder)
	if data["status"] != string(models.StatusScheduled) {
		t.Fatalf("expected scheduled appointment, got %v", data["status"])
	}

	// The same slot again: slot rejection is a conflict, not a bad request.
	recorder = p.do(t, http.MethodPost, "/api/v1/appointments", adminToken, body)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409 for taken slot, got %d: %s", recorder.Code, recorder.Body.String())
	}

	// Outside every availability window.
	body["time"] = "14:00"
	recorder = p.do(t, http.MethodPost, "/api/v1/appointments", adminToken, body)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409 outside window, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestCreateAppointmentRejectsPatients(t *testing.T) {
	p := newPortal(t)
	recorder := p.do(t, http.MethodPost, "/api/v1/appointments", p.tokenFor(t, p.patient), gin.H{
		"doctorId":  p.doctor.ID,
		"patientId": p.patient.ID,
		"date":      mondayDate,
		"time":      "09:30",
	})
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for patient, got %d", recorder.Code)
	}
}

func TestRequestWorkflowOverHTTP(t *testing.T) {
	p := newPortal(t)
	adminToken := p.tokenFor(t, p.admin)
	doctorToken := p.tokenFor(t, p.doctor)

	recorder := p.do(t, http.MethodPost, "/api/v1/appointment-requests", adminToken, gin.H{
		"doctorId":  p.doctor.ID,
		"patientId": p.patient.ID,
		"date":      mondayDate,
		"time":      "10:00",
		"message":   "annual check-up",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	requestData := decodeData(t, recorder)
	requestID, _ := requestData["id"].(string)
	if requestID == "" {
		t.Fatalf("expected request id in response: %v", requestData)
	}

	// The doctor sees the pending request.
	recorder = p.do(t, http.MethodGet, "/api/v1/appointment-requests?status=pending", doctorToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	// Approval books the appointment with a call token.
	recorder = p.do(t, http.MethodPost, "/api/v1/appointment-requests/"+requestID+"/approve", doctorToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	data := decodeData(t, recorder)
	appointment, _ := data["appointment"].(map[string]interface{})
	if appointment == nil {
		t.Fatalf("expected appointment in approval response: %s", recorder.Body.String())
	}
	if token, _ := appointment["callToken"].(string); len(token) != 4 {
		t.Fatalf("expected 4-digit call token, got %v", appointment["callToken"])
	}

	// A second decision on the closed request is refused.
	recorder = p.do(t, http.MethodPost, "/api/v1/appointment-requests/"+requestID+"/reject", doctorToken, gin.H{
		"doctorResponse": "too late",
	})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409 for closed request, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestRescheduleOverHTTP(t *testing.T) {
	p := newPortal(t)
	adminToken := p.tokenFor(t, p.admin)
	doctorToken := p.tokenFor(t, p.doctor)

	recorder := p.do(t, http.MethodPost, "/api/v1/appointments", adminToken, gin.H{
		"doctorId":  p.doctor.ID,
		"patientId": p.patient.ID,
		"date":      mondayDate,
		"time":      "09:30",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	created := decodeData(t, recorder)
	appointmentID, _ := created["id"].(string)

	recorder = p.do(t, http.MethodPost, "/api/v1/appointments/"+appointmentID+"/reschedule", doctorToken, gin.H{
		"date": mondayDate,
		"time": "10:30",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	data := decodeData(t, recorder)
	if data["status"] != string(models.StatusRescheduled) {
		t.Fatalf("expected rescheduled status, got %v", data["status"])
	}
	if data["originalTime"] != "09:30" {
		t.Fatalf("expected original time preserved, got %v", data["originalTime"])
	}

	// Only the assigned doctor may reschedule.
	other := &models.User{Email: "other-doc@portal.test", Role: models.RoleDoctor}
	if err := other.SetPassword("password123"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := p.db.Create(other).Error; err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	recorder = p.do(t, http.MethodPost, "/api/v1/appointments/"+appointmentID+"/reschedule", p.tokenFor(t, other), gin.H{
		"date": mondayDate,
		"time": "11:00",
	})
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign doctor, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestAppointmentVisibilityScoping(t *testing.T) {
	p := newPortal(t)
	adminToken := p.tokenFor(t, p.admin)

	recorder := p.do(t, http.MethodPost, "/api/v1/appointments", adminToken, gin.H{
		"doctorId":  p.doctor.ID,
		"patientId": p.patient.ID,
		"date":      mondayDate,
		"time":      "09:30",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	created := decodeData(t, recorder)
	appointmentID, _ := created["id"].(string)

	// Involved parties can read it.
	for _, user := range []*models.User{p.doctor, p.patient, p.admin} {
		recorder = p.do(t, http.MethodGet, "/api/v1/appointments/"+appointmentID, p.tokenFor(t, user), nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", user.Role, recorder.Code)
		}
	}

	// An uninvolved patient cannot.
	stranger := &models.User{Email: "stranger@portal.test", Role: models.RolePatient}
	if err := stranger.SetPassword("password123"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := p.db.Create(stranger).Error; err != nil {
		t.Fatalf("create patient: %v", err)
	}
	recorder = p.do(t, http.MethodGet, "/api/v1/appointments/"+appointmentID, p.tokenFor(t, stranger), nil)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", recorder.Code)
	}
}

// A token freed by a dead appointment can be reissued; redemption must
// resolve it to the live appointment, not the stale one.
func TestEnterCallIgnoresStaleTokens(t *testing.T) {
	p := newPortal(t)

	otherPatient := &models.User{
		Email:      "second-patient@portal.test",
		Role:       models.RolePatient,
		HospitalID: p.admin.HospitalID,
	}
	if err := otherPatient.SetPassword("password123"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := p.db.Create(otherPatient).Error; err != nil {
		t.Fatalf("create patient: %v", err)
	}

	// The cancelled appointment gets a low-sorting ID so an unfiltered
	// lookup would find it first.
	stale := models.Appointment{
		BaseModel: models.BaseModel{ID: "00000000-0000-0000-0000-000000000001"},
		DoctorID:  p.doctor.ID,
		PatientID: p.patient.ID,
		Date:      models.DateOnly(time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)),
		Time:      "09:00",
		Status:    models.StatusCancelled,
		CallToken: "1234",
	}
	if err := p.db.Create(&stale).Error; err != nil {
		t.Fatalf("seed cancelled appointment: %v", err)
	}

	live := models.Appointment{
		DoctorID:  p.doctor.ID,
		PatientID: otherPatient.ID,
		Date:      models.DateOnly(time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)),
		Time:      "10:00",
		Status:    models.StatusScheduled,
		CallToken: "1234",
	}
	if err := p.db.Create(&live).Error; err != nil {
		t.Fatalf("seed scheduled appointment: %v", err)
	}

	recorder := p.do(t, http.MethodPost, "/api/v1/calls/enter", p.tokenFor(t, otherPatient), gin.H{
		"token": "1234",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for the live appointment's patient, got %d: %s", recorder.Code, recorder.Body.String())
	}
	data := decodeData(t, recorder)
	session, _ := data["session"].(map[string]interface{})
	if session == nil || session["appointmentId"] != live.ID {
		t.Fatalf("expected session bound to the live appointment, got %v", data)
	}

	// The cancelled appointment's patient no longer holds a valid token.
	recorder = p.do(t, http.MethodPost, "/api/v1/calls/enter", p.tokenFor(t, p.patient), gin.H{
		"token": "1234",
	})
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for the stale appointment's patient, got %d", recorder.Code)
	}
}

// Admins without a hospital affiliation are refused outright instead of
// getting listings that silently match nothing.
func TestUnaffiliatedAdminRefused(t *testing.T) {
	p := newPortal(t)

	orphan := &models.User{Email: "orphan-admin@portal.test", Role: models.RoleAdmin}
	if err := orphan.SetPassword("password123"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := p.db.Create(orphan).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}
	token := p.tokenFor(t, orphan)

	for _, path := range []string{
		"/api/v1/appointments",
		"/api/v1/users",
		"/api/v1/users/patients",
	} {
		recorder := p.do(t, http.MethodGet, path, token, nil)
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403 from %s for unaffiliated admin, got %d: %s", path, recorder.Code, recorder.Body.String())
		}
	}
}

func TestChatOverHTTP(t *testing.T) {
	p := newPortal(t)
	adminToken := p.tokenFor(t, p.admin)

	recorder := p.do(t, http.MethodPost, "/api/v1/appointments", adminToken, gin.H{
		"doctorId":  p.doctor.ID,
		"patientId": p.patient.ID,
		"date":      mondayDate,
		"time":      "09:30",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	appointmentID, _ := decodeData(t, recorder)["id"].(string)

	patientToken := p.tokenFor(t, p.patient)
	recorder = p.do(t, http.MethodPost, "/api/v1/chat/"+appointmentID+"/messages", patientToken, gin.H{
		"content": "running five minutes late",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	messageID, _ := decodeData(t, recorder)["id"].(string)

	doctorToken := p.tokenFor(t, p.doctor)
	recorder = p.do(t, http.MethodGet, "/api/v1/chat/"+appointmentID+"/messages", doctorToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var listEnvelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &listEnvelope); err != nil {
		t.Fatalf("decode message list: %v", err)
	}
	if len(listEnvelope.Data) != 1 || listEnvelope.Data[0]["content"] != "running five minutes late" {
		t.Fatalf("unexpected message list: %v", listEnvelope.Data)
	}

	// Only the recipient marks a message read.
	recorder = p.do(t, http.MethodPatch, "/api/v1/chat/messages/"+messageID+"/read", patientToken, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 marking own message, got %d", recorder.Code)
	}
	recorder = p.do(t, http.MethodPatch, "/api/v1/chat/messages/"+messageID+"/read", doctorToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if decodeData(t, recorder)["readAt"] == nil {
		t.Fatal("expected readAt set after marking read")
	}

	// Chat is restricted to the appointment's two parties.
	recorder = p.do(t, http.MethodPost, "/api/v1/chat/"+appointmentID+"/messages", adminToken, gin.H{
		"content": "admin here",
	})
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-participant, got %d", recorder.Code)
	}
}

func TestCallEntryOverHTTP(t *testing.T) {
	p := newPortal(t)
	adminToken := p.tokenFor(t, p.admin)

	recorder := p.do(t, http.MethodPost, "/api/v1/appointment-requests", adminToken, gin.H{
		"doctorId":  p.doctor.ID,
		"patientId": p.patient.ID,
		"date":      mondayDate,
		"time":      "10:00",
		"message":   "video consult",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	requestID, _ := decodeData(t, recorder)["id"].(string)

	doctorToken := p.tokenFor(t, p.doctor)
	recorder = p.do(t, http.MethodPost, "/api/v1/appointment-requests/"+requestID+"/approve", doctorToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	appointment := decodeData(t, recorder)["appointment"].(map[string]interface{})
	callToken, _ := appointment["callToken"].(string)

	// Both parties enter with the 4-digit token and get a room token back.
	for _, user := range []*models.User{p.doctor, p.patient} {
		recorder = p.do(t, http.MethodPost, "/api/v1/calls/enter", p.tokenFor(t, user), gin.H{
			"token": callToken,
		})
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d: %s", user.Role, recorder.Code, recorder.Body.String())
		}
		data := decodeData(t, recorder)
		session, _ := data["session"].(map[string]interface{})
		if session == nil || session["roomToken"] == "" || session["roomToken"] == nil {
			t.Fatalf("expected room token for %s: %v", user.Role, data)
		}
	}

	// A bystander with the token but no involvement is refused.
	recorder = p.do(t, http.MethodPost, "/api/v1/calls/enter", adminToken, gin.H{
		"token": callToken,
	})
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for uninvolved user, got %d: %s", recorder.Code, recorder.Body.String())
	}
}
