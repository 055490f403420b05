package scheduling

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"telemedicine-portal-server/internal/models"
)

func (c *clinic) mustPropose(t *testing.T, clock string) *models.AppointmentRequest {
	t.Helper()
	request, err := c.service.Propose(ProposeParams{
		DoctorID:      c.doctor.ID,
		PatientID:     c.patient.ID,
		RequestedDate: aMonday,
		RequestedTime: clock,
		Message:       "recurring headache",
		RequestedByID: c.admin.ID,
	})
	if err != nil {
		t.Fatalf("propose request: %v", err)
	}
	return request
}

func TestProposeCreatesPendingRequest(t *testing.T) {
	c := newClinic(t, DefaultOptions())

	// Proposal is not validated, even for a slot outside every window.
	request, err := c.service.Propose(ProposeParams{
		DoctorID:      c.doctor.ID,
		PatientID:     c.patient.ID,
		RequestedDate: aMonday,
		RequestedTime: "22:00",
		Message:       "after hours please",
		RequestedByID: c.admin.ID,
	})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if request.Status != models.RequestPending {
		t.Fatalf("expected pending, got %s", request.Status)
	}
	if request.ApprovedDate != nil || request.ApprovedTime != nil {
		t.Fatal("expected no approved slot on a fresh request")
	}
}

func TestApproveCreatesAppointment(t *testing.T) {
	c := newClinic(t, DefaultOptions())
	request := c.mustPropose(t, "09:30")

	approved, appointment, err := c.service.Approve(request.ID, c.doctor.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if approved.Status != models.RequestApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.ApprovedDate == nil || !approved.ApprovedDate.Equal(models.DateOnly(aMonday)) {
		t.Fatal("expected approved date to match the requested date")
	}
	if approved.ApprovedTime == nil || *approved.ApprovedTime != "09:30" {
		t.Fatal("expected approved time to match the requested time")
	}

	if appointment.Status != models.StatusScheduled {
		t.Fatalf("expected scheduled appointment, got %s", appointment.Status)
	}
	if appointment.Notes != "recurring headache" {
		t.Fatalf("expected request message copied into notes, got %q", appointment.Notes)
	}
	if appointment.CreatedByID != c.admin.ID {
		t.Fatal("expected original requester recorded as creator")
	}

	// 4-digit numeric call token.
	if len(appointment.CallToken) != 4 {
		t.Fatalf("expected 4-character token, got %q", appointment.CallToken)
	}
	if n, err := strconv.Atoi(appointment.CallToken); err != nil || n < 1000 {
		t.Fatalf("expected numeric non-zero-padded token, got %q", appointment.CallToken)
	}
}

func TestApproveRequiresRequestDoctor(t *testing.T) {
	c := newClinic(t, DefaultOptions())
	request := c.mustPropose(t, "09:30")

	otherDoctor := seedUser(t, c.db, models.RoleDoctor, c.hospital)
	if _, _, err := c.service.Approve(request.ID, otherDoctor.ID); !errors.Is(err, ErrNotRequestDoctor) {
		t.Fatalf("expected ErrNotRequestDoctor, got %v", err)
	}

	// No mutation happened.
	var reloaded models.AppointmentRequest
	if err := c.db.First(&reloaded, "id = ?", request.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if reloaded.Status != models.RequestPending {
		t.Fatalf("expected request still pending, got %s", reloaded.Status)
	}
}

func TestApproveValidatesSlot(t *testing.T) {
	c := newClinic(t, DefaultOptions())
	c.mustCreate(t, c.patient2, aMonday, "09:30")
	request := c.mustPropose(t, "09:30")

	_, _, err := c.service.Approve(request.ID, c.doctor.ID)
	if err == nil {
		t.Fatal("expected approval of a taken slot to fail")
	}
	if _, ok := IsValidationError(err); !ok {
		t.Fatalf("expected wrapped validation rejection, got %v", err)
	}
	if !strings.Contains(err.Error(), "cannot approve, slot no longer available") {
		t.Fatalf("expected cannot-approve message, got %q", err.Error())
	}

	// The request stays pending so the doctor can modify instead.
	var reloaded models.AppointmentRequest
	if err := c.db.First(&reloaded, "id = ?", request.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if reloaded.Status != models.RequestPending {
		t.Fatalf("expected request still pending, got %s", reloaded.Status)
	}
}

// With approval validation off, approval books unconditionally.
func TestApproveSkipsValidationWhenDisabled(t *testing.T) {
	c := newClinic(t, Options{ValidateOnApprove: false})
	c.mustCreate(t, c.patient2, aMonday, "09:30")
	request := c.mustPropose(t, "09:30")

	_, appointment, err := c.service.Approve(request.ID, c.doctor.ID)
	if err != nil {
		t.Fatalf("expected unconditional approval, got %v", err)
	}
	if appointment.Time != "09:30" {
		t.Fatalf("expected double-booked 09:30 slot, got %s", appointment.Time)
	}
}

func TestTerminalRequestsRefuseFurtherTransitions(t *testing.T) {
	c := newClinic(t, DefaultOptions())
	request := c.mustPropose(t, "09:30")

	if _, _, err := c.service.Approve(request.ID, c.doctor.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// Rejecting an approved request is refused, not a second transition.
	if _, err := c.service.Reject(request.ID, "changed my mind", c.doctor.ID); !errors.Is(err, ErrRequestClosed) {
		t.Fatalf("expected ErrRequestClosed, got %v", err)
	}
	if _, _, err := c.service.Approve(request.ID, c.doctor.ID); !errors.Is(err, ErrRequestClosed) {
		t.Fatalf("expected ErrRequestClosed on re-approve, got %v", err)
	}
	if _, err := c.service.Modify(request.ID, aMonday, "10:00", "", c.doctor.ID); !errors.Is(err, ErrRequestClosed) {
		t.Fatalf("expected ErrRequestClosed on modify, got %v", err)
	}

	var reloaded models.AppointmentRequest
	if err := c.db.First(&reloaded, "id = ?", request.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if reloaded.Status != models.RequestApproved {
		t.Fatalf("expected request to stay approved, got %s", reloaded.Status)
	}
}

func TestModifyRecordsCounterProposal(t *testing.T) {
	c := newClinic(t, DefaultOptions())
	request := c.mustPropose(t, "09:30")

	modified, err := c.service.Modify(request.ID, aMonday, "11:00", "morning is full, 11 works", c.doctor.ID)
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if modified.Status != models.RequestModified {
		t.Fatalf("expected modified, got %s", modified.Status)
	}
	if modified.ApprovedTime == nil || *modified.ApprovedTime != "11:00" {
		t.Fatal("expected counter-proposed time recorded")
	}
	if modified.DoctorResponse != "morning is full, 11 works" {
		t.Fatalf("expected doctor response recorded, got %q", modified.DoctorResponse)
	}

	// Modification books nothing.
	var count int64
	if err := c.db.Model(&models.Appointment{}).Count(&count).Error; err != nil {
		t.Fatalf("count appointments: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no appointments after modify, got %d", count)
	}
}

func TestRejectClosesRequest(t *testing.T) {
	c := newClinic(t, DefaultOptions())
	request := c.mustPropose(t, "09:30")

	rejected, err := c.service.Reject(request.ID, "on leave that week", c.doctor.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.RequestRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if rejected.DoctorResponse != "on leave that week" {
		t.Fatalf("expected doctor response recorded, got %q", rejected.DoctorResponse)
	}

	var count int64
	if err := c.db.Model(&models.Appointment{}).Count(&count).Error; err != nil {
		t.Fatalf("count appointments: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no appointments after reject, got %d", count)
	}
}

// Minted tokens skip values already held by live appointments.
func TestMintCallTokenAvoidsLiveCollisions(t *testing.T) {
	c := newClinic(t, DefaultOptions())

	// Occupy a band of the token space on live appointments.
	taken := map[string]bool{}
	for i := 1000; i < 1500; i++ {
		token := strconv.Itoa(i)
		taken[token] = true
		appointment := models.Appointment{
			DoctorID:  c.doctor.ID,
			PatientID: c.patient.ID,
			Date:      models.DateOnly(aMonday),
			Time:      "09:00",
			Status:    models.StatusScheduled,
			CallToken: token,
		}
		if err := c.db.Create(&appointment).Error; err != nil {
			t.Fatalf("seed appointment %d: %v", i, err)
		}
	}

	for i := 0; i < 20; i++ {
		token, err := mintCallToken(c.db)
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		if taken[token] {
			t.Fatalf("minted token %s collides with a live appointment", token)
		}
	}
}
