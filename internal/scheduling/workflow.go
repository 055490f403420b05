package scheduling

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"telemedicine-portal-server/internal/models"
)

// ProposeParams carries a staff-proposed booking awaiting doctor review.
type ProposeParams struct {
	DoctorID      string
	PatientID     string
	RequestedDate time.Time
	RequestedTime string
	Message       string
	RequestedByID string
}

// Propose files a pending appointment request. No availability or conflict
// validation happens here: the doctor is the authority on the slot and
// validation is deferred to approval.
func (s *Service) Propose(p ProposeParams) (*models.AppointmentRequest, error) {
	request := &models.AppointmentRequest{
		DoctorID:      p.DoctorID,
		PatientID:     p.PatientID,
		RequestedByID: p.RequestedByID,
		RequestedDate: models.DateOnly(p.RequestedDate),
		RequestedTime: p.RequestedTime,
		Message:       p.Message,
		Status:        models.RequestPending,
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// Approve accepts the request as asked: the request turns approved with the
// requested slot recorded as the approved one, and a scheduled Appointment is
// created carrying the request message as its notes, the original requester
// as its creator and a fresh 4-digit call token. With ValidateOnApprove set,
// a slot that no longer passes the conflict check refuses approval — the
// doctor should Modify with a counter-proposal instead.
func (s *Service) Approve(requestID, byDoctorID string) (*models.AppointmentRequest, *models.Appointment, error) {
	var (
		request     *models.AppointmentRequest
		appointment *models.Appointment
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var req models.AppointmentRequest
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			return err
		}
		if req.DoctorID != byDoctorID {
			return ErrNotRequestDoctor
		}
		if req.Status.Closed() {
			return ErrRequestClosed
		}

		if s.opts.ValidateOnApprove {
			if err := validate(tx, req.DoctorID, req.PatientID, req.RequestedDate, req.RequestedTime, ""); err != nil {
				if _, ok := IsValidationError(err); ok {
					return fmt.Errorf("cannot approve, slot no longer available: %w", err)
				}
				return err
			}
		}

		token, err := mintCallToken(tx)
		if err != nil {
			return err
		}

		a := &models.Appointment{
			DoctorID:    req.DoctorID,
			PatientID:   req.PatientID,
			Date:        req.RequestedDate,
			Time:        req.RequestedTime,
			Status:      models.StatusScheduled,
			Notes:       req.Message,
			CreatedByID: req.RequestedByID,
			CallToken:   token,
		}
		if err := tx.Create(a).Error; err != nil {
			return err
		}

		req.Status = models.RequestApproved
		approvedDate, approvedTime := req.RequestedDate, req.RequestedTime
		req.ApprovedDate = &approvedDate
		req.ApprovedTime = &approvedTime
		if err := tx.Save(&req).Error; err != nil {
			return err
		}

		request = &req
		appointment = a
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return request, appointment, nil
}

// Modify records the doctor's counter-proposal. The request closes as
// modified with the new slot in ApprovedDate/ApprovedTime; no Appointment is
// created — booking the counter-proposed slot takes a fresh request or a
// staff-created appointment.
func (s *Service) Modify(requestID string, newDate time.Time, newTime, doctorResponse, byDoctorID string) (*models.AppointmentRequest, error) {
	var request *models.AppointmentRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var req models.AppointmentRequest
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			return err
		}
		if req.DoctorID != byDoctorID {
			return ErrNotRequestDoctor
		}
		if req.Status.Closed() {
			return ErrRequestClosed
		}

		req.Status = models.RequestModified
		approvedDate := models.DateOnly(newDate)
		req.ApprovedDate = &approvedDate
		req.ApprovedTime = &newTime
		req.DoctorResponse = doctorResponse
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		request = &req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Reject closes the request with the doctor's response. Terminal; no
// Appointment is created.
func (s *Service) Reject(requestID, doctorResponse, byDoctorID string) (*models.AppointmentRequest, error) {
	var request *models.AppointmentRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var req models.AppointmentRequest
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			return err
		}
		if req.DoctorID != byDoctorID {
			return ErrNotRequestDoctor
		}
		if req.Status.Closed() {
			return ErrRequestClosed
		}

		req.Status = models.RequestRejected
		req.DoctorResponse = doctorResponse
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		request = &req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}
