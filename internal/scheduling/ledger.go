package scheduling

import (
	"time"

	"gorm.io/gorm"

	"telemedicine-portal-server/internal/models"
)

// CreateParams carries a staff-created booking intent.
type CreateParams struct {
	DoctorID    string
	PatientID   string
	Date        time.Time
	Time        string
	Notes       string
	CreatedByID string
}

// Create validates the slot and books it in one transaction, so two
// concurrent requests for the same slot cannot both pass the check and both
// write.
func (s *Service) Create(p CreateParams) (*models.Appointment, error) {
	var appointment *models.Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := validate(tx, p.DoctorID, p.PatientID, p.Date, p.Time, ""); err != nil {
			return err
		}
		a := &models.Appointment{
			DoctorID:    p.DoctorID,
			PatientID:   p.PatientID,
			Date:        models.DateOnly(p.Date),
			Time:        p.Time,
			Status:      models.StatusScheduled,
			Notes:       p.Notes,
			CreatedByID: p.CreatedByID,
		}
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		appointment = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// Update moves an existing appointment to a new doctor/patient/slot through
// the same validation as creation, excluding the record itself from the
// conflict queries.
func (s *Service) Update(appointmentID string, p CreateParams) (*models.Appointment, error) {
	var appointment *models.Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var a models.Appointment
		if err := tx.First(&a, "id = ?", appointmentID).Error; err != nil {
			return err
		}
		if err := validate(tx, p.DoctorID, p.PatientID, p.Date, p.Time, a.ID); err != nil {
			return err
		}
		a.DoctorID = p.DoctorID
		a.PatientID = p.PatientID
		a.Date = models.DateOnly(p.Date)
		a.Time = p.Time
		if p.Notes != "" {
			a.Notes = p.Notes
		}
		if err := tx.Save(&a).Error; err != nil {
			return err
		}
		appointment = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// Cancel marks the appointment cancelled. No validation is re-run and
// nothing else changes.
func (s *Service) Cancel(appointmentID string) (*models.Appointment, error) {
	var appointment *models.Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var a models.Appointment
		if err := tx.First(&a, "id = ?", appointmentID).Error; err != nil {
			return err
		}
		a.Status = models.StatusCancelled
		if err := tx.Save(&a).Error; err != nil {
			return err
		}
		appointment = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// Reschedule moves the appointment to a new slot on the doctor's authority.
// The pre-reschedule slot is captured into OriginalDate/OriginalTime the
// first time only; later reschedules leave it untouched. Conflict checking
// runs only when Options.ValidateOnReschedule is set.
func (s *Service) Reschedule(appointmentID string, newDate time.Time, newTime string, byDoctorID string) (*models.Appointment, error) {
	var appointment *models.Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var a models.Appointment
		if err := tx.First(&a, "id = ?", appointmentID).Error; err != nil {
			return err
		}
		if a.DoctorID != byDoctorID {
			return ErrNotAppointmentDoctor
		}
		if s.opts.ValidateOnReschedule {
			if err := validate(tx, a.DoctorID, a.PatientID, newDate, newTime, a.ID); err != nil {
				return err
			}
		}
		if a.OriginalDate == nil {
			date, clock := a.Date, a.Time
			a.OriginalDate = &date
			a.OriginalTime = &clock
		}
		a.Date = models.DateOnly(newDate)
		a.Time = newTime
		a.ModifiedByDoctor = true
		a.Status = models.StatusRescheduled
		if err := tx.Save(&a).Error; err != nil {
			return err
		}
		appointment = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// Complete attaches the consultation notes and closes the appointment. Only
// the assigned doctor may complete it.
func (s *Service) Complete(appointmentID, consultationNotes, byDoctorID string) (*models.Appointment, error) {
	var appointment *models.Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var a models.Appointment
		if err := tx.First(&a, "id = ?", appointmentID).Error; err != nil {
			return err
		}
		if a.DoctorID != byDoctorID {
			return ErrNotAppointmentDoctor
		}
		a.ConsultationNotes = consultationNotes
		a.Status = models.StatusDone
		if err := tx.Save(&a).Error; err != nil {
			return err
		}
		appointment = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}
