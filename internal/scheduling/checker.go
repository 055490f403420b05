package scheduling

import (
	"time"

	"gorm.io/gorm"

	"telemedicine-portal-server/internal/models"
)

// Rejection reasons surfaced to the user. The checker reports only the first
// violation it finds.
const (
	ReasonDoctorUnavailable = "doctor is not available at this time"
	ReasonDoctorBooked      = "doctor already has an appointment at this time"
	ReasonPatientBooked     = "patient already has an appointment at this time"
)

// WeekdayIndex converts a date to the Monday=0 .. Sunday=6 convention used
// by availability windows.
func WeekdayIndex(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// ListWindows returns the doctor's open windows for one weekday, ordered by
// start time. Suspended windows (is_available=false) are filtered out; no
// merging or overlap resolution is applied.
func (s *Service) ListWindows(doctorID string, weekday int) ([]models.AvailabilityWindow, error) {
	return listWindows(s.db, doctorID, weekday)
}

func listWindows(tx *gorm.DB, doctorID string, weekday int) ([]models.AvailabilityWindow, error) {
	var windows []models.AvailabilityWindow
	err := tx.
		Where("doctor_id = ? AND day_of_week = ? AND is_available = ?", doctorID, weekday, true).
		Order("start_time asc").
		Find(&windows).Error
	return windows, err
}

// Validate decides whether the proposed doctor/patient/date/time slot is
// bookable. excludeID names an appointment being edited in place, which is
// ignored by the conflict queries. A *ValidationError result is a normal
// rejection; any other error is an infrastructure fault.
//
// Checks run in fixed order and stop at the first failure:
//  1. the clock must fall inside at least one open window for the weekday
//     (endpoints inclusive),
//  2. the doctor must not hold a scheduled/completed appointment at the slot,
//  3. neither must the patient.
func (s *Service) Validate(doctorID, patientID string, date time.Time, clock string, excludeID string) error {
	return validate(s.db, doctorID, patientID, date, clock, excludeID)
}

func validate(tx *gorm.DB, doctorID, patientID string, date time.Time, clock string, excludeID string) error {
	windows, err := listWindows(tx, doctorID, WeekdayIndex(date))
	if err != nil {
		return err
	}

	inWindow := false
	for _, w := range windows {
		if w.Covers(clock) {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return &ValidationError{Reason: ReasonDoctorUnavailable}
	}

	booked, err := slotTaken(tx, "doctor_id", doctorID, date, clock, excludeID)
	if err != nil {
		return err
	}
	if booked {
		return &ValidationError{Reason: ReasonDoctorBooked}
	}

	booked, err = slotTaken(tx, "patient_id", patientID, date, clock, excludeID)
	if err != nil {
		return err
	}
	if booked {
		return &ValidationError{Reason: ReasonPatientBooked}
	}

	return nil
}

func slotTaken(tx *gorm.DB, column, userID string, date time.Time, clock string, excludeID string) (bool, error) {
	query := tx.Model(&models.Appointment{}).
		Where(column+" = ? AND date = ? AND time = ? AND status IN ?",
			userID, models.DateOnly(date), clock, bookedStatuses)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
