package models

import (
	"time"

	"gorm.io/gorm"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
	StatusDone        AppointmentStatus = "done"
)

// LiveStatuses are the states whose call tokens remain redeemable. Token
// minting and token redemption must agree on this set: minting reuses tokens
// held by any other status, so redemption must ignore those rows too.
var LiveStatuses = []AppointmentStatus{
	StatusScheduled,
	StatusCompleted,
	StatusRescheduled,
}

// Appointment represents a booked consultation slot. Date carries the day
// only; Time is the "HH:MM" clock of the slot. The model is point-in-time:
// no duration is stored, so conflicts are collisions on the exact slot.
type Appointment struct {
	BaseModel
	DoctorID          string            `gorm:"size:36;index" json:"doctorId"`
	PatientID         string            `gorm:"size:36;index" json:"patientId"`
	HospitalID        *string           `gorm:"size:36;index" json:"hospitalId,omitempty"`
	Date              time.Time         `gorm:"type:date;index" json:"date"`
	Time              string            `gorm:"size:5" json:"time"`
	Status            AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	Notes             string            `gorm:"type:text" json:"notes"`
	ConsultationNotes string            `gorm:"type:text" json:"consultationNotes"` // written at completion
	CreatedByID       string            `gorm:"size:36" json:"createdById"`
	IsCrossHospital   bool              `gorm:"default:false" json:"isCrossHospital"`
	OriginalDate      *time.Time        `gorm:"type:date" json:"originalDate,omitempty"`
	OriginalTime      *string           `gorm:"size:5" json:"originalTime,omitempty"`
	ModifiedByDoctor  bool              `gorm:"default:false" json:"modifiedByDoctor"`
	CallToken         string            `gorm:"size:4" json:"callToken,omitempty"`

	// Relations
	Doctor    User `gorm:"foreignKey:DoctorID" json:"-"`
	Patient   User `gorm:"foreignKey:PatientID" json:"-"`
	CreatedBy User `gorm:"foreignKey:CreatedByID" json:"-"`
}

// BeforeSave re-derives the owning hospital and the cross-hospital flag from
// the current doctor and patient rows. Running on every save keeps both in
// step when a user's affiliation changes after booking.
func (a *Appointment) BeforeSave(tx *gorm.DB) error {
	var doctor, patient User
	if err := tx.Select("id", "hospital_id").First(&doctor, "id = ?", a.DoctorID).Error; err != nil {
		return err
	}
	if err := tx.Select("id", "hospital_id").First(&patient, "id = ?", a.PatientID).Error; err != nil {
		return err
	}
	a.HospitalID = doctor.HospitalID
	a.IsCrossHospital = !SameHospital(doctor.HospitalID, patient.HospitalID)
	return nil
}
