package models

import (
	"time"
)

// RequestStatus represents the status of an appointment request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
	RequestModified RequestStatus = "modified"
)

// Closed reports whether the request has reached a terminal state.
func (s RequestStatus) Closed() bool {
	return s != RequestPending
}

// AppointmentRequest is a staff-proposed booking awaiting the doctor's
// decision. Approval spawns an Appointment; modification records the
// doctor's counter-proposal in ApprovedDate/ApprovedTime without booking.
type AppointmentRequest struct {
	BaseModel
	DoctorID       string        `gorm:"size:36;index" json:"doctorId"`
	PatientID      string        `gorm:"size:36;index" json:"patientId"`
	RequestedByID  string        `gorm:"size:36" json:"requestedById"`
	RequestedDate  time.Time     `gorm:"type:date" json:"requestedDate"`
	RequestedTime  string        `gorm:"size:5" json:"requestedTime"`
	Message        string        `gorm:"type:text" json:"message"`
	Status         RequestStatus `gorm:"size:20;default:'pending'" json:"status"`
	DoctorResponse string        `gorm:"type:text" json:"doctorResponse"`
	ApprovedDate   *time.Time    `gorm:"type:date" json:"approvedDate,omitempty"`
	ApprovedTime   *string       `gorm:"size:5" json:"approvedTime,omitempty"`

	// Relations
	Doctor      User `gorm:"foreignKey:DoctorID" json:"-"`
	Patient     User `gorm:"foreignKey:PatientID" json:"-"`
	RequestedBy User `gorm:"foreignKey:RequestedByID" json:"-"`
}
