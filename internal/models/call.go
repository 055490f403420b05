package models

import (
	"time"
)

// CallStatus represents the status of a video call
type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallActive    CallStatus = "active"
	CallEnded     CallStatus = "ended"
	CallRejected  CallStatus = "rejected"
)

// VideoCall records a single call attempt between the two parties of an
// appointment.
type VideoCall struct {
	BaseModel
	AppointmentID string     `gorm:"size:36;index" json:"appointmentId"`
	CallerID      string     `gorm:"size:36" json:"callerId"`
	ReceiverID    string     `gorm:"size:36" json:"receiverId"`
	Status        CallStatus `gorm:"size:20;default:'initiated'" json:"status"`
	StartedAt     time.Time  `json:"startedAt"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
	Duration      int        `gorm:"default:0" json:"duration"` // seconds, set when the call ends

	// Relations
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
	Caller      User        `gorm:"foreignKey:CallerID" json:"-"`
	Receiver    User        `gorm:"foreignKey:ReceiverID" json:"-"`
}

// CallSession is the media-room state for one appointment. The room token is
// a signed capability handed to both participants once they redeem the
// appointment's 4-digit call token.
type CallSession struct {
	BaseModel
	AppointmentID string `gorm:"size:36;uniqueIndex" json:"appointmentId"`
	ChannelName   string `gorm:"size:200" json:"channelName"`
	RoomToken     string `gorm:"type:text" json:"roomToken"`
	DoctorJoined  bool   `gorm:"default:false" json:"doctorJoined"`
	PatientJoined bool   `gorm:"default:false" json:"patientJoined"`

	// Relations
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
}
