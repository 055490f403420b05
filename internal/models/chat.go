package models

import (
	"time"
)

// ChatRoom is the per-appointment message thread. One room per appointment,
// created lazily the first time a participant sends a message.
type ChatRoom struct {
	BaseModel
	AppointmentID string `gorm:"size:36;uniqueIndex" json:"appointmentId"`

	// Relations
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
	Messages    []Message   `gorm:"foreignKey:ChatRoomID" json:"-"`
}

// Message represents a chat message inside an appointment's room
type Message struct {
	BaseModel
	ChatRoomID string     `gorm:"size:36;index" json:"chatRoomId"`
	SenderID   string     `gorm:"size:36;index" json:"senderId"`
	Content    string     `gorm:"type:text" json:"content"`
	ReadAt     *time.Time `json:"readAt,omitempty"`

	// Relations
	ChatRoom ChatRoom `gorm:"foreignKey:ChatRoomID" json:"-"`
	Sender   User     `gorm:"foreignKey:SenderID" json:"-"`
}
