package models

// Days of the week, Monday first. Matches the weekday index stored on
// availability windows.
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// AvailabilityWindow is a recurring weekly interval during which a doctor
// accepts appointments. A doctor may have several windows on the same day;
// overlap between them is not rejected. Times are "HH:MM" strings so
// lexicographic order matches clock order.
type AvailabilityWindow struct {
	BaseModel
	DoctorID    string `gorm:"size:36;index" json:"doctorId"`
	DayOfWeek   int    `gorm:"not null" json:"dayOfWeek"` // 0=Monday .. 6=Sunday
	StartTime   string `gorm:"size:5;not null" json:"startTime"`
	EndTime     string `gorm:"size:5;not null" json:"endTime"`
	IsAvailable bool   `gorm:"default:true" json:"isAvailable"`

	// Relations
	Doctor User `gorm:"foreignKey:DoctorID" json:"-"`
}

// TableName specifies the table name for AvailabilityWindow
func (AvailabilityWindow) TableName() string {
	return "availability_windows"
}

// Covers reports whether clock ("HH:MM") falls inside the window, both
// endpoints included.
func (w *AvailabilityWindow) Covers(clock string) bool {
	return w.StartTime <= clock && clock <= w.EndTime
}
