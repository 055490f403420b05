package models

// Hospital represents a tenant hospital in the portal.
// Doctors, patients and admins are affiliated with exactly one hospital;
// superadmins have no affiliation.
type Hospital struct {
	BaseModel
	Name         string `gorm:"size:255;not null" json:"name"`
	Address      string `gorm:"type:text" json:"address"`
	ContactEmail string `gorm:"size:255" json:"contactEmail"`
	PhoneNumber  string `gorm:"size:20" json:"phoneNumber"`
	Website      string `gorm:"size:255" json:"website,omitempty"`

	// Relations
	Users []User `gorm:"foreignKey:HospitalID" json:"-"`
}
