package models

import (
	"time"

	"gorm.io/gorm"
)

// DoctorProfile holds the clinical details attached to a doctor user.
type DoctorProfile struct {
	BaseModel
	UserID         string `gorm:"size:36;uniqueIndex" json:"userId"`
	Specialization string `gorm:"size:100" json:"specialization"`
	LicenseNumber  string `gorm:"size:50" json:"licenseNumber"`
	Biography      string `gorm:"type:text" json:"biography"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// PatientProfile holds the medical details attached to a patient user.
type PatientProfile struct {
	BaseModel
	UserID         string     `gorm:"size:36;uniqueIndex" json:"userId"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	BloodGroup     string     `gorm:"size:5" json:"bloodGroup"`
	Address        string     `gorm:"type:text" json:"address"`
	MedicalHistory string     `gorm:"type:text" json:"medicalHistory"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// EnsureProfile creates the role-specific profile row for a freshly created
// user. It is invoked synchronously by the user-creation handlers right after
// the user row is written; non-clinical roles have no profile.
func EnsureProfile(db *gorm.DB, user *User) error {
	switch user.Role {
	case RoleDoctor:
		var existing DoctorProfile
		err := db.Where("user_id = ?", user.ID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return db.Create(&DoctorProfile{UserID: user.ID}).Error
		}
		return err
	case RolePatient:
		var existing PatientProfile
		err := db.Where("user_id = ?", user.ID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return db.Create(&PatientProfile{UserID: user.ID}).Error
		}
		return err
	}
	return nil
}
