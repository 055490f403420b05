package scheduling

import (
	"errors"
	"math/rand"
	"strconv"

	"gorm.io/gorm"

	"telemedicine-portal-server/internal/models"
)

// Call tokens stay 4 digits for compatibility with the call-entry flow, so
// uniqueness is enforced by retrying against tokens still attached to live
// appointments.
const tokenAttempts = 32

var errTokenSpaceExhausted = errors.New("could not allocate a unique call token")

func mintCallToken(tx *gorm.DB) (string, error) {
	for i := 0; i < tokenAttempts; i++ {
		token := strconv.Itoa(1000 + rand.Intn(9000))

		var count int64
		err := tx.Model(&models.Appointment{}).
			Where("call_token = ? AND status IN ?", token, models.LiveStatuses).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return token, nil
		}
	}
	return "", errTokenSpaceExhausted
}
