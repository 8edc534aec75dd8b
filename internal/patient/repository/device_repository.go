package repository

import (
	"time"

	patientdomain "carelink-backend/internal/patient/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokenRepository defines storage operations for FCM device tokens
type DeviceTokenRepository interface {
	SaveToken(token, deviceInfo string) error
	GetTokens() ([]patientdomain.DeviceToken, error)
	DeleteToken(token string) error
}

// deviceTokenRepository implements DeviceTokenRepository interface
type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository creates a new instance of deviceTokenRepository
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{
		db: db,
	}
}

// SaveToken saves or refreshes a device token (atomic upsert)
func (r *deviceTokenRepository) SaveToken(token, deviceInfo string) error {
	deviceToken := &patientdomain.DeviceToken{
		ID:         uuid.New().String(),
		Token:      token,
		DeviceInfo: deviceInfo,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_info", "updated_at"}),
	}).Create(deviceToken).Error
}

// GetTokens returns all registered device tokens
func (r *deviceTokenRepository) GetTokens() ([]patientdomain.DeviceToken, error) {
	var tokens []patientdomain.DeviceToken
	err := r.db.Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteToken removes a specific device token
func (r *deviceTokenRepository) DeleteToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&patientdomain.DeviceToken{}).Error
}
