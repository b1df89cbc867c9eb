package services

import (
	"github.com/Cyvadra/tv-relay/internal/models"
	"gorm.io/gorm"
)

// AlertRecorder stores the history of relayed alerts
type AlertRecorder interface {
	SaveAlert(alert *models.Alert) error
}

// AlertService handles alert history operations
type AlertService struct {
	db *gorm.DB
}

// NewAlertService creates a new alert service
func NewAlertService(db *gorm.DB) *AlertService {
	return &AlertService{db: db}
}

// SaveAlert saves an alert together with its deliveries
func (s *AlertService) SaveAlert(alert *models.Alert) error {
	return s.db.Create(alert).Error
}

// GetAlert retrieves an alert by ID
func (s *AlertService) GetAlert(id uint) (*models.Alert, error) {
	var alert models.Alert
	if err := s.db.Preload("Deliveries").First(&alert, id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

// GetAlerts retrieves alerts with pagination and optional status filter
func (s *AlertService) GetAlerts(page, limit int, status string) ([]models.Alert, int64, error) {
	var alerts []models.Alert
	var total int64

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	query := s.db.Model(&models.Alert{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	// Get total count
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get paginated results
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC, id DESC").Find(&alerts).Error; err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

// deliveryRecords converts broadcast results into history rows
func deliveryRecords(kind string, results []DeliveryResult) []models.Delivery {
	records := make([]models.Delivery, 0, len(results))
	for _, r := range results {
		record := models.Delivery{
			ChannelID: r.ChannelID,
			Kind:      kind,
			Success:   r.OK(),
		}
		if r.Err != nil {
			record.Error = r.Err.Error()
		}
		records = append(records, record)
	}
	return records
}
