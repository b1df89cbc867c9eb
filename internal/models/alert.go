package models

import (
	"time"

	"gorm.io/gorm"
)

// Alert statuses
const (
	AlertStatusReceived  = "received"
	AlertStatusSkipped   = "skipped"
	AlertStatusForwarded = "forwarded"
	AlertStatusFailed    = "failed"
)

// Delivery kinds
const (
	DeliveryKindRaw    = "raw"
	DeliveryKindSignal = "signal"
	DeliveryKindError  = "error"
)

// Alert represents a webhook alert received by the relay
type Alert struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Ticker     string         `json:"ticker"`
	Direction  string         `json:"direction"`
	Strategy   string         `json:"strategy"`
	Structured bool           `json:"structured"`
	RawPayload string         `json:"raw_payload" gorm:"type:text"`
	Status     string         `json:"status" gorm:"default:'received';index"`
	Error      string         `json:"error,omitempty"`
	Channels   int            `json:"channels"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	Deliveries []Delivery `json:"deliveries,omitempty" gorm:"foreignKey:AlertID"`
}

// Delivery is the outcome of sending one message of an alert to one channel
type Delivery struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AlertID   uint      `json:"alert_id" gorm:"index;not null"`
	ChannelID string    `json:"channel_id"`
	Kind      string    `json:"kind"` // raw, signal, error
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
