package entities

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sensor is a device installed in a room of a user's house.
// Location is the room (bedroom, livingroom, ...), never the user's place.
type Sensor struct {
	ID       string `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Type     string `gorm:"not null" json:"type"`
	Model    string `gorm:"not null" json:"model"`
	Location string `gorm:"not null" json:"location"`
	UserID   string `gorm:"index;type:varchar(36);not null" json:"userId"`
}

// SensorPatch carries the fields of a partial sensor update.
type SensorPatch struct {
	Type     *string `json:"type,omitempty"`
	Model    *string `json:"model,omitempty"`
	Location *string `json:"location,omitempty"`
	UserID   *string `json:"userId,omitempty"`
}

func (p SensorPatch) Apply(s *Sensor) {
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Model != nil {
		s.Model = *p.Model
	}
	if p.Location != nil {
		s.Location = *p.Location
	}
	if p.UserID != nil {
		s.UserID = *p.UserID
	}
}

func (s *Sensor) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}
