package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HouseSize is derived from the number of persons living in a house.
type HouseSize string

const (
	HouseSmall  HouseSize = "small"
	HouseMedium HouseSize = "medium"
	HouseBig    HouseSize = "big"
)

// HouseSizeFor returns the house size for a household:
// 1-2 persons small, 3-4 medium, 5 and more big.
func HouseSizeFor(personsInHouse int) HouseSize {
	switch {
	case personsInHouse <= 2:
		return HouseSmall
	case personsInHouse <= 4:
		return HouseMedium
	default:
		return HouseBig
	}
}

// User is a monitored household.
type User struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Location       string    `gorm:"not null" json:"location"`
	PersonsInHouse int       `gorm:"not null" json:"personsInHouse"`
	HouseSize      HouseSize `gorm:"type:varchar(16);not null" json:"houseSize"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserPatch carries the fields of a partial user update. Nil means unchanged.
type UserPatch struct {
	Location       *string `json:"location,omitempty"`
	PersonsInHouse *int    `json:"personsInHouse,omitempty"`
}

// Apply merges the patch into u and recomputes the derived house size.
func (p UserPatch) Apply(u *User) {
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.PersonsInHouse != nil {
		u.PersonsInHouse = *p.PersonsInHouse
	}
	u.HouseSize = HouseSizeFor(u.PersonsInHouse)
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

func (u *User) BeforeSave(tx *gorm.DB) (err error) {
	u.HouseSize = HouseSizeFor(u.PersonsInHouse)
	return
}
