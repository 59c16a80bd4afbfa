package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email              string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName          string         `gorm:"size:100" json:"first_name"`
	LastName           string         `gorm:"size:100" json:"last_name"`
	EmailNotifications bool           `gorm:"default:true" json:"email_notifications"`
	Priorities         StringArray    `gorm:"type:text[]" json:"priorities"`
	Metadata           JSON           `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Memberships []TeamMember `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName prefers the normalized name columns and falls back to the
// embedded account metadata captured at signup.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		if u.LastName != "" {
			return u.FirstName + " " + u.LastName
		}
		return u.FirstName
	}
	if name, ok := u.Metadata["full_name"].(string); ok && name != "" {
		return name
	}
	if name, ok := u.Metadata["name"].(string); ok && name != "" {
		return name
	}
	return u.Email
}
