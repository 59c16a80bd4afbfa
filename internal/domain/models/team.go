package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Team struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerID       uuid.UUID      `gorm:"type:uuid;index;not null" json:"owner_id"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	AssistantName string         `gorm:"size:100;default:Rocket" json:"assistant_name"`
	Priorities    StringArray    `gorm:"type:text[]" json:"priorities"`
	Settings      JSON           `gorm:"type:jsonb;default:'{}'" json:"settings"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Owner   User         `gorm:"foreignKey:OwnerID" json:"-"`
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"-"`
	Skills  []Skill      `gorm:"foreignKey:TeamID" json:"-"`
}

func (Team) TableName() string {
	return "teams"
}

type TeamMember struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TeamID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"team_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Role      string     `gorm:"size:20;not null;default:member" json:"role"`
	JoinedAt  *time.Time `gorm:"default:now()" json:"joined_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	Team Team  `gorm:"foreignKey:TeamID" json:"-"`
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (TeamMember) TableName() string {
	return "team_members"
}

// Skill is an active capability module scoped to a team. The context
// loader surfaces active skill names to the Generation Service so the
// prompt reflects what the assistant can actually do.
type Skill struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TeamID      uuid.UUID `gorm:"type:uuid;index;not null" json:"team_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Team Team `gorm:"foreignKey:TeamID" json:"-"`
}

func (Skill) TableName() string {
	return "skills"
}
