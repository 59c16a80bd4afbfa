package repositories

import (
	"context"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeamRepository struct {
	*BaseRepository[models.Team]
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{
		BaseRepository: NewBaseRepository[models.Team](db),
	}
}

// FindMembers resolves the full roster with user rows preloaded, in
// roster-iteration order.
func (r *TeamRepository) FindMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.DB().WithContext(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *TeamRepository) FindActiveSkills(ctx context.Context, teamID uuid.UUID) ([]models.Skill, error) {
	var skills []models.Skill
	err := r.DB().WithContext(ctx).
		Where("team_id = ? AND is_active = ?", teamID, true).
		Order("name ASC").
		Find(&skills).Error
	return skills, err
}
