package contextload

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
)

type fakeUsers struct {
	user *models.User
	err  error
}

func (f *fakeUsers) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	return f.user, f.err
}

type fakeTeams struct {
	team      *models.Team
	teamErr   error
	skills    []models.Skill
	skillsErr error
}

func (f *fakeTeams) FindByID(context.Context, uuid.UUID) (*models.Team, error) {
	return f.team, f.teamErr
}

func (f *fakeTeams) FindActiveSkills(context.Context, uuid.UUID) ([]models.Skill, error) {
	return f.skills, f.skillsErr
}

func TestLoadFullContext(t *testing.T) {
	teamID := uuid.New()
	users := &fakeUsers{user: &models.User{
		Email:      "ana@example.com",
		FirstName:  "Ana",
		LastName:   "Reyes",
		Priorities: models.StringArray{"growth"},
	}}
	teams := &fakeTeams{
		team: &models.Team{
			Name:          "Sales",
			AssistantName: "Scout",
			Priorities:    models.StringArray{"pipeline", "renewals"},
		},
		skills: []models.Skill{{Name: "crm_lookup"}, {Name: "web_search"}},
	}

	l := NewLoader(users, teams, zerolog.Nop())
	b := l.Load(context.Background(), uuid.New(), &teamID)

	assert.Equal(t, "Ana Reyes", b.UserName)
	assert.Equal(t, "ana@example.com", b.UserEmail)
	assert.Equal(t, "Sales", b.TeamName)
	assert.Equal(t, "Scout", b.AssistantName)
	assert.Equal(t, []string{"pipeline", "renewals"}, b.Priorities)
	assert.Equal(t, []string{"crm_lookup", "web_search"}, b.Skills)
}

func TestLoadPersonalReportSkipsTeam(t *testing.T) {
	users := &fakeUsers{user: &models.User{Email: "solo@example.com"}}
	teams := &fakeTeams{teamErr: errors.New("should not be called")}

	l := NewLoader(users, teams, zerolog.Nop())
	b := l.Load(context.Background(), uuid.New(), nil)

	assert.Equal(t, "solo@example.com", b.UserName)
	assert.Empty(t, b.TeamName)
	assert.Equal(t, "Rocket", b.AssistantName)
}

func TestLoadDegradesOnLookupFailure(t *testing.T) {
	teamID := uuid.New()
	users := &fakeUsers{err: errors.New("user gone")}
	teams := &fakeTeams{teamErr: errors.New("team gone"), skillsErr: errors.New("no skills")}

	l := NewLoader(users, teams, zerolog.Nop())
	b := l.Load(context.Background(), uuid.New(), &teamID)

	assert.Empty(t, b.UserName)
	assert.Empty(t, b.UserEmail)
	assert.Empty(t, b.TeamName)
	assert.Empty(t, b.Skills)
	assert.Equal(t, "Rocket", b.AssistantName)
}

func TestLoadUserPrioritiesWhenTeamHasNone(t *testing.T) {
	teamID := uuid.New()
	users := &fakeUsers{user: &models.User{Email: "a@b.c", Priorities: models.StringArray{"focus"}}}
	teams := &fakeTeams{team: &models.Team{Name: "Ops"}}

	l := NewLoader(users, teams, zerolog.Nop())
	b := l.Load(context.Background(), uuid.New(), &teamID)

	assert.Equal(t, []string{"focus"}, b.Priorities)
}
