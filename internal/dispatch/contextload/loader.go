// Package contextload assembles the per-item enrichment bundle handed
// to the generation call. Every lookup degrades to an empty value: a
// missing user row or team row never blocks a dispatch.
package contextload

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
)

// Bundle is the resolved enrichment context for one dispatch item.
type Bundle struct {
	UserName      string   `json:"user_name,omitempty"`
	UserEmail     string   `json:"user_email,omitempty"`
	TeamName      string   `json:"team_name,omitempty"`
	AssistantName string   `json:"assistant_name,omitempty"`
	Priorities    []string `json:"priorities,omitempty"`
	Skills        []string `json:"skills,omitempty"`
}

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type TeamFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	FindActiveSkills(ctx context.Context, teamID uuid.UUID) ([]models.Skill, error)
}

type Loader struct {
	users UserFinder
	teams TeamFinder
	log   zerolog.Logger
}

func NewLoader(users UserFinder, teams TeamFinder, log zerolog.Logger) *Loader {
	return &Loader{users: users, teams: teams, log: log}
}

// Load resolves whatever context exists for the item's owner and team.
// Failed lookups are logged at debug and leave their fields empty.
func (l *Loader) Load(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) Bundle {
	b := Bundle{AssistantName: "Rocket"}

	if user, err := l.users.FindByID(ctx, userID); err == nil {
		b.UserName = user.DisplayName()
		b.UserEmail = user.Email
		b.Priorities = user.Priorities
	} else {
		l.log.Debug().Err(err).Str("user_id", userID.String()).Msg("context: user lookup failed")
	}

	if teamID == nil {
		return b
	}

	if team, err := l.teams.FindByID(ctx, *teamID); err == nil {
		b.TeamName = team.Name
		if team.AssistantName != "" {
			b.AssistantName = team.AssistantName
		}
		if len(team.Priorities) > 0 {
			b.Priorities = team.Priorities
		}
	} else {
		l.log.Debug().Err(err).Str("team_id", teamID.String()).Msg("context: team lookup failed")
	}

	if skills, err := l.teams.FindActiveSkills(ctx, *teamID); err == nil {
		for _, s := range skills {
			b.Skills = append(b.Skills, s.Name)
		}
	} else {
		l.log.Debug().Err(err).Str("team_id", teamID.String()).Msg("context: skill lookup failed")
	}

	return b
}
