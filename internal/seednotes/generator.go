// Package seednotes generates realistic scouting datasets and pushes them
// through the HTTP API. It exists for local load and smoke testing.
package seednotes

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"

	"github.com/quailscout/standsync/internal/domain/types"
)

// Generation bounds.
const (
	teamNumberMin   = 1
	teamNumberRange = 9999
	driverRatingMax = 10
)

var noteTemplates = []string{
	"fast cycles, weak under defense",
	"consistent scorer, slow climb",
	"great defense, rarely scores",
	"strong auto, inconsistent teleop",
	"reliable climb, average intake",
}

var strategyTemplates = []string{
	"feed from mid",
	"counter-defend",
	"prioritize climb",
	"score and park",
}

// Generator produces per-user datasets.
type Generator struct {
	teamsPerUser   int
	matchesPerUser int
}

// NewGenerator creates a generator producing the given dataset sizes.
func NewGenerator(teamsPerUser, matchesPerUser int) *Generator {
	return &Generator{teamsPerUser: teamsPerUser, matchesPerUser: matchesPerUser}
}

// Username returns a fresh scout username.
func (g *Generator) Username() string {
	return "scout-" + uuid.NewString()[:8]
}

// View builds a random client view with the configured number of teams
// and matches.
func (g *Generator) View() (types.View, error) {
	view := types.NewView()

	teams := make([]string, 0, g.teamsPerUser)
	for i := 0; i < g.teamsPerUser; i++ {
		team, err := randomTeam()
		if err != nil {
			return types.View{}, err
		}
		teams = append(teams, team)
		fields, err := teamFields()
		if err != nil {
			return types.View{}, err
		}
		view.TeamData[team] = fields
	}

	for i := 0; i < g.matchesPerUser && len(teams) > 0; i++ {
		match := strconv.Itoa(i + 1)
		team := teams[i%len(teams)]
		fields, err := matchFields()
		if err != nil {
			return types.View{}, err
		}
		view.TIMData[match] = map[string]types.Fields{team: fields}
	}

	return view, nil
}

func teamFields() (types.Fields, error) {
	note, err := pick(noteTemplates)
	if err != nil {
		return nil, err
	}
	strategy, err := pick(strategyTemplates)
	if err != nil {
		return nil, err
	}
	rating, err := randomInt(driverRatingMax)
	if err != nil {
		return nil, err
	}
	return types.Fields{
		"notes":         types.String(note),
		"strategy":      types.String(strategy),
		"driver_rating": types.Number(float64(rating + 1)),
	}, nil
}

func matchFields() (types.Fields, error) {
	note, err := pick(noteTemplates)
	if err != nil {
		return nil, err
	}
	score, err := randomInt(60)
	if err != nil {
		return nil, err
	}
	broke, err := randomInt(10)
	if err != nil {
		return nil, err
	}
	return types.Fields{
		"notes":      types.String(note),
		"score":      types.Number(float64(score)),
		"broke_down": types.Bool(broke == 0),
	}, nil
}

func randomTeam() (string, error) {
	n, err := randomInt(teamNumberRange)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(teamNumberMin + n), nil
}

func pick(options []string) (string, error) {
	n, err := randomInt(len(options))
	if err != nil {
		return "", err
	}
	return options[n], nil
}

func randomInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("generate random int: %w", err)
	}
	return int(n.Int64()), nil
}
