// Package model contains domain records passed between layers.
package model

import "github.com/quailscout/standsync/internal/domain/types"

// TeamNote is one user's annotation document for a single team.
// At most one record exists per (event key, team, username).
type TeamNote struct {
	Team     string       // team number, string on the wire
	Username string       // owning scout
	Data     types.Fields // open data-point map, replaced wholesale on write
}

// MatchNote is one user's annotation document for a single team within a
// single match. At most one record exists per (event key, match, team,
// username).
type MatchNote struct {
	Match    string
	Team     string
	Username string
	Data     types.Fields
}
