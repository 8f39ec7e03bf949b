package fetch

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jonathan/portfolio-agent/internal/types"
)

//go:embed fixture_profile.json
var fixtureProfile []byte

// FixtureProfile returns a fresh copy of the embedded development profile.
func FixtureProfile() (*types.ProfileDocument, error) {
	var profile types.ProfileDocument
	if err := json.Unmarshal(fixtureProfile, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse fixture profile: %w", err)
	}
	return &profile, nil
}
