package heatmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Roster is a named participant list loaded from configuration.
type Roster struct {
	Participants []Participant `yaml:"participants"`
}

// LoadRoster reads a participant roster from a YAML file. Every participant
// must carry an ID, a timezone, and a country code; the values themselves are
// validated later, when the heatmap is generated.
func LoadRoster(path string) ([]Participant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}

	for i, p := range roster.Participants {
		if p.ID == "" || p.Timezone == "" || p.Country == "" {
			return nil, fmt.Errorf("roster entry %d: id, timezone, and country are all required", i)
		}
	}
	return roster.Participants, nil
}
