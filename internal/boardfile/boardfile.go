// Package boardfile reads board descriptions from YAML.
package boardfile

import (
	"fmt"
	"os"
	"time"

	"github.com/pingball/backend/internal/game"
	"gopkg.in/yaml.v3"
)

// document mirrors game.Description with optional physics fields, so a
// missing value can take its default.
type document struct {
	Name       string              `yaml:"name"`
	Gravity    *float64            `yaml:"gravity"`
	Friction1  *float64            `yaml:"friction1"`
	Friction2  *float64            `yaml:"friction2"`
	TickMillis int                 `yaml:"tickMillis"`
	Obstacles  []game.ObstacleSpec `yaml:"obstacles"`
	Balls      []game.BallSpec     `yaml:"balls"`
	Triggers   []game.TriggerSpec  `yaml:"triggers"`
	Keys       []game.KeySpec      `yaml:"keys"`
}

// Load reads and validates the board file at path.
func Load(path string) (game.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return game.Description{}, fmt.Errorf("read board file: %w", err)
	}
	desc, err := Parse(data)
	if err != nil {
		return game.Description{}, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// Parse decodes a YAML board and checks it the way NewBoard will.
func Parse(data []byte) (game.Description, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return game.Description{}, fmt.Errorf("parse board: %w", err)
	}

	desc := game.NewDescription(doc.Name)
	if doc.Gravity != nil {
		desc.Gravity = *doc.Gravity
	}
	if doc.Friction1 != nil {
		desc.Friction1 = *doc.Friction1
	}
	if doc.Friction2 != nil {
		desc.Friction2 = *doc.Friction2
	}
	if doc.TickMillis > 0 {
		desc.Tick = time.Duration(doc.TickMillis) * time.Millisecond
	}
	desc.Obstacles = doc.Obstacles
	desc.Balls = doc.Balls
	desc.Triggers = doc.Triggers
	desc.Keys = doc.Keys

	if err := desc.Validate(); err != nil {
		return game.Description{}, err
	}
	return desc, nil
}
