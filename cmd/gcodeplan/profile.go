package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Profile is the printer-side configuration. Speeds are mm/s, lengths
// mm; everything is converted to micrometers at the planner boundary.
type Profile struct {
	TravelSpeed    int `toml:"travel_speed"`
	OuterWallSpeed int `toml:"outer_wall_speed"`
	InnerWallSpeed int `toml:"inner_wall_speed"`
	InfillSpeed    int `toml:"infill_speed"`

	FilamentDiameter float64 `toml:"filament_diameter"`
	Flow             int     `toml:"flow"`

	RetractionAmount      float64 `toml:"retraction_amount"`
	RetractionSpeed       int     `toml:"retraction_speed"`
	RetractionMinDistance float64 `toml:"retraction_min_distance"`

	FanSpeed       int     `toml:"fan_speed"`
	BridgeFanSpeed int     `toml:"bridge_fan_speed"`
	MinLayerTime   float64 `toml:"min_layer_time"`
	MinPrintSpeed  int     `toml:"min_print_speed"`

	FirstLayerSpeedPct int `toml:"first_layer_speed_pct"`
}

func DefaultProfile() Profile {
	return Profile{
		TravelSpeed:    150,
		OuterWallSpeed: 30,
		InnerWallSpeed: 50,
		InfillSpeed:    80,

		FilamentDiameter: 1.75,
		Flow:             100,

		RetractionAmount:      4.5,
		RetractionSpeed:       45,
		RetractionMinDistance: 1.5,

		FanSpeed:       100,
		BridgeFanSpeed: 100,
		MinLayerTime:   5,
		MinPrintSpeed:  10,

		FirstLayerSpeedPct: 50,
	}
}

// LoadProfile reads a TOML profile over the defaults, so a file only
// needs the keys it wants to change.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		return profile, err
	}
	if err := toml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parse %s: %w", path, err)
	}
	return profile, nil
}
