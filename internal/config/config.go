package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Config represents the application configuration
type Config struct {
	Participant ParticipantConfig `json:"participant"`
	Kinematics  KinematicsConfig  `json:"kinematics"`
	Points      PointsConfig      `json:"points"`
	HeartRate   HeartRateConfig   `json:"heart_rate"`
	Output      OutputConfig      `json:"output"`
	Batch       BatchConfig       `json:"batch"`
}

// ParticipantConfig holds participant-specific settings
type ParticipantConfig struct {
	ID        string  `json:"id"`
	MassKG    float64 `json:"mass_kg"`
	Age       int     `json:"age"`
	RestingHR float64 `json:"resting_hr"`
}

// KinematicsConfig describes where the motion-capture exports live and how to read them
type KinematicsConfig struct {
	Folder         string   `json:"folder"`
	Keypoint       string   `json:"keypoint"`
	RowsToSkip     int      `json:"rows_to_skip"` // leading rows discarded, the model does not start in position
	Planes         []string `json:"planes"`
	VerticalAxis   string   `json:"vertical_axis"`
	PositionMarker string   `json:"position_marker"`
	VelocityMarker string   `json:"velocity_marker"`
}

// PointsConfig locates the trial/point frame table
type PointsConfig struct {
	File  string `json:"file"`
	Sheet string `json:"sheet"` // only used for .xlsx workbooks
}

// HeartRateConfig locates heart-rate exports
type HeartRateConfig struct {
	Folder     string `json:"folder"`
	Discipline string `json:"discipline"`
	StartRow   int    `json:"start_row"`
	EndRow     int    `json:"end_row"`
}

// OutputConfig holds output destinations
type OutputConfig struct {
	DataPath string `json:"data_path"`
	PlotPath string `json:"plot_path"`
	PlotData string `json:"plot_data"`
	Database string `json:"database"`
}

// BatchConfig controls the batch runner
type BatchConfig struct {
	Workers int `json:"workers"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// PlotDataTypes lists the accepted values of output.plot_data
var PlotDataTypes = []string{"Position", "Velocity", "Acceleration", "Energy"}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Participant: ParticipantConfig{
			RestingHR: 60,
		},
		Kinematics: KinematicsConfig{
			Keypoint:       "center_of_mass",
			RowsToSkip:     35,
			Planes:         []string{"X", "Y", "Z"},
			VerticalAxis:   "Y",
			PositionMarker: "BodyKinematics_pos_global",
			VelocityMarker: "BodyKinematics_vel_global",
		},
		HeartRate: HeartRateConfig{
			StartRow: 60,
			EndRow:   2800,
		},
		Output: OutputConfig{
			PlotData: "Energy",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}

// Load reads the configuration from path, or from ~/.court-kinetics/config.json when path is empty.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = getConfigPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// An explicit empty list or string is treated as unset
	defaults := DefaultConfig()
	if len(cfg.Kinematics.Planes) == 0 {
		cfg.Kinematics.Planes = defaults.Kinematics.Planes
	}
	if cfg.Kinematics.Keypoint == "" {
		cfg.Kinematics.Keypoint = defaults.Kinematics.Keypoint
	}
	if cfg.Kinematics.VerticalAxis == "" {
		cfg.Kinematics.VerticalAxis = defaults.Kinematics.VerticalAxis
	}
	if cfg.Kinematics.PositionMarker == "" {
		cfg.Kinematics.PositionMarker = defaults.Kinematics.PositionMarker
	}
	if cfg.Kinematics.VelocityMarker == "" {
		cfg.Kinematics.VelocityMarker = defaults.Kinematics.VelocityMarker
	}
	if cfg.Output.PlotData == "" {
		cfg.Output.PlotData = defaults.Output.PlotData
	}
	if cfg.Batch.Workers <= 0 {
		cfg.Batch.Workers = defaults.Batch.Workers
	}

	return &cfg, nil
}

// Save writes the configuration to path, or to ~/.court-kinetics/config.json when path is empty
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = getConfigPath()
		if err != nil {
			return err
		}
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample(path string) error {
	if path == "" {
		var err error
		path, err = getConfigPath()
		if err != nil {
			return err
		}
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Participant = ParticipantConfig{
		ID:        "Doubles-1/P05",
		MassKG:    82.2,
		Age:       20,
		RestingHR: 60,
	}
	example.Kinematics.Folder = "/data/Doubles-1/P05/trc_hrnet/kinematics"
	example.Points = PointsConfig{
		File:  "/data/notational_analysis.xlsx",
		Sheet: "Doubles 1",
	}
	example.HeartRate.Folder = "/data/heart_rate"
	example.HeartRate.Discipline = "Men's Singles"
	example.Output.DataPath = "/data/Doubles-1/P05"
	example.Output.PlotPath = "/data/Doubles-1/P05/plots"

	return Save(&example, path)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Participant.MassKG <= 0 {
		return fmt.Errorf("participant.mass_kg must be positive, got %v", c.Participant.MassKG)
	}
	if c.Participant.Age < 0 || c.Participant.Age >= 220 {
		return fmt.Errorf("participant.age must be between 0 and 219, got %d", c.Participant.Age)
	}
	if c.Kinematics.Folder == "" {
		return errors.New("kinematics.folder is required")
	}
	if c.Kinematics.RowsToSkip < 0 {
		return fmt.Errorf("kinematics.rows_to_skip must not be negative, got %d", c.Kinematics.RowsToSkip)
	}
	if len(c.Kinematics.Planes) != 3 {
		return fmt.Errorf("kinematics.planes must name exactly three planes, got %d", len(c.Kinematics.Planes))
	}
	if !slices.Contains(c.Kinematics.Planes, c.Kinematics.VerticalAxis) {
		return fmt.Errorf("kinematics.vertical_axis %q is not one of %v", c.Kinematics.VerticalAxis, c.Kinematics.Planes)
	}
	if c.Output.PlotData != "" && !slices.Contains(PlotDataTypes, c.Output.PlotData) {
		return fmt.Errorf("output.plot_data must be one of %v, got %q", PlotDataTypes, c.Output.PlotData)
	}
	if c.HeartRate.EndRow > 0 && c.HeartRate.StartRow >= c.HeartRate.EndRow {
		return fmt.Errorf("heart_rate.start_row (%d) must be less than heart_rate.end_row (%d)", c.HeartRate.StartRow, c.HeartRate.EndRow)
	}

	return nil
}

// DatabasePath returns the results database location, defaulting to results.db in the data path
func (c *Config) DatabasePath() string {
	if c.Output.Database != "" {
		return c.Output.Database
	}
	return filepath.Join(c.Output.DataPath, "results.db")
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".court-kinetics"), nil
}
