package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical fit tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds the knobs for the fitting and evaluation pipelines.
// Fields are pointers so a partial JSON file only overrides what it names;
// the Get* methods supply defaults for everything else.
type TuningConfig struct {
	// Fit tolerances
	SkyToleranceMas        *float64 `json:"sky_tolerance_mas,omitempty"`
	DeltaToleranceAU       *float64 `json:"delta_tolerance_au,omitempty"`
	VMagToleranceMag       *float64 `json:"vmag_tolerance_mag,omitempty"`
	ElongationToleranceDeg *float64 `json:"elongation_tolerance_deg,omitempty"`

	// Polynomial shape
	NCoeffPosition *int `json:"n_coeff_position,omitempty"`
	NCoeffAux      *int `json:"n_coeff_aux,omitempty"`

	// Refinement loop
	MaxRefineIterations *int `json:"max_refine_iterations,omitempty"`

	// Fit parallelism
	FitWorkers *int `json:"fit_workers,omitempty"`

	// Observer params passed through to the ephemeris oracle
	ObsCode   *int    `json:"obscode,omitempty"`
	TimeScale *string `json:"timescale,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the JSON file retain their default values, so partial configs are
// safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath. It searches for the file in the current directory and
// common parent directories. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.SkyToleranceMas != nil && *c.SkyToleranceMas <= 0 {
		return fmt.Errorf("sky_tolerance_mas must be positive, got %f", *c.SkyToleranceMas)
	}
	if c.DeltaToleranceAU != nil && *c.DeltaToleranceAU <= 0 {
		return fmt.Errorf("delta_tolerance_au must be positive, got %f", *c.DeltaToleranceAU)
	}
	if c.VMagToleranceMag != nil && *c.VMagToleranceMag <= 0 {
		return fmt.Errorf("vmag_tolerance_mag must be positive, got %f", *c.VMagToleranceMag)
	}
	if c.ElongationToleranceDeg != nil && *c.ElongationToleranceDeg <= 0 {
		return fmt.Errorf("elongation_tolerance_deg must be positive, got %f", *c.ElongationToleranceDeg)
	}
	if c.NCoeffPosition != nil && *c.NCoeffPosition < 2 {
		return fmt.Errorf("n_coeff_position must be >= 2, got %d", *c.NCoeffPosition)
	}
	if c.NCoeffAux != nil && *c.NCoeffAux < 2 {
		return fmt.Errorf("n_coeff_aux must be >= 2, got %d", *c.NCoeffAux)
	}
	if c.MaxRefineIterations != nil && *c.MaxRefineIterations < 1 {
		return fmt.Errorf("max_refine_iterations must be >= 1, got %d", *c.MaxRefineIterations)
	}
	if c.FitWorkers != nil && *c.FitWorkers < 1 {
		return fmt.Errorf("fit_workers must be >= 1, got %d", *c.FitWorkers)
	}
	return nil
}

// GetSkyToleranceMas returns the positional fit tolerance in mas.
func (c *TuningConfig) GetSkyToleranceMas() float64 {
	if c.SkyToleranceMas == nil {
		return 2.5 // default
	}
	return *c.SkyToleranceMas
}

// GetDeltaToleranceAU returns the distance fit tolerance in AU.
func (c *TuningConfig) GetDeltaToleranceAU() float64 {
	if c.DeltaToleranceAU == nil {
		return 1e-6 // default
	}
	return *c.DeltaToleranceAU
}

// GetVMagToleranceMag returns the magnitude fit tolerance.
func (c *TuningConfig) GetVMagToleranceMag() float64 {
	if c.VMagToleranceMag == nil {
		return 1e-3 // default
	}
	return *c.VMagToleranceMag
}

// GetElongationToleranceDeg returns the elongation fit tolerance in degrees.
func (c *TuningConfig) GetElongationToleranceDeg() float64 {
	if c.ElongationToleranceDeg == nil {
		return 1e-2 // default
	}
	return *c.ElongationToleranceDeg
}

// GetNCoeffPosition returns the coefficient count for RA/Dec fits.
func (c *TuningConfig) GetNCoeffPosition() int {
	if c.NCoeffPosition == nil {
		return 14 // default
	}
	return *c.NCoeffPosition
}

// GetNCoeffAux returns the coefficient count for delta/vmag/elongation fits.
func (c *TuningConfig) GetNCoeffAux() int {
	if c.NCoeffAux == nil {
		return 7 // default
	}
	return *c.NCoeffAux
}

// GetMaxRefineIterations returns the granularity refinement iteration cap.
func (c *TuningConfig) GetMaxRefineIterations() int {
	if c.MaxRefineIterations == nil {
		return 10 // default
	}
	return *c.MaxRefineIterations
}

// GetFitWorkers returns the number of concurrent per-object fit workers.
func (c *TuningConfig) GetFitWorkers() int {
	if c.FitWorkers == nil {
		return 4 // default
	}
	return *c.FitWorkers
}

// GetObsCode returns the MPC observatory code passed to the oracle.
func (c *TuningConfig) GetObsCode() int {
	if c.ObsCode == nil {
		return 807 // default: CTIO / approximate LSST
	}
	return *c.ObsCode
}

// GetTimeScale returns the time scale passed to the oracle.
func (c *TuningConfig) GetTimeScale() string {
	if c.TimeScale == nil {
		return "TAI" // default; UTC would induce leap-second discontinuities
	}
	return *c.TimeScale
}
