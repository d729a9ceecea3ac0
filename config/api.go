package config

import "fmt"

// APIConfig configures the HTTP planning API.
type APIConfig struct {
	Address string `json:"address"`
	// Token, when set, is required as a bearer token on /api/plan/logs.
	Token string `json:"token"`
	// MaxGridSize rejects larger grids submitted over HTTP.
	MaxGridSize int `json:"max_grid_size"`
	// MaxStepBudget caps step_budget on HTTP requests.
	MaxStepBudget int `json:"max_step_budget"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.MaxGridSize == 0 {
		c.MaxGridSize = 64
	}
	if c.MaxStepBudget == 0 {
		c.MaxStepBudget = 64
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.MaxGridSize < 0 {
		return fmt.Errorf("max_grid_size must be >= 0, got %d", c.MaxGridSize)
	}
	if c.MaxStepBudget < 0 {
		return fmt.Errorf("max_step_budget must be >= 0, got %d", c.MaxStepBudget)
	}
	return nil
}
