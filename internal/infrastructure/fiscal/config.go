package fiscal

import (
	"errors"
	"time"
)

// Config holds the OFD provider connection settings
type Config struct {
	// BaseURL is the provider API root
	BaseURL string
	// Token authenticates every request
	Token string
	// GroupCode identifies the cash register group documents are issued under
	GroupCode string
	// Timeout bounds each HTTP call
	Timeout time.Duration
}

// Validate checks that the required settings are present
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("fiscal: base URL is required")
	}
	if c.Token == "" {
		return errors.New("fiscal: token is required")
	}
	if c.GroupCode == "" {
		return errors.New("fiscal: group code is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
