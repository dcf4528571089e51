package loyalty

import (
	"errors"
	"time"
)

// Config holds the loyalty provider connection settings
type Config struct {
	BaseURL  string
	Login    string
	Password string
	Timeout  time.Duration
}

// Validate checks that the required settings are present
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("loyalty: base URL is required")
	}
	if c.Login == "" {
		return errors.New("loyalty: login is required")
	}
	if c.Password == "" {
		return errors.New("loyalty: password is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
