package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	for name := range c.Scheduler.Tasks {
		switch name {
		case TaskTranscriptRetention, TaskSQLMaintenance, TaskCacheStats:
		default:
			return fmt.Errorf("unknown scheduler task %q", name)
		}
	}
	return nil
}
