package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("session config not found")
	ErrLastSession   = errors.New("cannot delete the last session config")
	ErrInvalidConfig = errors.New("invalid session config")
)

// Config is a named pair of work/break lengths.
type Config struct {
	ID           string
	Name         string
	WorkMinutes  int
	BreakMinutes int
	CreatedAt    time.Time
}

func NewConfig(name string, workMinutes, breakMinutes int) *Config {
	return &Config{
		Name:         name,
		WorkMinutes:  workMinutes,
		BreakMinutes: breakMinutes,
	}
}

func (c *Config) WorkSeconds() int {
	return c.WorkMinutes * 60
}

func (c *Config) BreakSeconds() int {
	return c.BreakMinutes * 60
}

// Validate reports ErrInvalidConfig for an empty name or non-positive lengths.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if c.WorkMinutes <= 0 {
		return fmt.Errorf("%w: work minutes must be positive, got %d", ErrInvalidConfig, c.WorkMinutes)
	}
	if c.BreakMinutes <= 0 {
		return fmt.Errorf("%w: break minutes must be positive, got %d", ErrInvalidConfig, c.BreakMinutes)
	}
	return nil
}

// Clone returns a copy that callers may hold without sharing the original.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Defaults are seeded into an empty database.
func Defaults() []*Config {
	return []*Config{
		NewConfig("Classic Pomodoro", 25, 5),
		NewConfig("Deep Work", 50, 10),
		NewConfig("Quick Focus", 15, 3),
	}
}
