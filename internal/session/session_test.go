package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		ok   bool
	}{
		{"valid", NewConfig("Classic", 25, 5), true},
		{"blank name", NewConfig("   ", 25, 5), false},
		{"zero work", NewConfig("x", 0, 5), false},
		{"negative break", NewConfig("x", 25, -1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_Seconds(t *testing.T) {
	c := NewConfig("Deep Work", 50, 10)
	require.Equal(t, 3000, c.WorkSeconds())
	require.Equal(t, 600, c.BreakSeconds())
}

func TestConfig_Clone(t *testing.T) {
	var nilCfg *Config
	require.Nil(t, nilCfg.Clone())

	c := NewConfig("a", 1, 1)
	cp := c.Clone()
	cp.Name = "b"
	require.Equal(t, "a", c.Name)
}

func TestDefaults(t *testing.T) {
	defaults := Defaults()
	require.Len(t, defaults, 3)
	require.Equal(t, "Classic Pomodoro", defaults[0].Name)
	for _, d := range defaults {
		require.NoError(t, d.Validate())
	}
}
