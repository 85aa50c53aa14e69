package serialport

import (
	"testing"

	"go.bug.st/serial"
)

func TestDefaultConfigMode(t *testing.T) {
	mode, err := DefaultConfig().Mode()
	if err != nil {
		t.Fatalf("Mode() error = %v", err)
	}
	want := serial.Mode{BaudRate: 9600, DataBits: 7, Parity: serial.EvenParity, StopBits: serial.OneStopBit}
	if *mode != want {
		t.Errorf("Mode() = %+v, want %+v", *mode, want)
	}
}

func TestConfigModeErrors(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{name: "bad parity", edit: func(c *Config) { c.Parity = "X" }},
		{name: "bad stop bits", edit: func(c *Config) { c.StopBits = "3" }},
		{name: "zero baud", edit: func(c *Config) { c.Baud = 0 }},
		{name: "nine data bits", edit: func(c *Config) { c.DataBits = 9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			if _, err := cfg.Mode(); err == nil {
				t.Errorf("Mode() error = nil, want error")
			}
		})
	}
}

func TestParseParity(t *testing.T) {
	tests := map[string]serial.Parity{
		"N":    serial.NoParity,
		"odd":  serial.OddParity,
		" e ":  serial.EvenParity,
		"Mark": serial.MarkParity,
		"S":    serial.SpaceParity,
	}
	for raw, want := range tests {
		got, err := parseParity(raw)
		if err != nil || got != want {
			t.Errorf("parseParity(%q) = %v, %v; want %v", raw, got, err, want)
		}
	}
}

func TestOpenMissingDevice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "/dev/does-not-exist-tic"
	if _, err := Open(cfg); err == nil {
		t.Errorf("Open(%q) error = nil, want error", cfg.Device)
	}
}
