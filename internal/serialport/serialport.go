// Package serialport otevírá sériovou linku TIC modemu.
package serialport

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// DefaultDevice je výchozí USB adaptér TIC.
const DefaultDevice = "/dev/ttyACM0"

// Config popisuje nastavení linky. TIC standard: 9600 Bd, 7 datových bitů, sudá parita, 1 stop bit.
type Config struct {
	Device   string
	Baud     int
	DataBits int
	Parity   string // N, O, E, M, S
	StopBits string // 1, 1.5, 2
}

// DefaultConfig vrátí nastavení pro standardní režim TIC.
func DefaultConfig() Config {
	return Config{
		Device:   DefaultDevice,
		Baud:     9600,
		DataBits: 7,
		Parity:   "E",
		StopBits: "1",
	}
}

// Mode převede Config na serial.Mode.
func (c Config) Mode() (*serial.Mode, error) {
	parity, err := parseParity(c.Parity)
	if err != nil {
		return nil, err
	}
	stopBits, err := parseStopBits(c.StopBits)
	if err != nil {
		return nil, err
	}
	if c.Baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return nil, fmt.Errorf("invalid data bits %d", c.DataBits)
	}
	return &serial.Mode{
		BaudRate: c.Baud,
		DataBits: c.DataBits,
		Parity:   parity,
		StopBits: stopBits,
	}, nil
}

// Open otevře zařízení. Port zavírá volající.
func Open(c Config) (serial.Port, error) {
	mode, err := c.Mode()
	if err != nil {
		return nil, fmt.Errorf("serial config %s: %w", c.Device, err)
	}
	port, err := serial.Open(c.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Device, err)
	}
	return port, nil
}

// parseParity přijímá zkratku (E) i celé jméno (EVEN), bez ohledu na velikost písmen.
func parseParity(raw string) (serial.Parity, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "N", "NONE":
		return serial.NoParity, nil
	case "O", "ODD":
		return serial.OddParity, nil
	case "E", "EVEN":
		return serial.EvenParity, nil
	case "M", "MARK":
		return serial.MarkParity, nil
	case "S", "SPACE":
		return serial.SpaceParity, nil
	default:
		return serial.NoParity, fmt.Errorf("unknown parity %q", raw)
	}
}

// parseStopBits převede "1", "1.5" nebo "2" na serial.StopBits.
func parseStopBits(raw string) (serial.StopBits, error) {
	switch strings.TrimSpace(raw) {
	case "1":
		return serial.OneStopBit, nil
	case "1.5":
		return serial.OnePointFiveStopBits, nil
	case "2":
		return serial.TwoStopBits, nil
	default:
		return serial.OneStopBit, fmt.Errorf("unknown stop bits %q", raw)
	}
}
