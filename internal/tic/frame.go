package tic

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// FrameReader vytahuje rámce (STX ... ETX) ze souvislého proudu bajtů.
// Není bezpečný pro souběžné použití; čte ho jediná smyčka.
type FrameReader struct {
	r      *bufio.Reader
	maxLen int
}

// NewFrameReader obalí zdroj bajtů. maxLen <= 0 vypne limit délky rámce.
func NewFrameReader(r io.Reader, maxLen int) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r), maxLen: maxLen}
}

// ReadFrame čte až po ETX (včetně) a vrátí nový slice s celým rámcem.
// Začátek rámce se zde nekontroluje, to dělá CheckFrame.
//
// Při překročení limitu vrátí ErrFrameTooLong a nasbírané bajty zahodí;
// zbytek až do dalšího ETX přijde jako samostatný (vadný) rámec.
// Nedokončený rámec při chybě čtení se zahodí a vrátí se chyba zdroje.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	var frame []byte
	for {
		chunk, err := f.r.ReadSlice(EndOfFrame)
		frame = append(frame, chunk...)

		// Limit platí i pro rámec, který už ETX obsahuje.
		if f.maxLen > 0 && len(frame) > f.maxLen {
			return nil, fmt.Errorf("frame of %d bytes exceeds limit %d: %w", len(frame), f.maxLen, ErrFrameTooLong)
		}

		switch {
		case err == nil:
			return frame, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return nil, err
		}
	}
}

// CheckFrame ověří, že rámec začíná STX a končí ETX.
func CheckFrame(raw []byte) error {
	if len(raw) < 2 {
		return fmt.Errorf("frame of %d bytes: %w", len(raw), ErrMalformedFrame)
	}
	if raw[0] != StartOfFrame {
		return fmt.Errorf("frame starts with 0x%02X: %w", raw[0], ErrMalformedFrame)
	}
	if raw[len(raw)-1] != EndOfFrame {
		return fmt.Errorf("frame ends with 0x%02X: %w", raw[len(raw)-1], ErrMalformedFrame)
	}
	return nil
}

// SplitDatasets rozdělí tělo rámce (bez STX/ETX) podle CR na datasety.
// Kandidát projde, jen pokud má víc než 2 bajty a začíná LF; LF se odřízne.
// dropped počítá zahozené neprázdné kandidáty (prázdný zbytek za posledním CR se nepočítá).
func SplitDatasets(body []byte) (datasets [][]byte, dropped int) {
	for _, candidate := range bytes.Split(body, []byte{EndOfDataset}) {
		if len(candidate) > 2 && candidate[0] == StartOfDataset {
			datasets = append(datasets, candidate[1:])
			continue
		}
		if len(candidate) > 0 {
			dropped++
		}
	}
	return datasets, dropped
}
