package tic

import (
	"bytes"
	"fmt"
	"strings"
)

// Record je jeden dekódovaný dataset.
// Timestamp je nil pro dataset bez časové značky (3 pole).
type Record struct {
	Tag       string
	Value     string
	Timestamp *string
}

// DecodeDataset ověří checksum a rozloží dataset (bez úvodního LF) na pole.
//
//	[tag, value, chk]     -> Record{Tag, Value}
//	[tag, ts, value, chk] -> Record{Tag, Value, Timestamp: &ts}
//
// Jiný počet polí vrací chybu obalující ErrFieldCount.
func DecodeDataset(dataset []byte) (Record, error) {
	if len(dataset) < 2 {
		return Record{}, fmt.Errorf("dataset %q: %w", dataset, ErrMalformedDataset)
	}
	if !VerifyChecksum(dataset) {
		return Record{}, fmt.Errorf("dataset %q: %w", dataset, ErrChecksumMismatch)
	}

	fields := bytes.Split(dataset, []byte{FieldSeparator})
	switch len(fields) {
	case 3:
		return Record{
			Tag:   NormalizeTag(string(fields[0])),
			Value: string(fields[1]),
		}, nil
	case 4:
		ts := string(fields[1])
		return Record{
			Tag:       NormalizeTag(string(fields[0])),
			Value:     string(fields[2]),
			Timestamp: &ts,
		}, nil
	default:
		return Record{}, fmt.Errorf("dataset %q has %d fields: %w", dataset, len(fields), ErrFieldCount)
	}
}

// NormalizeTag nahradí každé '+' řetězcem "plus", '+' je v MQTT topicu wildcard.
func NormalizeTag(tag string) string {
	return strings.ReplaceAll(tag, "+", "plus")
}
