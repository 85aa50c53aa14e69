// Package tic dekóduje TIC (Télé-Information Client) ve standardním režimu.
//
// Tok dat: bajty ze sériové linky -> FrameReader (rámce STX..ETX) ->
// SplitDatasets (řádky LF..CR) -> DecodeDataset (checksum + pole) ->
// TagFilter -> Publisher.
//
// Historický (legacy) režim TIC není podporován.
package tic

import (
	"errors"
	"fmt"
)

// Řídicí bajty protokolu (součást drátového kontraktu).
const (
	StartOfFrame   byte = 0x02 // STX
	EndOfFrame     byte = 0x03 // ETX
	FieldSeparator byte = 0x09 // HT
	LineFeed       byte = 0x0A // LF
	CarriageReturn byte = 0x0D // CR

	// LF a CR mají uvnitř rámce roli začátku a konce datasetu.
	StartOfDataset = LineFeed
	EndOfDataset   = CarriageReturn
)

const (
	// DefaultTopicPrefix je prefix výstupního MQTT topicu ("tic_raw/" + tag).
	DefaultTopicPrefix = "tic_raw/"

	// DefaultMaxFrameLen omezuje délku jednoho rámce. Standardní rámec má řádově stovky bajtů.
	DefaultMaxFrameLen = 4096
)

// Chyby protokolu. Žádná z nich nezastaví dekódovací smyčku.
var (
	ErrMalformedFrame   = errors.New("tic: malformed frame")
	ErrFrameTooLong     = fmt.Errorf("%w: frame exceeds length limit", ErrMalformedFrame)
	ErrMalformedDataset = errors.New("tic: malformed dataset")
	ErrChecksumMismatch = errors.New("tic: checksum mismatch")
	ErrFieldCount       = errors.New("tic: unexpected field count")
)
