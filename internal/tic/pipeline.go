package tic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Pipeline spojuje čtení rámců, dekódování, filtr a publikaci.
// Běží v jediné goroutině; blokuje pouze čtení ze zdroje.
type Pipeline struct {
	src    io.Reader
	frames *FrameReader
	pub    Publisher

	filter      *TagFilter
	logger      *slog.Logger
	prefix      string
	maxFrameLen int
	stats       *Stats
}

// Option upravuje Pipeline při vytvoření.
type Option func(*Pipeline)

// WithFilter nastaví povolené tagy. nil = bez filtru.
func WithFilter(f *TagFilter) Option {
	return func(p *Pipeline) { p.filter = f }
}

// WithLogger nastaví logger pro chyby protokolu. Výchozí je slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithTopicPrefix změní prefix výstupních topiců (výchozí "tic_raw/").
// Topic zprávy je vždy prefix + tag.
func WithTopicPrefix(prefix string) Option {
	return func(p *Pipeline) { p.prefix = prefix }
}

// WithMaxFrameLen nastaví limit délky rámce, 0 limit vypne.
func WithMaxFrameLen(n int) Option {
	return func(p *Pipeline) { p.maxFrameLen = n }
}

// WithStats sdílí čítače s volajícím (metriky, API).
func WithStats(s *Stats) Option {
	return func(p *Pipeline) { p.stats = s }
}

// NewPipeline vytvoří pipeline nad zdrojem bajtů. Zdroj i publisher vlastní volající.
func NewPipeline(src io.Reader, pub Publisher, opts ...Option) *Pipeline {
	p := &Pipeline{
		src:         src,
		pub:         pub,
		logger:      slog.Default(),
		prefix:      DefaultTopicPrefix,
		maxFrameLen: DefaultMaxFrameLen,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.stats == nil {
		p.stats = &Stats{}
	}
	p.frames = NewFrameReader(src, p.maxFrameLen)
	return p
}

// Stats vrátí čítače pipeline.
func (p *Pipeline) Stats() *Stats {
	return p.stats
}

// Run čte a zpracovává rámce, dokud zdroj nevrátí chybu nebo není zrušen ctx.
// Pokud zdroj implementuje io.Closer, zrušení ctx ho zavře, aby se uvolnilo blokující čtení.
// Po zrušení vrací nil, jinak chybu zdroje (včetně io.EOF).
func (p *Pipeline) Run(ctx context.Context) error {
	if c, ok := p.src.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}

	for {
		raw, err := p.frames.ReadFrame()
		// Chyba čtení po zrušení ctx je jen důsledek zavření zdroje.
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			// Příliš dlouhý rámec zahodíme a čteme dál, jiná chyba smyčku ukončí.
			if errors.Is(err, ErrMalformedFrame) {
				p.stats.Frames.Add(1)
				p.stats.MalformedFrames.Add(1)
				p.logger.Warn("Rámec zahozen", "error", err)
				continue
			}
			return fmt.Errorf("tic: read frame: %w", err)
		}
		p.ProcessFrame(raw)
	}
}

// ProcessFrame zpracuje jeden rámec a vrátí zprávy, které byly publikovány.
// Žádná chyba protokolu se nešíří ven, jen se zaloguje a započítá.
func (p *Pipeline) ProcessFrame(raw []byte) []Message {
	p.stats.Frames.Add(1)
	if err := CheckFrame(raw); err != nil {
		p.stats.MalformedFrames.Add(1)
		p.logger.Warn("Rámec zahozen", "error", err, "len", len(raw))
		return nil
	}

	// Tělo rámce bez STX a ETX.
	datasets, dropped := SplitDatasets(raw[1 : len(raw)-1])
	if dropped > 0 {
		p.stats.MalformedDatasets.Add(uint64(dropped))
		p.logger.Debug("Zahozeny neplatné řádky", "count", dropped)
	}

	var out []Message
	for _, ds := range datasets {
		p.stats.Datasets.Add(1)
		rec, err := DecodeDataset(ds)
		if err != nil {
			p.reportDecodeError(err)
			continue
		}

		// Filtr se porovnává s již upraveným tagem ('+' -> "plus").
		if !p.filter.Allows(rec.Tag) {
			p.stats.Filtered.Add(1)
			continue
		}

		msg := NewMessage(p.prefix, rec)
		payload, err := msg.Encode()
		if err != nil {
			p.logger.Error("Serializace zprávy selhala", "topic", msg.Topic, "error", err)
			continue
		}
		p.pub.Publish(msg.Topic, payload)
		p.stats.Emitted.Add(1)
		p.logger.Debug("Zpráva odeslána", "topic", msg.Topic, "payload", string(payload))
		out = append(out, msg)
	}
	return out
}

// reportDecodeError započítá a zaloguje chybu datasetu podle jejího druhu.
func (p *Pipeline) reportDecodeError(err error) {
	switch {
	case errors.Is(err, ErrChecksumMismatch):
		p.stats.ChecksumErrors.Add(1)
		p.logger.Warn("Bad checksum", "error", err)
	case errors.Is(err, ErrFieldCount):
		p.stats.FieldCountErrors.Add(1)
		p.logger.Warn("Chybný počet polí v datasetu", "error", err)
	default:
		p.stats.MalformedDatasets.Add(1)
		p.logger.Warn("Dataset zahozen", "error", err)
	}
}
