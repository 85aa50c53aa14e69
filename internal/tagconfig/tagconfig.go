// Package tagconfig načítá seznam povolených TIC tagů.
//
// Chybějící konfigurace není chyba: vrací se nil filtr, tedy "publikuj vše".
// Existující, ale prázdný seznam znamená "nepublikuj nic".
package tagconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/jackc/pgx/v5"

	"tic-ingestor/internal/tic"
)

// DefaultFile je výchozí soubor s tagy v pracovním adresáři.
const DefaultFile = "tags.json"

// LoadFile načte tagy z JSON souboru. Podporuje pole ["EAST", "SINSTS"]
// i objekt {"EAST": ..., "SINSTS": ...}, kde se berou klíče.
// Pokud soubor neexistuje nebo obsahuje jen null, vrací (nil, nil).
func LoadFile(path string) (*tic.TagFilter, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tags load failed (%s): %w", path, err)
	}

	// null = filtr není nastaven, stejně jako chybějící soubor
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}

	tags, err := parseTags(data)
	if err != nil {
		return nil, fmt.Errorf("tags parse failed (%s): %w", path, err)
	}
	return tic.NewTagFilter(tags), nil
}

func parseTags(data []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("expected JSON array of tags or object keyed by tag: %w", err)
	}
	tags := make([]string, 0, len(obj))
	for tag := range obj {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// Querier je podmnožina *pgxpool.Pool, kterou potřebuje LoadTable.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// tagsQuery vybírá aktivní tagy z tabulky tic_tags.
const tagsQuery = `
	SELECT tag
	FROM tic_tags
	WHERE enabled = true
	ORDER BY tag
`

// LoadTable načte povolené tagy z Postgresu. Vždy vrací filtr (i prázdný),
// protože nakonfigurovaná tabulka je explicitní volba.
func LoadTable(ctx context.Context, db Querier) (*tic.TagFilter, error) {
	rows, err := db.Query(ctx, tagsQuery)
	if err != nil {
		return nil, fmt.Errorf("SQL query failed: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	return tic.NewTagFilter(tags), nil
}
