package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"tic-ingestor/internal/tagconfig"
)

// tagRows vrací pevný seznam tagů jako výsledek dotazu.
type tagRows struct {
	pgx.Rows
	tags []string
	pos  int
}

func (r *tagRows) Next() bool {
	if r.pos >= len(r.tags) {
		return false
	}
	r.pos++
	return true
}

func (r *tagRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.tags[r.pos-1]
	return nil
}

func (r *tagRows) Close()     {}
func (r *tagRows) Err() error { return nil }

type tagDB struct{ tags []string }

func (db tagDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return &tagRows{tags: db.tags}, nil
}

func TestLoadFilter(t *testing.T) {
	dir := t.TempDir()
	tagsFile := filepath.Join(dir, "tags.json")
	if err := os.WriteFile(tagsFile, []byte(`["SINSTS"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	missingFile := filepath.Join(dir, "missing.json")

	tests := []struct {
		name    string
		cfg     Config
		dbTags  []string
		wantNil bool
		wantDB  bool
		allowed []string
		denied  []string
	}{
		{
			name:    "DB wins over file",
			cfg:     Config{PostgresURL: "postgres://tic", TagsFile: tagsFile},
			dbTags:  []string{"EAST"},
			wantDB:  true,
			allowed: []string{"EAST"},
			denied:  []string{"SINSTS"},
		},
		{
			name:   "empty DB table denies everything",
			cfg:    Config{PostgresURL: "postgres://tic", TagsFile: missingFile},
			wantDB: true,
			denied: []string{"EAST"},
		},
		{
			name:    "file without DB",
			cfg:     Config{TagsFile: tagsFile},
			allowed: []string{"SINSTS"},
			denied:  []string{"EAST"},
		},
		{
			name:    "missing file means no filter",
			cfg:     Config{TagsFile: missingFile},
			wantNil: true,
			allowed: []string{"EAST", "SINSTS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened, closed bool
			openDB := func(_ context.Context, url string) (tagconfig.Querier, func(), error) {
				if url != tt.cfg.PostgresURL {
					t.Errorf("openDB(%q), want %q", url, tt.cfg.PostgresURL)
				}
				opened = true
				return tagDB{tags: tt.dbTags}, func() { closed = true }, nil
			}

			f, err := loadFilter(context.Background(), tt.cfg, openDB, slog.New(slog.NewTextHandler(io.Discard, nil)))
			if err != nil {
				t.Fatalf("loadFilter() error = %v", err)
			}
			if opened != tt.wantDB || closed != tt.wantDB {
				t.Errorf("DB opened = %v, closed = %v, want %v", opened, closed, tt.wantDB)
			}
			if (f == nil) != tt.wantNil {
				t.Fatalf("loadFilter() = %+v, want nil: %v", f, tt.wantNil)
			}
			for _, tag := range tt.allowed {
				if !f.Allows(tag) {
					t.Errorf("Allows(%q) = false", tag)
				}
			}
			for _, tag := range tt.denied {
				if f.Allows(tag) {
					t.Errorf("Allows(%q) = true", tag)
				}
			}
		})
	}
}

func TestLoadFilterDBError(t *testing.T) {
	boom := errors.New("boom")
	openDB := func(context.Context, string) (tagconfig.Querier, func(), error) {
		return nil, nil, boom
	}
	cfg := Config{PostgresURL: "postgres://tic", TagsFile: filepath.Join(t.TempDir(), "missing.json")}

	if _, err := loadFilter(context.Background(), cfg, openDB, slog.New(slog.NewTextHandler(io.Discard, nil))); !errors.Is(err, boom) {
		t.Errorf("loadFilter() error = %v, want %v", err, boom)
	}
}

func TestShutdownHTTPServerLogsTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	// Handler drží požadavek, dokud test neskončí, takže Shutdown nestihne doběhnout.
	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})}
	go server.Serve(ln)

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-entered

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	shutdownHTTPServer(ctx, server, logger)

	out := logs.String()
	if !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, context.Canceled.Error()) {
		t.Errorf("log = %s, want WARN with %v", out, context.Canceled)
	}
}
