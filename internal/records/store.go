package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"factorylink/internal/cache"

	"go.uber.org/zap"
)

var (
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrStaleTable       = errors.New("table changed since it was loaded")
)

// Backend reads and overwrites whole sheets. Row 0 of a sheet is its header.
// A sheet that does not exist yet reads as empty.
type Backend interface {
	ReadTable(ctx context.Context, sheet string) (header []string, cells [][]string, err error)
	WriteTable(ctx context.Context, sheet string, header []string, cells [][]string) error
}

type Options struct {
	ReadRetries int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Cache       cache.Cache
	Logger      *zap.Logger
}

type Store struct {
	backend Backend
	cache   cache.Cache
	ttl     time.Duration
	retries int
	delay   time.Duration
	log     *zap.Logger
}

func NewStore(backend Backend, opts Options) *Store {
	if opts.ReadRetries < 1 {
		opts.ReadRetries = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		retries: opts.ReadRetries,
		delay:   opts.RetryDelay,
		log:     opts.Logger,
	}
}

type cachedTable struct {
	Header []string   `json:"header"`
	Cells  [][]string `json:"cells"`
}

// Load returns every row of kind, served from the cache when fresh. When the
// backend keeps failing after the configured attempts, Load returns an empty
// but fully shaped table together with an error wrapping ErrStoreUnavailable.
func (s *Store) Load(ctx context.Context, kind Kind) (Table, error) {
	if _, err := Columns(kind); err != nil {
		return Table{}, err
	}
	if table, ok := s.cached(ctx, kind); ok {
		return table, nil
	}
	return s.LoadFresh(ctx, kind)
}

// LoadFresh bypasses the cache, then refreshes it with what it read.
func (s *Store) LoadFresh(ctx context.Context, kind Kind) (Table, error) {
	if _, err := Columns(kind); err != nil {
		return Table{}, err
	}
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		header, cells, err := s.backend.ReadTable(ctx, string(kind))
		if err == nil {
			table := normalize(kind, header, cells)
			s.remember(ctx, table)
			return table, nil
		}
		lastErr = err
		s.log.Warn("record load failed",
			zap.String("kind", string(kind)),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.retries),
			zap.Error(err))
		if attempt < s.retries {
			if err := s.wait(ctx); err != nil {
				lastErr = err
				break
			}
		}
	}
	return NewTable(kind), fmt.Errorf("%w: load %s: %w", ErrStoreUnavailable, kind, lastErr)
}

// Save overwrites the whole sheet, header included. Writes are not retried.
// Any write drops the cached state of every kind.
func (s *Store) Save(ctx context.Context, table Table) error {
	if _, err := Columns(table.Kind); err != nil {
		return err
	}
	shaped := shape(table)
	defer s.invalidate(ctx)
	if err := s.backend.WriteTable(ctx, string(shaped.Kind), shaped.Header, shaped.Cells()); err != nil {
		s.log.Error("record save failed",
			zap.String("kind", string(shaped.Kind)),
			zap.Int("rows", shaped.Len()),
			zap.Error(err))
		return fmt.Errorf("%w: save %s: %w", ErrStoreUnavailable, shaped.Kind, err)
	}
	s.log.Debug("record table saved", zap.String("kind", string(shaped.Kind)), zap.Int("rows", shaped.Len()))
	return nil
}

// Append adds one row by reading the current sheet from the backend,
// concatenating and overwriting. Concurrent appends race; the last write wins.
func (s *Store) Append(ctx context.Context, kind Kind, row Row) error {
	current, err := s.readOnce(ctx, kind)
	if err != nil {
		return err
	}
	current.Rows = append(current.Rows, shapeRow(current.Header, row))
	return s.Save(ctx, current)
}

// SaveIfUnchanged overwrites the sheet only when its current content still
// matches revision, as captured from an earlier load.
func (s *Store) SaveIfUnchanged(ctx context.Context, table Table, revision string) error {
	current, err := s.readOnce(ctx, table.Kind)
	if err != nil {
		return err
	}
	if current.Revision() != revision {
		return ErrStaleTable
	}
	return s.Save(ctx, table)
}

func (s *Store) readOnce(ctx context.Context, kind Kind) (Table, error) {
	if _, err := Columns(kind); err != nil {
		return Table{}, err
	}
	header, cells, err := s.backend.ReadTable(ctx, string(kind))
	if err != nil {
		return Table{}, fmt.Errorf("%w: read %s: %w", ErrStoreUnavailable, kind, err)
	}
	return normalize(kind, header, cells), nil
}

func (s *Store) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cacheKey(kind Kind) string {
	return "records:" + string(kind)
}

func (s *Store) cached(ctx context.Context, kind Kind) (Table, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return Table{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(kind))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("record cache read failed", zap.String("kind", string(kind)), zap.Error(err))
		}
		return Table{}, false
	}
	var entry cachedTable
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.log.Warn("record cache entry unreadable", zap.String("kind", string(kind)), zap.Error(err))
		return Table{}, false
	}
	return normalize(kind, entry.Header, entry.Cells), true
}

func (s *Store) remember(ctx context.Context, table Table) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(cachedTable{Header: table.Header, Cells: table.Cells()})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(table.Kind), raw, s.ttl); err != nil {
		s.log.Warn("record cache write failed", zap.String("kind", string(table.Kind)), zap.Error(err))
	}
}

func (s *Store) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(schema))
	for _, kind := range Kinds() {
		keys = append(keys, cacheKey(kind))
	}
	if err := s.cache.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		s.log.Warn("record cache invalidation failed", zap.Error(err))
	}
}

// shape fills in a caller-built table: the schema header is restored and
// every row is cut to exactly the header's columns.
func shape(t Table) Table {
	cols, _ := Columns(t.Kind)
	seen := make(map[string]bool, len(cols))
	header := append([]string{}, cols...)
	for _, c := range cols {
		seen[c] = true
	}
	for _, c := range t.Header {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		header = append(header, c)
	}
	rows := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		rows = append(rows, shapeRow(header, row))
	}
	return Table{Kind: t.Kind, Header: header, Rows: rows}
}
