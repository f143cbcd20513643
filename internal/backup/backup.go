// Package backup dumps and restores the full dataset as a zip archive
// of per-table JSON documents.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zip"

	"mietwerk/internal/core/id"
	"mietwerk/internal/infrastructure/storage/postgres"
	"mietwerk/internal/observability/metrics"
	"mietwerk/pkg/logger"
)

// tables lists every dumped table in dependency order. Restore
// truncates in reverse and loads in this order so foreign keys hold.
var tables = []string{
	"cat_buildings",
	"cat_apartments",
	"cat_tenants",
	"cat_meter_types",
	"cat_meters",
	"cat_cost_categories",
	"cat_landlords",
	"rec_contracts",
	"rec_cost_records",
	"rec_meter_readings",
	"rec_incomes",
	"rec_settlements",
}

const manifestName = "manifest.json"

type manifest struct {
	CreatedAt time.Time `json:"created_at"`
	Tables    []string  `json:"tables"`
}

// JobState tracks the lifecycle of a background backup job.
type JobState string

const (
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job describes one backup run.
type Job struct {
	ID         id.ID
	State      JobState
	Path       string
	StartedAt  time.Time
	FinishedAt time.Time
	Err        string
}

// Config holds backup manager settings.
type Config struct {
	Dir  string
	Keep int
}

// Manager creates and restores backup archives.
type Manager struct {
	txManager *postgres.TxManager
	cfg       Config

	mu   sync.Mutex
	jobs map[id.ID]*Job
}

func NewManager(txManager *postgres.TxManager, cfg Config) *Manager {
	if cfg.Dir == "" {
		cfg.Dir = "backups"
	}
	return &Manager{
		txManager: txManager,
		cfg:       cfg,
		jobs:      make(map[id.ID]*Job),
	}
}

// Run starts a backup on a background goroutine and returns the job ID
// immediately. Progress is available via Status.
func (m *Manager) Run(ctx context.Context) id.ID {
	job := &Job{
		ID:        id.New(),
		State:     JobRunning,
		StartedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go func() {
		path, err := m.Create(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		job.FinishedAt = time.Now().UTC()
		if err != nil {
			job.State = JobFailed
			job.Err = err.Error()
			return
		}
		job.State = JobDone
		job.Path = path
	}()

	return job.ID
}

// Status returns a copy of the job record, or false if unknown.
func (m *Manager) Status(jobID id.ID) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Create writes a new archive into the configured directory, prunes old
// archives past the retention limit, and returns the archive path.
func (m *Manager) Create(ctx context.Context) (string, error) {
	start := time.Now()

	if err := os.MkdirAll(m.cfg.Dir, 0o755); err != nil {
		metrics.ObserveBackup("create", metrics.ResultError, time.Since(start))
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("mietwerk-%s.zip", time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(m.cfg.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		metrics.ObserveBackup("create", metrics.ResultError, time.Since(start))
		return "", fmt.Errorf("create archive: %w", err)
	}

	err = m.WriteArchive(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		metrics.ObserveBackup("create", metrics.ResultError, time.Since(start))
		return "", err
	}

	if err := m.prune(); err != nil {
		logger.Warn(ctx, "backup retention prune failed", "error", err)
	}

	metrics.ObserveBackup("create", metrics.ResultSuccess, time.Since(start))
	logger.Info(ctx, "backup created", "path", path)
	return path, nil
}

// WriteArchive streams the full dump to w as a zip archive.
func (m *Manager) WriteArchive(ctx context.Context, w io.Writer) error {
	zw := zip.NewWriter(w)

	mf := manifest{CreatedAt: time.Now().UTC(), Tables: tables}
	mfData, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeEntry(zw, manifestName, mfData); err != nil {
		return err
	}

	for _, table := range tables {
		data, err := m.dumpTable(ctx, table)
		if err != nil {
			return fmt.Errorf("dump %s: %w", table, err)
		}
		if err := writeEntry(zw, table+".json", data); err != nil {
			return err
		}
	}

	return zw.Close()
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	entry, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

func (m *Manager) dumpTable(ctx context.Context, table string) ([]byte, error) {
	sql := fmt.Sprintf(`SELECT COALESCE(json_agg(t), '[]'::json) FROM %s t`, table)

	var data []byte
	row := m.txManager.GetQuerier(ctx).QueryRow(ctx, sql)
	if err := row.Scan(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// Restore loads an archive created by Create, replacing all current
// data. Truncate and reload happen in a single transaction.
func (m *Manager) Restore(ctx context.Context, path string) error {
	start := time.Now()

	zr, err := zip.OpenReader(path)
	if err != nil {
		metrics.ObserveBackup("restore", metrics.ResultError, time.Since(start))
		return fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	dumps, err := readArchive(&zr.Reader)
	if err != nil {
		metrics.ObserveBackup("restore", metrics.ResultError, time.Since(start))
		return err
	}

	err = m.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := m.txManager.GetQuerier(ctx)

		for i := len(tables) - 1; i >= 0; i-- {
			if _, err := q.Exec(ctx, fmt.Sprintf("DELETE FROM %s", tables[i])); err != nil {
				return fmt.Errorf("clear %s: %w", tables[i], err)
			}
		}

		for _, table := range tables {
			data, ok := dumps[table]
			if !ok {
				continue
			}
			sql := fmt.Sprintf(
				`INSERT INTO %s SELECT * FROM json_populate_recordset(NULL::%s, $1::json)`,
				table, table,
			)
			if _, err := q.Exec(ctx, sql, data); err != nil {
				return fmt.Errorf("load %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.ObserveBackup("restore", metrics.ResultError, time.Since(start))
		return err
	}

	metrics.ObserveBackup("restore", metrics.ResultSuccess, time.Since(start))
	logger.Info(ctx, "backup restored", "path", path)
	return nil
}

// readArchive validates the manifest and returns the per-table dumps.
func readArchive(zr *zip.Reader) (map[string][]byte, error) {
	files := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}
		files[f.Name] = data
	}

	mfData, ok := files[manifestName]
	if !ok {
		return nil, fmt.Errorf("archive has no %s", manifestName)
	}
	var mf manifest
	if err := json.Unmarshal(mfData, &mf); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[t] = true
	}

	dumps := make(map[string][]byte, len(mf.Tables))
	for _, table := range mf.Tables {
		if !known[table] {
			return nil, fmt.Errorf("manifest lists unknown table %q", table)
		}
		data, ok := files[table+".json"]
		if !ok {
			return nil, fmt.Errorf("archive missing dump for %s", table)
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("dump for %s is not valid JSON", table)
		}
		dumps[table] = data
	}
	return dumps, nil
}

// prune removes archives beyond the retention limit, oldest first.
func (m *Manager) prune() error {
	if m.cfg.Keep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "mietwerk-") && strings.HasSuffix(e.Name(), ".zip") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= m.cfg.Keep {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(names)
	for _, name := range names[:len(names)-m.cfg.Keep] {
		if err := os.Remove(filepath.Join(m.cfg.Dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Scheduler runs periodic backups until the context is cancelled.
type Scheduler struct {
	manager  *Manager
	interval time.Duration
}

func NewScheduler(manager *Manager, interval time.Duration) *Scheduler {
	return &Scheduler{manager: manager, interval: interval}
}

// Start blocks, creating a backup every interval. It returns when ctx
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.manager.Create(ctx); err != nil {
				logger.Error(ctx, "scheduled backup failed", "error", err)
			}
		}
	}
}

