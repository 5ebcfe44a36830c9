// Package migration applies the versioned SQL files under migrations/.
package migration

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"resume-match/internal/database"

	"github.com/sirupsen/logrus"
)

// lockKey serializes runners across processes. The lock is transaction
// scoped, so it is released by the same commit or rollback that ends the batch.
const lockKey int64 = 582_113_907

const (
	createLedgerSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	lockSQL        = `SELECT pg_advisory_xact_lock($1)`
	appliedSQL     = `SELECT version, checksum FROM schema_migrations`
	recordApplySQL = `INSERT INTO schema_migrations (version, name, checksum, applied_at) VALUES ($1, $2, $3, $4)`
)

var ErrNoSource = errors.New("migration: no directory or embedded files configured")

// Runner applies every pending migration in one transaction: either the whole
// batch lands or none of it does. Dir wins over FS when both are set.
type Runner struct {
	Dir    string
	FS     fs.FS
	Logger logrus.FieldLogger
	Now    func() time.Time
}

type Migration struct {
	Version  int64
	Name     string
	Filename string
	SQL      string
	Checksum string
}

func (r Runner) source() (fs.FS, string, error) {
	if dir := strings.TrimSpace(r.Dir); dir != "" {
		return os.DirFS(dir), dir, nil
	}
	if r.FS != nil {
		return r.FS, "embedded", nil
	}
	return nil, "", ErrNoSource
}

// Run returns how many migrations were applied. Files already recorded must
// keep their checksum.
func (r Runner) Run(ctx context.Context, db database.DB) (int, error) {
	if db == nil {
		return 0, database.ErrNilDB
	}
	log := r.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}

	fsys, origin, err := r.source()
	if err != nil {
		return 0, err
	}
	migs, err := LoadFS(fsys)
	if err != nil {
		return 0, fmt.Errorf("load migrations from %s: %w", origin, err)
	}
	if len(migs) == 0 {
		log.WithField("source", origin).Warn("no migrations found")
		return 0, nil
	}

	var applied []Migration
	err = database.InTx(ctx, db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx, lockSQL, lockKey); err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		if _, err := tx.Exec(ctx, createLedgerSQL); err != nil {
			return fmt.Errorf("create schema_migrations: %w", err)
		}
		done, err := readLedger(ctx, tx)
		if err != nil {
			return err
		}
		pending, err := Pending(migs, done)
		if err != nil {
			return err
		}
		for _, m := range pending {
			start := time.Now()
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return fmt.Errorf("apply %s: %w", m.Filename, err)
			}
			if _, err := tx.Exec(ctx, recordApplySQL, m.Version, m.Name, m.Checksum, now().UTC()); err != nil {
				return fmt.Errorf("record %s: %w", m.Filename, err)
			}
			log.WithFields(logrus.Fields{
				"version":  m.Version,
				"name":     m.Name,
				"duration": time.Since(start).String(),
			}).Info("migration applied")
		}
		applied = pending
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(applied), nil
}

func readLedger(ctx context.Context, q database.Querier) (map[int64]string, error) {
	rows, err := q.Query(ctx, appliedSQL)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[int64]string)
	for rows.Next() {
		var (
			version  int64
			checksum string
		)
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, err
		}
		done[version] = checksum
	}
	return done, rows.Err()
}

var fileRe = regexp.MustCompile(`^V(\d+)__([A-Za-z0-9_.-]+)\.sql$`)

// Load reads V<version>__<name>.sql files from dir. A missing directory
// yields no migrations.
func Load(dir string) ([]Migration, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads migrations from the root of fsys, sorted by version.
func LoadFS(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var migs []Migration
	for _, e := range entries {
		parts := fileRe.FindStringSubmatch(e.Name())
		if e.IsDir() || parts == nil {
			continue
		}
		m, err := parseFile(fsys, e.Name(), parts[1], parts[2])
		if err != nil {
			return nil, err
		}
		migs = append(migs, m)
	}

	slices.SortFunc(migs, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	for i := 1; i < len(migs); i++ {
		if migs[i].Version == migs[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version: %d", migs[i].Version)
		}
	}
	return migs, nil
}

func parseFile(fsys fs.FS, filename, version, name string) (Migration, error) {
	v, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return Migration{}, fmt.Errorf("invalid migration version: %s", filename)
	}
	raw, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return Migration{}, err
	}
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return Migration{}, fmt.Errorf("empty migration file: %s", filename)
	}
	sum := sha256.Sum256([]byte(body))
	return Migration{
		Version:  v,
		Name:     name,
		Filename: filename,
		SQL:      body,
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// Pending returns the migrations absent from applied (version -> checksum).
func Pending(migs []Migration, applied map[int64]string) ([]Migration, error) {
	var out []Migration
	for _, m := range migs {
		sum, ok := applied[m.Version]
		switch {
		case !ok:
			out = append(out, m)
		case sum != m.Checksum:
			return nil, fmt.Errorf("migration checksum mismatch: version=%d name=%s", m.Version, m.Name)
		}
	}
	return out, nil
}
