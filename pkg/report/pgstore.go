package report

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/weberc2/dupfinder/pkg/dupes"
	"github.com/weberc2/dupfinder/pkg/fingerprint"
)

const errUniqueViolation = "23505"

// failure stages
const (
	stageFingerprint = "fingerprint"
	stageEnumerate   = "enumerate"
)

// ExistsErr is returned when a report with the same ID is already stored.
type ExistsErr struct {
	ID uuid.UUID
}

func (err *ExistsErr) Error() string {
	return fmt.Sprintf("report exists: %s", err.ID)
}

// PGReportStore keeps reports in three postgres tables. Duplicate groups are
// not stored; they're derived from the stored fingerprints, whose order is
// preserved by a sequence column.
type PGReportStore struct {
	DB *sql.DB
}

func (pgrs *PGReportStore) EnsureTables() error {
	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS dupfinder_runs (" +
			"id UUID NOT NULL PRIMARY KEY, " +
			"root TEXT NOT NULL, " +
			"algorithm VARCHAR(32) NOT NULL, " +
			"workers INTEGER NOT NULL, " +
			"started TIMESTAMPTZ NOT NULL, " +
			"finished TIMESTAMPTZ NOT NULL, " +
			"files INTEGER NOT NULL, " +
			"fingerprinted INTEGER NOT NULL, " +
			"failed INTEGER NOT NULL, " +
			"skipped INTEGER NOT NULL, " +
			"duplicate_files INTEGER NOT NULL, " +
			"wasted_bytes BIGINT NOT NULL)",
		"CREATE TABLE IF NOT EXISTS dupfinder_fingerprints (" +
			"run UUID NOT NULL REFERENCES dupfinder_runs(id) ON DELETE CASCADE, " +
			"seq INTEGER NOT NULL, " +
			"path TEXT NOT NULL, " +
			"fingerprint CHAR(32) NOT NULL, " +
			"PRIMARY KEY (run, path))",
		"CREATE TABLE IF NOT EXISTS dupfinder_failures (" +
			"run UUID NOT NULL REFERENCES dupfinder_runs(id) ON DELETE CASCADE, " +
			"stage VARCHAR(16) NOT NULL, " +
			"seq INTEGER NOT NULL, " +
			"path TEXT NOT NULL, " +
			"error TEXT NOT NULL, " +
			"PRIMARY KEY (run, stage, path))",
	} {
		if _, err := pgrs.DB.Exec(stmt); err != nil {
			return fmt.Errorf("creating dupfinder postgres tables: %w", err)
		}
	}
	return nil
}

func (pgrs *PGReportStore) DropTables() error {
	if _, err := pgrs.DB.Exec(
		"DROP TABLE IF EXISTS " +
			"dupfinder_failures, dupfinder_fingerprints, dupfinder_runs",
	); err != nil {
		return fmt.Errorf("dropping dupfinder postgres tables: %w", err)
	}
	return nil
}

func (pgrs *PGReportStore) ResetTables() error {
	if err := pgrs.DropTables(); err != nil {
		return err
	}
	return pgrs.EnsureTables()
}

func (pgrs *PGReportStore) Put(r *Report) (err error) {
	var tx *sql.Tx
	if tx, err = pgrs.DB.Begin(); err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(
		"INSERT INTO dupfinder_runs "+
			"(id, root, algorithm, workers, started, finished, files, "+
			"fingerprinted, failed, skipped, duplicate_files, wasted_bytes) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
		r.ID.String(),
		dupes.EncodePath(r.Root),
		r.Algorithm,
		r.Workers,
		r.Started,
		r.Finished,
		r.Summary.Files,
		r.Summary.Fingerprinted,
		r.Summary.Failed,
		r.Summary.Skipped,
		r.Summary.DuplicateFiles,
		r.Summary.WastedBytes,
	); err != nil {
		if e, ok := err.(*pq.Error); ok && e.Code == errUniqueViolation {
			err = &ExistsErr{ID: r.ID}
			return
		}
		err = fmt.Errorf("inserting run into postgres: %w", err)
		return
	}

	if err = copyIn(
		tx,
		"dupfinder_fingerprints",
		[]string{"run", "seq", "path", "fingerprint"},
		r.Fingerprints.Len(),
		func(i int) []interface{} {
			path := r.Fingerprints.Paths()[i]
			f, _ := r.Fingerprints.Get(path)
			return []interface{}{
				r.ID.String(),
				i,
				dupes.EncodePath(path),
				f.String(),
			}
		},
	); err != nil {
		err = fmt.Errorf("inserting fingerprints into postgres: %w", err)
		return
	}

	for _, stage := range []struct {
		name     string
		failures []Failure
	}{
		{stageFingerprint, r.Failures},
		{stageEnumerate, r.Skipped},
	} {
		failures := stage.failures
		if err = copyIn(
			tx,
			"dupfinder_failures",
			[]string{"run", "stage", "seq", "path", "error"},
			len(failures),
			func(i int) []interface{} {
				return []interface{}{
					r.ID.String(),
					stage.name,
					i,
					dupes.EncodePath(failures[i].Path),
					strings.ToValidUTF8(failures[i].Error, "\uFFFD"),
				}
			},
		); err != nil {
			err = fmt.Errorf(
				"inserting %s failures into postgres: %w",
				stage.name,
				err,
			)
			return
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("committing transaction: %w", err)
	}
	return
}

// copyIn bulk-loads `n` rows with postgres' COPY protocol.
func copyIn(
	tx *sql.Tx,
	table string,
	columns []string,
	n int,
	row func(int) []interface{},
) error {
	stmt, err := tx.Prepare(pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("preparing copy into `%s`: %w", table, err)
	}
	for i := 0; i < n; i++ {
		if _, err := stmt.Exec(row(i)...); err != nil {
			stmt.Close()
			return fmt.Errorf("copying row %d into `%s`: %w", i, table, err)
		}
	}
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return fmt.Errorf("flushing copy into `%s`: %w", table, err)
	}
	return stmt.Close()
}

func (pgrs *PGReportStore) Get(id uuid.UUID) (*Report, error) {
	r := Report{ID: id}
	var root string
	var started, finished time.Time
	if err := pgrs.DB.QueryRow(
		"SELECT root, algorithm, workers, started, finished, files, "+
			"fingerprinted, failed, skipped, duplicate_files, wasted_bytes "+
			"FROM dupfinder_runs WHERE id = $1",
		id.String(),
	).Scan(
		&root,
		&r.Algorithm,
		&r.Workers,
		&started,
		&finished,
		&r.Summary.Files,
		&r.Summary.Fingerprinted,
		&r.Summary.Failed,
		&r.Summary.Skipped,
		&r.Summary.DuplicateFiles,
		&r.Summary.WastedBytes,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundErr{ID: id}
		}
		return nil, fmt.Errorf("fetching run from postgres: %w", err)
	}
	var err error
	if r.Root, err = dupes.DecodePath(root); err != nil {
		return nil, err
	}
	r.Started, r.Finished = started.UTC(), finished.UTC()
	r.Summary.Formatted = dupes.FormatSize(r.Summary.WastedBytes)

	fingerprints, err := pgrs.fingerprints(id)
	if err != nil {
		return nil, err
	}
	r.Fingerprints = fingerprints
	r.Duplicates = dupes.GroupByFingerprint(fingerprints)

	if r.Failures, err = pgrs.failures(id, stageFingerprint); err != nil {
		return nil, err
	}
	if r.Skipped, err = pgrs.failures(id, stageEnumerate); err != nil {
		return nil, err
	}
	return &r, nil
}

func (pgrs *PGReportStore) fingerprints(id uuid.UUID) (*dupes.Map, error) {
	rows, err := pgrs.DB.Query(
		"SELECT path, fingerprint FROM dupfinder_fingerprints "+
			"WHERE run = $1 ORDER BY seq",
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching fingerprints from postgres: %w", err)
	}
	defer rows.Close()

	m := dupes.NewMap(0)
	for rows.Next() {
		var text, hex string
		if err := rows.Scan(&text, &hex); err != nil {
			return nil, fmt.Errorf("scanning fingerprint row: %w", err)
		}
		path, err := dupes.DecodePath(text)
		if err != nil {
			return nil, err
		}
		f, err := fingerprint.Parse(hex)
		if err != nil {
			return nil, err
		}
		if err := m.Insert(path, f); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fingerprint rows: %w", err)
	}
	return m, nil
}

func (pgrs *PGReportStore) failures(
	id uuid.UUID,
	stage string,
) ([]Failure, error) {
	rows, err := pgrs.DB.Query(
		"SELECT path, error FROM dupfinder_failures "+
			"WHERE run = $1 AND stage = $2 ORDER BY seq",
		id.String(),
		stage,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching failures from postgres: %w", err)
	}
	defer rows.Close()

	failures := []Failure{}
	for rows.Next() {
		var f Failure
		var text string
		if err := rows.Scan(&text, &f.Error); err != nil {
			return nil, fmt.Errorf("scanning failure row: %w", err)
		}
		if f.Path, err = dupes.DecodePath(text); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating failure rows: %w", err)
	}
	return failures, nil
}

func (pgrs *PGReportStore) List() ([]uuid.UUID, error) {
	rows, err := pgrs.DB.Query("SELECT id FROM dupfinder_runs")
	if err != nil {
		return nil, fmt.Errorf("listing runs from postgres: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parsing run id `%s`: %w", s, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run rows: %w", err)
	}
	sortIDs(ids)
	return ids, nil
}

var _ Store = &PGReportStore{}
