package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/maauso/mediacompose-api/internal/failure"
)

const schemaVersion = 1

// SQLiteConfig defines SQLite operational parameters.
type SQLiteConfig struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultSQLiteConfig returns the configuration used by the server.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
	}
}

// Compile-time check that SQLiteRepository implements Repository.
var _ Repository = (*SQLiteRepository)(nil)

// SQLiteRepository implements Repository on a single SQLite table.
// State changes are single conditional UPDATE statements, so a claim can
// never hand the same job to two callers.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and migrates) the job database at path.
func OpenSQLite(path string, cfg SQLiteConfig) (*SQLiteRepository, error) {
	// _pragma applies to every connection in the pool.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	r := &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("job store: migration failed: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	var currentVersion int
	if err := r.db.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		parameters TEXT NOT NULL,
		result_url TEXT,
		duration_seconds REAL,
		processing_seconds REAL,
		error_message TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status, created_at, id);
	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const jobColumns = `id, status, parameters, result_url, duration_seconds, processing_seconds, error_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		j                    Job
		params               string
		resultURL, errMsg    sql.NullString
		duration, processing sql.NullFloat64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&j.ID, &j.Status, &params, &resultURL, &duration, &processing, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &j.Parameters); err != nil {
		return nil, fmt.Errorf("decode parameters of job %s: %w", j.ID, err)
	}
	if resultURL.Valid {
		j.Result = &Result{
			URL:               resultURL.String,
			DurationSeconds:   duration.Float64,
			ProcessingSeconds: processing.Float64,
		}
	}
	j.Error = errMsg.String
	j.CreatedAt = time.Unix(0, createdAt).UTC()
	j.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &j, nil
}

// Create implements Repository.Create.
func (r *SQLiteRepository) Create(ctx context.Context, job *Job) error {
	params, err := json.Marshal(job.Parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, parameters, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		job.ID, string(job.Status), string(params), job.CreatedAt.UnixNano(), job.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID)
		}
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// ClaimNextPending implements Repository.ClaimNextPending.
func (r *SQLiteRepository) ClaimNextPending(ctx context.Context) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
	UPDATE jobs SET status = ?, updated_at = ?
	WHERE id = (
		SELECT id FROM jobs WHERE status = ? ORDER BY created_at, id LIMIT 1
	) AND status = ?
	RETURNING `+jobColumns,
		string(StatusProcessing), r.now().UnixNano(), string(StatusPending), string(StatusPending),
	)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPendingJob
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return j, nil
}

// MarkCompleted implements Repository.MarkCompleted.
func (r *SQLiteRepository) MarkCompleted(ctx context.Context, id string, result Result) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE jobs SET status = ?, result_url = ?, duration_seconds = ?, processing_seconds = ?, updated_at = ?
	WHERE id = ? AND status = ?`,
		string(StatusCompleted), result.URL, result.DurationSeconds, result.ProcessingSeconds, r.now().UnixNano(),
		id, string(StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return r.checkTransition(ctx, res, id, StatusCompleted)
}

// MarkFailed implements Repository.MarkFailed.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id string, message string) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE jobs SET status = ?, error_message = ?, updated_at = ?
	WHERE id = ? AND status = ?`,
		string(StatusFailed), failure.Truncate(message), r.now().UnixNano(),
		id, string(StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return r.checkTransition(ctx, res, id, StatusFailed)
}

// checkTransition explains why a conditional update touched no row.
func (r *SQLiteRepository) checkTransition(ctx context.Context, res sql.Result, id string, to Status) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
}

// FindByID implements Repository.FindByID.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	return j, nil
}

// CountByStatus implements Repository.CountByStatus.
func (r *SQLiteRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			s Status
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

// FailInterrupted implements Repository.FailInterrupted.
func (r *SQLiteRepository) FailInterrupted(ctx context.Context, message string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		string(StatusFailed), failure.Truncate(message), r.now().UnixNano(), string(StatusProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
