package store

import (
	"context"
	"database/sql"
	"log"

	"pdfcrop/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobStorer interface {
	SaveJob(context.Context, types.Job) error
	GetJobByID(context.Context, uuid.UUID) (*types.Job, error)
	Init(context.Context) error
	Close() error
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (p *PostgresStore) GetJobByID(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, filename, top_cm, bottom_cm, sections, status, error, created_at
		FROM jobs WHERE id = $1`, id)

	job := &types.Job{}
	var status string
	if err := row.Scan(
		&job.ID,
		&job.Filename,
		&job.TopCm,
		&job.BottomCm,
		&job.Sections,
		&status,
		&job.Error,
		&job.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	job.Status = types.JobStatus(status)
	return job, nil
}

func (p *PostgresStore) SaveJob(ctx context.Context, job types.Job) error {
	query := `INSERT INTO jobs (id, filename, top_cm, bottom_cm, sections, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			sections = EXCLUDED.sections,
			status = EXCLUDED.status,
			error = EXCLUDED.error
			`
	_, err := p.pool.Exec(
		ctx,
		query,
		job.ID,
		job.Filename,
		job.TopCm,
		job.BottomCm,
		job.Sections,
		string(job.Status),
		job.Error,
		job.CreatedAt,
	)
	return err
}

func (p *PostgresStore) createJobTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS jobs (
		id UUID PRIMARY KEY,
		filename TEXT NOT NULL,
		top_cm TEXT NOT NULL,
		bottom_cm TEXT NOT NULL,
		sections INTEGER NOT NULL DEFAULT 0,
		status TEXT CHECK (status IN ('done','failed')),
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	`
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createJobTables(ctx)
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
