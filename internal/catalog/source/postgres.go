package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres exports the catalog from a table or view with
// COPY (query) TO STDOUT in CSV format with a header row. The query must
// return the catalog columns in positional order.
type Postgres struct {
	pool     *pgxpool.Pool
	copySQL  string
	maxBytes int64

	// copyTo runs a COPY ... TO STDOUT statement into w.
	copyTo func(ctx context.Context, w io.Writer, sql string) error
}

// NewPostgres creates a small connection pool for dsn. Connections are
// established lazily on the first fetch.
func NewPostgres(ctx context.Context, dsn, query string, maxBytes int64) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse catalog database url: %w", err)
	}
	poolCfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create catalog database pool: %w", err)
	}

	p := &Postgres{
		pool:     pool,
		copySQL:  copyStatement(query),
		maxBytes: maxBytes,
	}
	p.copyTo = p.poolCopyTo
	return p, nil
}

// copyStatement wraps a SELECT in a CSV COPY export.
func copyStatement(query string) string {
	q := strings.TrimSpace(query)
	q = strings.TrimRight(q, "; \t\r\n")
	return "COPY (" + q + ") TO STDOUT WITH (FORMAT csv, HEADER true)"
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Fetch(ctx context.Context) (string, error) {
	buf := &cappedBuffer{max: p.maxBytes}
	if err := p.copyTo(ctx, buf, p.copySQL); err != nil {
		return "", fmt.Errorf("copy catalog: %w", err)
	}

	return ReadText(&buf.Buffer, p.maxBytes)
}

func (p *Postgres) poolCopyTo(ctx context.Context, w io.Writer, sql string) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire catalog connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Conn().PgConn().CopyTo(ctx, w, sql)
	return err
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
