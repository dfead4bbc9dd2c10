package probe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// probePostgres verifies a PostgreSQL backend: raw socket connect first,
// then a real connection executing SELECT 1.
func (p *Prober) probePostgres(ctx context.Context, connectionString string) error {
	host, port, err := hostPort(connectionString, "5432")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.checkTCP(ctx, host, port); err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, connectionString)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	var one int
	if err := conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("verification query: %w", err)
	}
	return nil
}
