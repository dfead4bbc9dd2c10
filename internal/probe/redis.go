package probe

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// probeRedis verifies a Redis backend: raw socket connect first, then a
// real client PING.
func (p *Prober) probeRedis(ctx context.Context, connectionString string) error {
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	host, port, err := hostPort(connectionString, "6379")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.checkTCP(ctx, host, port); err != nil {
		return err
	}

	opts.DialTimeout = p.timeout
	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
