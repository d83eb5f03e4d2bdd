package replication

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/inkwave/teamsync-backend/internal/platform/logger"
)

type redisFeed struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisFeed(log *logger.Logger) (Feed, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "team-replication"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisFeed{
		log:     log.With("service", "RedisReplicationFeed"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (f *redisFeed) Publish(ctx context.Context, ev Event) error {
	if f == nil || f.rdb == nil {
		return fmt.Errorf("replication feed not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, f.channel, raw).Err()
}

func (f *redisFeed) StartForwarder(ctx context.Context, onEvent func(ev Event)) error {
	if f == nil || f.rdb == nil {
		return fmt.Errorf("replication feed not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := f.rdb.Subscribe(ctx, f.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					f.log.Warn("bad replication payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}

func (f *redisFeed) Close() error {
	if f == nil || f.rdb == nil {
		return nil
	}
	return f.rdb.Close()
}
