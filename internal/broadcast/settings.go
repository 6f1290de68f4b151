// Package broadcast fans settings changes out to every running instance over
// Redis pub/sub.
package broadcast

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Reloader refreshes a local settings snapshot.
type Reloader interface {
	ReloadIfStale(ctx context.Context, version int64) error
}

type Broadcaster struct {
	rdb     *redis.Client
	channel string
	log     *logrus.Logger
}

func New(rdb *redis.Client, channel string, log *logrus.Logger) *Broadcaster {
	return &Broadcaster{rdb: rdb, channel: channel, log: log}
}

// PublishSettingsVersion implements service.SettingsBroadcaster.
func (b *Broadcaster) PublishSettingsVersion(ctx context.Context, version int64) error {
	if err := b.rdb.Publish(ctx, b.channel, strconv.FormatInt(version, 10)).Err(); err != nil {
		return fmt.Errorf("failed to publish settings version: %w", err)
	}
	return nil
}

// Listen reloads r whenever another instance announces a newer settings version.
// It returns when ctx is cancelled.
func (b *Broadcaster) Listen(ctx context.Context, r Reloader) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.log.WithField("channel", b.channel).Info("listening for settings changes")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, r, msg.Payload)
		}
	}
}

func (b *Broadcaster) handle(ctx context.Context, r Reloader, payload string) {
	version, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		b.log.WithField("payload", payload).Warn("ignoring malformed settings broadcast")
		return
	}
	if err := r.ReloadIfStale(ctx, version); err != nil {
		b.log.WithError(err).WithField("version", version).Error("failed to reload settings")
	}
}

func (b *Broadcaster) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *Broadcaster) Close() error {
	return b.rdb.Close()
}
