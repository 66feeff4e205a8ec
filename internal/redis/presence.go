package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PresenceStatus is the stored snapshot of a user's online state.
type PresenceStatus struct {
	UserID   string    `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// PresenceStore tracks which users hold at least one live WebSocket
// connection. Each connection is recorded separately so a user with two
// tabs only goes offline when the last one closes.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

const (
	presenceKeyPrefix    = "presence:"
	presenceOnlineSet    = "presence:online"
	connectionsKeyPrefix = "connections:"
)

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceStore{client: client, ttl: ttl}
}

// SetOnline records a new connection for the user and marks them online.
func (p *PresenceStore) SetOnline(ctx context.Context, userID, clientID string) error {
	now := time.Now()
	status := PresenceStatus{UserID: userID, IsOnline: true, LastSeen: now}
	data, _ := json.Marshal(status)

	pipe := p.client.Pipeline()
	pipe.Set(ctx, presenceKeyPrefix+userID, data, p.ttl)
	pipe.SAdd(ctx, presenceOnlineSet, userID)
	pipe.HSet(ctx, connectionsKeyPrefix+userID, clientID, now.UTC().Format(time.RFC3339))
	pipe.Expire(ctx, connectionsKeyPrefix+userID, p.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// SetOffline drops one connection. The user is only marked offline when
// no connections remain.
func (p *PresenceStore) SetOffline(ctx context.Context, userID, clientID string) error {
	if err := p.client.HDel(ctx, connectionsKeyPrefix+userID, clientID).Err(); err != nil {
		return err
	}

	remaining, err := p.client.HLen(ctx, connectionsKeyPrefix+userID).Result()
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}

	status := PresenceStatus{UserID: userID, IsOnline: false, LastSeen: time.Now()}
	data, _ := json.Marshal(status)

	pipe := p.client.Pipeline()
	// Offline status kept longer so last-seen queries still resolve.
	pipe.Set(ctx, presenceKeyPrefix+userID, data, 24*time.Hour)
	pipe.SRem(ctx, presenceOnlineSet, userID)
	_, err = pipe.Exec(ctx)
	return err
}

// Heartbeat refreshes the presence TTL for a connected user.
func (p *PresenceStore) Heartbeat(ctx context.Context, userID string) error {
	pipe := p.client.Pipeline()
	pipe.Expire(ctx, presenceKeyPrefix+userID, p.ttl)
	pipe.Expire(ctx, connectionsKeyPrefix+userID, p.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// GetPresence returns the stored status, defaulting to offline when the
// key has expired or never existed.
func (p *PresenceStore) GetPresence(ctx context.Context, userID string) (PresenceStatus, error) {
	data, err := p.client.Get(ctx, presenceKeyPrefix+userID).Result()
	if err == goredis.Nil {
		return PresenceStatus{UserID: userID}, nil
	}
	if err != nil {
		return PresenceStatus{}, err
	}

	var status PresenceStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return PresenceStatus{}, err
	}
	return status, nil
}

// IsOnline checks membership in the online set.
func (p *PresenceStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	return p.client.SIsMember(ctx, presenceOnlineSet, userID).Result()
}

// OnlineUsers returns every user ID in the online set.
func (p *PresenceStore) OnlineUsers(ctx context.Context) ([]string, error) {
	return p.client.SMembers(ctx, presenceOnlineSet).Result()
}

// OnlineCount returns the size of the online set.
func (p *PresenceStore) OnlineCount(ctx context.Context) (int64, error) {
	return p.client.SCard(ctx, presenceOnlineSet).Result()
}
