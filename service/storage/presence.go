package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

var rdb *redis.Client

func InitRedis(c RedisConfig) error {
	rdb = redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	return rdb.Ping(context.Background()).Err()
}

// presence key: im:presence:<user>
// Value is the gateway node id; the TTL bounds staleness if a node dies
// without cleaning up.
func presenceKey(userID int64) string {
	return "im:presence:" + strconv.FormatInt(userID, 10)
}

// RedisPresence mirrors who-is-online into redis. It satisfies the chat
// server's PresenceStore.
type RedisPresence struct {
	NodeID string
}

func NewRedisPresence(nodeID string) *RedisPresence {
	return &RedisPresence{NodeID: nodeID}
}

func (p *RedisPresence) Online(ctx context.Context, userID int64, ttl time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(userID), p.NodeID, ttl).Err()
}

// offlineScript deletes the presence key only while this node still owns
// it. The same user connected on another node must keep that node's claim
// when our last local connection closes.
var offlineScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (p *RedisPresence) Offline(ctx context.Context, userID int64) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return offlineScript.Run(ctx, rdb, []string{presenceKey(userID)}, p.NodeID).Err()
}

// PresenceLookup reports whether the user is online anywhere and on which
// node.
func PresenceLookup(ctx context.Context, userID int64) (nodeID string, online bool, err error) {
	if rdb == nil {
		return "", false, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
