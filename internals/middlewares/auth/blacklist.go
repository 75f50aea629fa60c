package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "jwt:blacklist:"

func blacklistKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return blacklistPrefix + hex.EncodeToString(sum[:])
}

// RedisBlacklist: token dianggap revoked kalau key-nya ada di Redis.
// Service auth (di luar modul ini) yang menulis key dengan TTL = sisa umur token.
func RedisBlacklist(rdb *redis.Client) func(rawToken string) (bool, error) {
	return func(rawToken string) (bool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		n, err := rdb.Exists(ctx, blacklistKey(rawToken)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
}

// RevokeToken menulis token ke blacklist sampai ttl habis.
func RevokeToken(ctx context.Context, rdb *redis.Client, rawToken string, ttl time.Duration) error {
	return rdb.Set(ctx, blacklistKey(rawToken), 1, ttl).Err()
}
