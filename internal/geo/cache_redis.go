package geo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	redis "github.com/redis/go-redis/v9"

	"cargonav/internal/model"
)

// RedisCache shares pairwise estimates across runs and processes. Keys
// embed a fingerprint of the station set, so a changed set never serves
// stale distances. Errors degrade to cache misses.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to url (redis:// form) and scopes all entries
// to the given station set.
func NewRedisCache(url string, stations []model.Station, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCache{
		rdb:    redis.NewClient(opt),
		prefix: "dist:" + stationFingerprint(stations) + ":",
		ttl:    ttl,
	}, nil
}

func stationFingerprint(stations []model.Station) string {
	lines := make([]string, 0, len(stations))
	for _, s := range stations {
		lines = append(lines, fmt.Sprintf("%s:%.6f:%.6f", s.ID, s.Lat, s.Lng))
	}
	sort.Strings(lines)
	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (c *RedisCache) Get(a, b string) (Estimate, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := c.rdb.Get(ctx, c.prefix+pairKey(a, b)).Bytes()
	if err != nil {
		return Estimate{}, false
	}
	var e Estimate
	if err := json.Unmarshal(raw, &e); err != nil {
		return Estimate{}, false
	}
	return e, true
}

func (c *RedisCache) Put(a, b string, e Estimate) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(e)
	_ = c.rdb.Set(ctx, c.prefix+pairKey(a, b), data, c.ttl).Err()
}
