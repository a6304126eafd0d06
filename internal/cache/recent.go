package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/models"
)

const (
	recentPrefix     = "opportunities:recent"
	generationKey    = recentPrefix + ":gen"
	operationTimeout = 500 * time.Millisecond
)

// RecentOpportunities - кэш для GET /opportunities/recent.
// Инвалидация через счетчик поколений: ключи старого поколения истекают по TTL.
// Ошибки Redis не ломают запрос: промах кэша и warning в лог.
// nil *RecentOpportunities - кэш выключен.
type RecentOpportunities struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecentOpportunities(client *redis.Client, ttl time.Duration) *RecentOpportunities {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RecentOpportunities{client: client, ttl: ttl}
}

// Connect - клиент по REDIS_URL с проверкой соединения
func Connect(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "parse redis url")
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "ping redis")
	}
	return client, nil
}

// Slot - ключ поколения, прочитанный в Get. Set пишет только в него:
// если между Get и Set прошла инвалидация, запись уходит в старое поколение
// и никем не читается.
type Slot struct {
	key string
}

func (c *RecentOpportunities) Get(ctx context.Context, limit int) ([]models.Opportunity, Slot, bool) {
	if c == nil {
		return nil, Slot{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	key, err := c.key(ctx, limit)
	if err != nil {
		c.warn(ctx, "get generation", err)
		return nil, Slot{}, false
	}
	slot := Slot{key: key}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(ctx, "get", err)
		}
		return nil, slot, false
	}

	var opps []models.Opportunity
	if err := json.Unmarshal(raw, &opps); err != nil {
		c.warn(ctx, "decode", err)
		return nil, slot, false
	}
	return opps, slot, true
}

// Set - пустой Slot (кэш выключен или Redis недоступен) игнорируется
func (c *RecentOpportunities) Set(ctx context.Context, slot Slot, opps []models.Opportunity) {
	if c == nil || slot.key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	raw, err := json.Marshal(opps)
	if err != nil {
		c.warn(ctx, "encode", err)
		return
	}
	if err := c.client.Set(ctx, slot.key, raw, c.ttl).Err(); err != nil {
		c.warn(ctx, "set", err)
	}
}

// Invalidate - после create/update/delete возможности
func (c *RecentOpportunities) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), operationTimeout)
	defer cancel()

	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.warn(ctx, "invalidate", err)
	}
}

func (c *RecentOpportunities) key(ctx context.Context, limit int) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%d", recentPrefix, gen, limit), nil
}

func (c *RecentOpportunities) warn(ctx context.Context, op string, err error) {
	logger.CtxWarn(ctx, "recent opportunities cache", "op", op, "error", err.Error())
}
