package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"billingDesk/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const searchKeyPrefix = "search:"

type SearchCacheRepository interface {
	GetResults(ctx context.Context, query string) (res []models.SearchResult, found bool, err error)
	SetResults(ctx context.Context, query string, res []models.SearchResult) (err error)
	Flush(ctx context.Context) (err error)
}

type SearchCacheRepo struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewSearchCacheRepository(ctx context.Context, redis_conn *redis.Client, ttl time.Duration, logger *zap.Logger) (SearchCacheRepository, error) {
	if redis_conn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	err := redis_conn.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}
	return &SearchCacheRepo{
		rdb:    redis_conn,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// searchKey normalises the query the same way the product lookup does.
func searchKey(query string) string {
	return searchKeyPrefix + strings.ToLower(query)
}

func (c *SearchCacheRepo) GetResults(ctx context.Context, query string) (res []models.SearchResult, found bool, err error) {
	val, e := c.rdb.Get(ctx, searchKey(query)).Result()
	if e != nil {
		if e == redis.Nil {
			return
		}
		c.logger.Error("GetResults: redis get", zap.Error(e))
		err = models.ErrServerError
		return
	}
	err = json.Unmarshal([]byte(val), &res)
	if err != nil {
		c.logger.Error("GetResults: unmarshal", zap.Error(err))
		err = models.ErrServerError
		return
	}
	found = true
	return
}

func (c *SearchCacheRepo) SetResults(ctx context.Context, query string, res []models.SearchResult) (err error) {
	if res == nil {
		res = []models.SearchResult{}
	}
	jsonData, err := json.Marshal(res)
	if err != nil {
		c.logger.Error("SetResults: marshal", zap.Error(err))
		err = models.ErrServerError
		return
	}
	err = c.rdb.Set(ctx, searchKey(query), jsonData, c.ttl).Err()
	if err != nil {
		c.logger.Error("SetResults: redis set", zap.Error(err))
		err = models.ErrServerError
	}
	return
}

// Flush drops every cached search, used after the catalogue changes.
func (c *SearchCacheRepo) Flush(ctx context.Context) (err error) {
	iter := c.rdb.Scan(ctx, 0, searchKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if e := iter.Err(); e != nil {
		c.logger.Error("Flush: redis scan", zap.Error(e))
		err = models.ErrServerError
		return
	}
	if len(keys) == 0 {
		return
	}
	if e := c.rdb.Del(ctx, keys...).Err(); e != nil {
		c.logger.Error("Flush: redis del", zap.Error(e))
		err = models.ErrServerError
	}
	return
}
