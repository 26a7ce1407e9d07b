// Package redis wraps redigo with metrics and key-prefix tagging.
package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/metrics"
	"github.com/vendue/goapi/domain/keys"
)

const (
	// Forever means the key has no expiration
	Forever = time.Duration(-1)

	// retTTLNoKey is the return value of TTL when the key does not exist
	retTTLNoKey = -2

	// retTTLNoExpire is the return value of TTL when the key exists but
	// has no associated expire
	retTTLNoExpire = -1
)

var (
	// ErrNotFound is returned when the key does not exist
	ErrNotFound = errors.New("redis key not found")

	// ErrNoTTL is returned by TTL when the key has no expiration
	ErrNoTTL = errors.New("redis key has no ttl")
)

// Service is the subset of redis commands the repo layer relies on.
type Service interface {
	Get(c ctx.Ctx, key string) ([]byte, error)
	Set(c ctx.Ctx, key string, val []byte, expire time.Duration) error
	Del(c ctx.Ctx, ks ...string) (int, error)
	Exists(c ctx.Ctx, key string) (bool, error)
	Incrby(c ctx.Ctx, key string, val int) (int64, error)
	TTL(c ctx.Ctx, key string) (int, error)
}

type redImpl struct {
	name string
	met  metrics.Service
	pool *redis.Pool
}

// New creates a redis service backed by one pool
func New(name string, met metrics.Service, pool *redis.Pool) Service {
	return &redImpl{
		name: name,
		met:  met,
		pool: pool,
	}
}

func (r *redImpl) connDo(c ctx.Ctx, command string, args ...interface{}) (interface{}, error) {
	conn := r.pool.Get()
	defer conn.Close()
	if err := conn.Err(); err != nil {
		r.met.BumpSum("getconn.err", 1, "cluster", r.name)
		return nil, err
	}
	return conn.Do(command, args...)
}

func (r *redImpl) Get(c ctx.Ctx, key string) ([]byte, error) {
	defer r.met.BumpTime("time", "func", "get", "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	val, err := redis.Bytes(r.connDo(c, "GET", key))
	if err == redis.ErrNil {
		return nil, ErrNotFound
	}
	if err != nil {
		c.WithField("err", err).Error("Get redis failed")
		return nil, err
	}
	return val, nil
}

func (r *redImpl) Set(c ctx.Ctx, key string, val []byte, expire time.Duration) error {
	tags := []string{"func", "set", "cluster", r.name, "prefix", keys.GetPrefix(key)}
	defer r.met.BumpTime("time", tags...).End()
	r.met.BumpHistogram("bytes", float64(len(val)), tags...)

	var err error
	if expire == Forever {
		_, err = r.connDo(c, "SET", key, val)
	} else {
		_, err = r.connDo(c, "SET", key, val, "PX", int(expire/time.Millisecond))
	}
	if err != nil {
		c.WithField("err", err).Error("Set redis failed")
		return err
	}
	return nil
}

func (r *redImpl) Del(c ctx.Ctx, ks ...string) (int, error) {
	defer r.met.BumpTime("time", "func", "del", "cluster", r.name).End()

	args := make([]interface{}, len(ks))
	for i, k := range ks {
		args[i] = k
	}
	n, err := redis.Int(r.connDo(c, "DEL", args...))
	if err != nil {
		c.WithField("err", err).Error("Del redis failed")
		return 0, err
	}
	return n, nil
}

func (r *redImpl) Exists(c ctx.Ctx, key string) (bool, error) {
	defer r.met.BumpTime("time", "func", "exists", "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	n, err := redis.Int(r.connDo(c, "EXISTS", key))
	if err != nil {
		c.WithField("err", err).Error("Exists redis failed")
		return false, err
	}
	return n > 0, nil
}

func (r *redImpl) Incrby(c ctx.Ctx, key string, val int) (int64, error) {
	defer r.met.BumpTime("time", "func", "incrby", "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	n, err := redis.Int64(r.connDo(c, "INCRBY", key, val))
	if err != nil {
		c.WithField("err", err).Error("Incrby redis failed")
		return 0, err
	}
	return n, nil
}

func (r *redImpl) TTL(c ctx.Ctx, key string) (int, error) {
	defer r.met.BumpTime("time", "func", "ttl", "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	res, err := redis.Int(r.connDo(c, "TTL", key))
	if err != nil {
		c.WithField("err", err).Error("TTL redis failed")
		return 0, err
	}
	if res == retTTLNoKey {
		return res, ErrNotFound
	} else if res == retTTLNoExpire {
		return res, ErrNoTTL
	}
	return res, nil
}
