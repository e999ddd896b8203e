// Package storage сохраняет коллекции стора одним снапшотом с версией.
// Снапшот с чужой версией целиком отбрасывается, частичных миграций нет.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gitlab.ozon.dev/qwestard/carexpert/internal/store"
)

const (
	Key     = "car-expert-demo-state"
	Version = "v5"
)

var ErrNotFound = errors.New("snapshot not found")

// Backend - хранилище байтов по ключу
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte) error
	Close() error
}

type envelope struct {
	Version string            `json:"version"`
	State   store.Collections `json:"state"`
}

func Encode(c store.Collections) ([]byte, error) {
	data, err := json.Marshal(envelope{Version: Version, State: c})
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования снапшота: %w", err)
	}
	return data, nil
}

var (
	errVersionMismatch = errors.New("версия снапшота не совпадает")
	errInvalid         = errors.New("снапшот нарушает инварианты")
)

// Decode принимает только снапшот текущей версии
func Decode(data []byte) (store.Collections, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return store.Collections{}, fmt.Errorf("ошибка декодирования снапшота: %w", err)
	}
	if env.Version != Version {
		return store.Collections{}, fmt.Errorf("%w: %q вместо %q", errVersionMismatch, env.Version, Version)
	}
	if err := store.Validate(env.State); err != nil {
		return store.Collections{}, fmt.Errorf("%w: %w", errInvalid, err)
	}
	return env.State, nil
}

type SeedReason string

const (
	ReasonMissing         SeedReason = "missing"
	ReasonCorrupt         SeedReason = "corrupt"
	ReasonVersionMismatch SeedReason = "version_mismatch"
	ReasonInvalid         SeedReason = "invalid"
	ReasonReadError       SeedReason = "read_error"
)

type LoadResult struct {
	FromSnapshot bool
	Reason       SeedReason
	Err          error
}

// Load читает снапшот, а при любой проблеме возвращает seed. Ошибкой не
// завершается никогда: причина отката лежит в LoadResult.
func Load(ctx context.Context, b Backend, seed func() store.Collections) (store.Collections, LoadResult) {
	data, err := b.Get(ctx, Key)
	switch {
	case errors.Is(err, ErrNotFound):
		return seed(), LoadResult{Reason: ReasonMissing}
	case err != nil:
		return seed(), LoadResult{Reason: ReasonReadError, Err: err}
	}

	c, err := Decode(data)
	switch {
	case errors.Is(err, errVersionMismatch):
		return seed(), LoadResult{Reason: ReasonVersionMismatch, Err: err}
	case errors.Is(err, errInvalid):
		return seed(), LoadResult{Reason: ReasonInvalid, Err: err}
	case err != nil:
		return seed(), LoadResult{Reason: ReasonCorrupt, Err: err}
	}
	return c, LoadResult{FromSnapshot: true}
}
