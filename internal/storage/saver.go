package storage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.ozon.dev/qwestard/carexpert/internal/store"
)

// Saver пишет снапшот после каждой применённой мутации (last-write-wins).
// Ошибки записи логируются и считаются, но в стор не возвращаются.
type Saver struct {
	backend Backend
	log     *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	lastSeq uint64

	saved  atomic.Uint64
	failed atomic.Uint64
}

func NewSaver(b Backend, log *slog.Logger) *Saver {
	return &Saver{backend: b, log: log, timeout: 5 * time.Second}
}

// Attach подписывает Saver на стор, возвращает функцию отписки
func (s *Saver) Attach(st *store.OrderStore) func() {
	return st.Subscribe(s.onChange)
}

func (s *Saver) onChange(state store.State, ch store.Change) {
	// сессионные поля в снапшот не входят
	if ch.Entity == store.EntitySession {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.Save(ctx, ch.Seq, state.Collections); err != nil {
		s.log.Error("snapshot save failed", "seq", ch.Seq, "action", ch.Action, "err", err)
	}
}

// Save записывает коллекции. Снимок старше уже записанного пропускается:
// подписчики вызываются вне блокировки стора и могут прийти не по порядку.
func (s *Saver) Save(ctx context.Context, seq uint64, c store.Collections) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != 0 && seq <= s.lastSeq {
		return nil
	}

	data, err := Encode(c)
	if err != nil {
		s.failed.Add(1)
		return err
	}
	if err := s.backend.Put(ctx, Key, data); err != nil {
		s.failed.Add(1)
		return err
	}
	if seq > s.lastSeq {
		s.lastSeq = seq
	}
	s.saved.Add(1)
	return nil
}

func (s *Saver) Saved() uint64  { return s.saved.Load() }
func (s *Saver) Failed() uint64 { return s.failed.Load() }
