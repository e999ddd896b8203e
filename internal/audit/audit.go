package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gitlab.ozon.dev/qwestard/carexpert/internal/store"
)

// Record - одна запись журнала изменений стора
type Record struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entityId"`
	OldStatus string    `json:"oldStatus,omitempty"`
	NewStatus string    `json:"newStatus,omitempty"`
	Message   string    `json:"message,omitempty"`
}

func FromChange(ch store.Change) Record {
	r := Record{
		Seq:       ch.Seq,
		Timestamp: ch.At,
		Action:    ch.Action,
		Entity:    ch.Entity,
		EntityID:  ch.EntityID,
		OldStatus: ch.OldStatus,
		NewStatus: ch.NewStatus,
	}
	if ch.StatusChanged() && ch.OldStatus != "" {
		r.Message = ch.Entity + " " + ch.EntityID + ": " + ch.OldStatus + " -> " + ch.NewStatus
	} else {
		r.Message = ch.Action + " " + ch.EntityID
	}
	return r
}

type PoolConfig struct {
	BatchSize   int
	Timeout     time.Duration
	ChannelSize int
}

type Processor interface {
	Process(ctx context.Context, batch []Record) error
}

// WorkerPool копит записи пачками и отдаёт их всем процессорам:
// по размеру пачки, по таймеру и при остановке.
type WorkerPool struct {
	inputCh    chan Record
	processors []Processor
	batchSize  int
	timeout    time.Duration
	log        *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	dropped uint64
}

func NewWorkerPool(cfg PoolConfig, log *slog.Logger, processors ...Processor) *WorkerPool {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	return &WorkerPool{
		inputCh:    make(chan Record, cfg.ChannelSize),
		processors: processors,
		batchSize:  cfg.BatchSize,
		timeout:    cfg.Timeout,
		log:        log,
	}
}

func (p *WorkerPool) Start(ctx context.Context, numWorkers int) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.worker(ctx)
		}()
	}
}

func (p *WorkerPool) worker(ctx context.Context) {
	var batch []Record
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			batch = p.drain(batch)
			if len(batch) > 0 {
				p.processBatch(batch)
			}
			return
		case rec := <-p.inputCh:
			batch = append(batch, rec)
			if len(batch) >= p.batchSize {
				p.processBatch(batch)
				batch = nil
				timer.Reset(p.timeout)
			}
		case <-timer.C:
			if len(batch) > 0 {
				p.processBatch(batch)
				batch = nil
			}
			timer.Reset(p.timeout)
		}
	}
}

// drain забирает то, что осталось в канале на момент остановки
func (p *WorkerPool) drain(batch []Record) []Record {
	for {
		select {
		case rec := <-p.inputCh:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

func (p *WorkerPool) processBatch(batch []Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, proc := range p.processors {
		if err := proc.Process(ctx, batch); err != nil {
			p.log.Error("audit batch failed", "size", len(batch), "err", err)
		}
	}
}

// Log не блокирует: при полном канале запись отбрасывается
func (p *WorkerPool) Log(rec Record) {
	select {
	case p.inputCh <- rec:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		p.log.Warn("audit channel full, dropping record", "seq", rec.Seq, "action", rec.Action)
	}
}

func (p *WorkerPool) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Attach пишет в журнал каждое изменение стора
func (p *WorkerPool) Attach(st *store.OrderStore) func() {
	return st.Subscribe(func(_ store.State, ch store.Change) {
		p.Log(FromChange(ch))
	})
}

// Shutdown останавливает воркеры и ждёт, пока они сбросят накопленное
func (p *WorkerPool) Shutdown() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}
