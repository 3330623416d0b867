package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"chatfic/internal/storage"
)

// ErrSyncerClosed возвращается Flush после Close.
var ErrSyncerClosed = errors.New("persistence syncer is closed")

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 10 * time.Second
)

type writeOp struct {
	key    string
	value  string
	remove bool
	done   chan struct{} // барьер Flush
}

// Syncer пишет изменения в KV в фоне одной горутиной, строго в порядке постановки.
// Ошибки записи логируются и не возвращаются вызывающему.
type Syncer struct {
	kv           storage.KV
	logger       *zap.Logger
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan writeOp
	wg     sync.WaitGroup
}

// NewSyncer запускает рабочую горутину.
func NewSyncer(kv storage.KV, logger *zap.Logger) *Syncer {
	s := &Syncer{
		kv:           kv,
		logger:       logger.Named("Syncer"),
		writeTimeout: defaultWriteTimeout,
		queue:        make(chan writeOp, defaultQueueSize),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Put ставит запись значения в очередь.
func (s *Syncer) Put(name, value string) {
	s.enqueue(writeOp{key: storage.Key(name), value: value})
}

// PutJSON сериализует v синхронно и ставит запись в очередь.
func (s *Syncer) PutJSON(name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode value for persistence", zap.String("key", name), zap.Error(err))
		return
	}
	s.Put(name, string(data))
}

// Remove ставит удаление ключа в очередь.
func (s *Syncer) Remove(name string) {
	s.enqueue(writeOp{key: storage.Key(name), remove: true})
}

// Flush ждет, пока будут выполнены все записи, поставленные до вызова.
func (s *Syncer) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !s.enqueue(writeOp{done: done}) {
		return ErrSyncerClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close дописывает очередь и останавливает горутину. Повторный вызов безопасен.
func (s *Syncer) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("persistence syncer did not drain: %w", ctx.Err())
	}
}

func (s *Syncer) enqueue(op writeOp) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("Write dropped: syncer is closed", zap.String("key", op.key))
		return false
	}
	s.queue <- op
	return true
}

func (s *Syncer) run() {
	defer s.wg.Done()
	for op := range s.queue {
		if op.done != nil {
			close(op.done)
			continue
		}
		s.apply(op)
	}
	s.logger.Debug("Syncer stopped")
}

func (s *Syncer) apply(op writeOp) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	var err error
	if op.remove {
		err = s.kv.Delete(ctx, op.key)
	} else {
		err = s.kv.Set(ctx, op.key, op.value)
	}
	if err != nil {
		s.logger.Error("Failed to persist key", zap.String("key", op.key), zap.Bool("remove", op.remove), zap.Error(err))
		return
	}
	s.logger.Debug("Key persisted", zap.String("key", op.key), zap.Int("bytes", len(op.value)))
}
