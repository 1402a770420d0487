// Package ratelimit — счётчики запросов с фиксированным окном.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultHighWater — сколько ключей держим до подметания просроченных окон.
const DefaultHighWater = 10000

// Result — решение по одному запросу.
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// RetryAfterSeconds — значение для заголовка Retry-After (округление вверх).
func (r Result) RetryAfterSeconds() int {
	if r.ResetIn <= 0 {
		return 0
	}
	return int((r.ResetIn + time.Second - 1) / time.Second)
}

// Limiter никогда не возвращает ошибку: любое решение — это Result.
type Limiter interface {
	Check(ctx context.Context, key string, max int, window time.Duration) Result
}

type record struct {
	count   int
	resetAt time.Time
}

// Memory — лимитер в памяти процесса. Не разделяется между инстансами
// и теряется при рестарте.
type Memory struct {
	mu        sync.Mutex
	records   map[string]*record
	highWater int
	now       func() time.Time
}

type Option func(*Memory)

// WithHighWater задаёт порог числа ключей, после которого чистим просроченные.
func WithHighWater(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.highWater = n
		}
	}
}

// WithClock подменяет часы (для тестов).
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		records:   make(map[string]*record),
		highWater: DefaultHighWater,
		now:       time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Memory) Check(_ context.Context, key string, max int, window time.Duration) Result {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.records) > m.highWater {
		m.sweep(now)
	}

	rec, ok := m.records[key]
	if !ok || !now.Before(rec.resetAt) {
		m.records[key] = &record{count: 1, resetAt: now.Add(window)}
		return Result{Allowed: true, Remaining: max - 1, ResetIn: window}
	}

	resetIn := rec.resetAt.Sub(now)
	if rec.count >= max {
		return Result{Allowed: false, Remaining: 0, ResetIn: resetIn}
	}
	rec.count++
	return Result{Allowed: true, Remaining: max - rec.count, ResetIn: resetIn}
}

// Len — число отслеживаемых ключей.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// sweep удаляет записи с истёкшим окном. Вызывается под m.mu.
// Истёкшая запись для проверяемого ключа всё равно была бы пересоздана,
// поэтому результат Check от чистки не зависит.
func (m *Memory) sweep(now time.Time) {
	for k, rec := range m.records {
		if !now.Before(rec.resetAt) {
			delete(m.records, k)
		}
	}
}
