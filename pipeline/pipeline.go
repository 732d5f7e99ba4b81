// Package pipeline runs the per-record processing stage of an acquisition
// batch: classification and result collection behind a worker pool.
package pipeline

import (
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/DhKDc/precios3d/classify"
	"github.com/DhKDc/precios3d/models"
)

// ErrPipelineClosed is returned when Process is called after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

// labelCacheSize bounds the classification memo. Catalogs are far smaller
// than this; the bound only guards against pathological inputs.
const labelCacheSize = 1024

// Pipeline fans records out to workers that classify them against the rule
// lists and collect them for the batch commit. Records are collected, not
// streamed: the caller appends the whole run to the history store at once.
type Pipeline struct {
	rules      classify.Rules
	recordCh   chan *models.ScrapeRecord
	labelCache *lru.Cache[string, classify.Labels]

	wg sync.WaitGroup

	outMu sync.Mutex
	out   []*models.ScrapeRecord

	metrics metrics

	mu     sync.Mutex // guards closed
	closed bool

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline classifying against rules.
func NewPipeline(rules classify.Rules) *Pipeline {
	cache, err := lru.New[string, classify.Labels](labelCacheSize)
	if err != nil {
		panic(err) // only possible with a non-positive size constant
	}
	return &Pipeline{
		rules:      rules,
		recordCh:   make(chan *models.ScrapeRecord, 512),
		labelCache: cache,
		metrics:    newMetrics(),
		shutdown:   make(chan struct{}),
	}
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues records for classification and collection.
func (p *Pipeline) Process(records ...*models.ScrapeRecord) error {
	if len(records) == 0 {
		return nil
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPipelineClosed
	}

	for _, record := range records {
		if record == nil {
			continue
		}
		if err := p.enqueue(record); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to drain and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})

	p.wg.Wait()
	return nil
}

// Records returns the collected batch. Call after Close; the order reflects
// task completion, not target order.
func (p *Pipeline) Records() []*models.ScrapeRecord {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	out := make([]*models.ScrapeRecord, len(p.out))
	copy(out, p.out)
	return out
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	for record := range p.recordCh {
		p.prepare(record)

		p.outMu.Lock()
		p.out = append(p.out, record)
		p.outMu.Unlock()
	}
}

// prepare classifies reachable records in place. Unreachable and partial
// records already carry their markers and are passed through untouched.
func (p *Pipeline) prepare(record *models.ScrapeRecord) {
	switch {
	case record.IsUnreachable():
		p.metrics.addOutcome("unreachable")
	case record.IsPartial():
		p.metrics.addOutcome("partial")
	default:
		labels := p.labels(record.ProductName)
		record.Brand = labels.Brand
		record.Category = labels.Category
		p.metrics.addOutcome("classified")
	}
	p.metrics.incrementProcessed()
}

func (p *Pipeline) labels(name string) classify.Labels {
	if cached, ok := p.labelCache.Get(name); ok {
		p.metrics.addCacheHit()
		return cached
	}
	labels := p.rules.Classify(name)
	p.labelCache.Add(name, labels)
	return labels
}

func (p *Pipeline) enqueue(record *models.ScrapeRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.recordCh <- record:
		return nil
	}
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu        sync.Mutex
	processed int64
	cacheHits int64
	outcomes  map[string]int
}

func newMetrics() metrics {
	return metrics{
		outcomes: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addCacheHit() {
	m.mu.Lock()
	m.cacheHits++
	m.mu.Unlock()
}

func (m *metrics) addOutcome(kind string) {
	m.mu.Lock()
	m.outcomes[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	outcomes := make(map[string]int, len(m.outcomes))
	for k, v := range m.outcomes {
		outcomes[k] = v
	}

	return map[string]interface{}{
		"processed_records": m.processed,
		"label_cache_hits":  m.cacheHits,
		"outcomes":          outcomes,
	}
}
