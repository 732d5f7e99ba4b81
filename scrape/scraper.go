// Package scrape implements the concurrent acquisition pipeline: fetching
// product pages in parallel, extracting their fields, and handing records to
// the processing pipeline. One run produces exactly one record per target.
package scrape

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/DhKDc/precios3d/config"
	"github.com/DhKDc/precios3d/extract"
	"github.com/DhKDc/precios3d/models"
	"github.com/DhKDc/precios3d/pipeline"
)

// Scraper wraps the colly collector used for one acquisition run. The
// collector bounds in-flight requests to the configured parallelism and the
// request identity is fixed at construction time.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *Metrics

	requestCount int64
	errorCount   int64

	mu           sync.Mutex
	failedURLs   []string
	errorsByType map[string]int

	pipe  *pipeline.Pipeline
	batch time.Time

	handlersOnce sync.Once
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	collector := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
	}); err != nil {
		return nil, err
	}

	return &Scraper{
		cfg:          cfg,
		collector:    collector,
		errorsByType: make(map[string]int),
		Metrics:      NewMetrics(),
	}, nil
}

// BatchTime returns the timestamp stamped on every record of the current
// run. It is captured once when Run starts, so all records of one batch
// group identically when queried by scrape date.
func (s *Scraper) BatchTime() time.Time {
	return s.batch
}

// Run fetches every target concurrently and streams one record per target
// through p. It blocks until all scheduled fetches have completed or
// definitively failed. Targets that cannot be fetched yield all-fields-error
// records; they never abort the batch.
func (s *Scraper) Run(ctx context.Context, targets []string, p *pipeline.Pipeline) (*models.AcquireResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.pipe = p
	s.batch = time.Now().Truncate(time.Second)
	s.configureHandlers()

	start := time.Now()
	for _, target := range targets {
		if ctx.Err() != nil {
			// Cancelled mid-run: the remaining targets still get their
			// one record so the batch stays one-per-target.
			s.recordFailure(target, ctx.Err())
			continue
		}
		if err := s.collector.Visit(target); err != nil {
			s.recordFailure(target, err)
		}
	}

	s.collector.Wait()

	return &models.AcquireResult{
		StartTime:    start,
		EndTime:      time.Now(),
		TargetCount:  len(targets),
		ErrorCount:   int(atomic.LoadInt64(&s.errorCount)),
		FailedURLs:   s.snapshotFailedURLs(),
		ErrorsByType: s.snapshotErrors(),
		RequestCount: int(atomic.LoadInt64(&s.requestCount)),
	}, nil
}

func (s *Scraper) configureHandlers() {
	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			r.Ctx.Put("start", time.Now())
			current := atomic.AddInt64(&s.requestCount, 1)
			s.Metrics.IncRequest("started")
			if current%50 == 0 {
				slog.Debug("acquisition progress",
					slog.Int64("requests", current),
					slog.String("url", r.URL.String()),
				)
			}
		})

		s.collector.OnResponse(func(r *colly.Response) {
			if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
				s.Metrics.ObserveDuration(time.Since(start))
			}
			s.handleResponse(r)
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			statusCode := 0
			url := ""
			if r != nil {
				statusCode = r.StatusCode
				if r.Request != nil && r.Request.URL != nil {
					url = r.Request.URL.String()
				}
			}
			s.failTarget(url, classifyError(err, statusCode))
		})
	})
}

// handleResponse extracts one record from a fetched page and hands it to the
// pipeline. A page that parses but is missing elements still yields a record;
// the markers travel in the fields.
func (s *Scraper) handleResponse(r *colly.Response) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		s.failTarget(r.Request.URL.String(), err)
		return
	}

	fields := extract.Product(doc)
	record := &models.ScrapeRecord{
		ProductName: fields.ProductName,
		Price:       fields.Price,
		Stock:       fields.Stock,
		Brand:       models.BrandNotFound,
		Category:    models.CategoryNotFound,
		ScrapedAt:   s.batch,
	}

	outcome := "ok"
	if record.IsPartial() {
		outcome = "partial"
		slog.Debug("page missing product elements", slog.String("url", r.Request.URL.String()))
	}
	s.Metrics.IncRecord(outcome)

	s.process(record)
}

// recordFailure covers failures that never reach the collector's handlers,
// such as a malformed target URL or a cancelled run.
func (s *Scraper) recordFailure(target string, err error) {
	atomic.AddInt64(&s.requestCount, 1)
	s.failTarget(target, classifyError(err, 0))
}

func (s *Scraper) failTarget(url string, classified error) {
	atomic.AddInt64(&s.errorCount, 1)
	category := errorTypeLabel(classified)

	s.mu.Lock()
	s.errorsByType[category]++
	s.failedURLs = append(s.failedURLs, url)
	s.mu.Unlock()

	slog.Error("target fetch failed",
		slog.String("url", url),
		slog.String("category", category),
		slog.Any("error", classified),
	)
	s.Metrics.IncError(category)
	s.Metrics.IncRecord("unreachable")

	s.process(models.UnreachableRecord(s.batch))
}

func (s *Scraper) process(record *models.ScrapeRecord) {
	if err := s.pipe.Process(record); err != nil && err != pipeline.ErrPipelineClosed {
		slog.Error("pipeline process error", slog.Any("error", err))
	}
}

func (s *Scraper) snapshotFailedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failedURLs))
	copy(out, s.failedURLs)
	return out
}

func (s *Scraper) snapshotErrors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}
