// internal/service/batch_writer.go
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"energy_finance/internal/domain"
	"energy_finance/internal/repository"
	"energy_finance/pkg/logger"
)

// ScheduleWriter buffers schedule points and writes them in batches
type ScheduleWriter struct {
	repo          repository.ScheduleRepository
	batchSize     int
	flushInterval time.Duration

	mu     sync.Mutex
	buffer []domain.SchedulePoint
	stop   chan struct{}
	wg     sync.WaitGroup

	// Stats
	batchesWritten uint64
	pointsWritten  uint64
	batchesFailed  uint64
	lastFlushTime  atomic.Value // time.Time
	lastFlushCount int64
}

// NewScheduleWriter creates a writer that flushes every batchSize points or flushInterval
func NewScheduleWriter(repo repository.ScheduleRepository, batchSize int, flushInterval time.Duration) *ScheduleWriter {
	sw := &ScheduleWriter{
		repo:          repo,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		buffer:        make([]domain.SchedulePoint, 0, batchSize),
		stop:          make(chan struct{}),
	}
	sw.lastFlushTime.Store(time.Now())

	sw.wg.Add(1)
	go sw.autoFlush()

	logger.Infof("ScheduleWriter started: %d size, %v interval, store %s", batchSize, flushInterval, repo.Type())
	return sw
}

// AddSchedule queues every year of a stored result
func (sw *ScheduleWriter) AddSchedule(result *domain.AnalysisResult) {
	points := make([]domain.SchedulePoint, len(result.Schedule))
	for i, rec := range result.Schedule {
		points[i] = domain.SchedulePoint{
			ProjectID:    result.ProjectID,
			ResultID:     result.ID,
			CalculatedAt: result.CalculatedAt,
			Record:       rec,
		}
	}
	sw.Add(points...)
}

// Add adds points to the buffer and flushes if needed
func (sw *ScheduleWriter) Add(points ...domain.SchedulePoint) {
	sw.mu.Lock()
	sw.buffer = append(sw.buffer, points...)
	shouldFlush := len(sw.buffer) >= sw.batchSize
	sw.mu.Unlock()

	if shouldFlush {
		sw.Flush()
	}
}

// Flush writes all buffered points to the schedule store
func (sw *ScheduleWriter) Flush() {
	sw.mu.Lock()
	if len(sw.buffer) == 0 {
		sw.mu.Unlock()
		return
	}

	toWrite := make([]domain.SchedulePoint, len(sw.buffer))
	copy(toWrite, sw.buffer)
	sw.buffer = sw.buffer[:0]
	sw.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startTime := time.Now()
	count := len(toWrite)

	if err := sw.repo.Insert(ctx, toWrite); err != nil {
		atomic.AddUint64(&sw.batchesFailed, 1)
		logger.Errorf("Schedule batch write FAILED: %d points in %v: %v", count, time.Since(startTime), err)
		return
	}

	atomic.AddUint64(&sw.batchesWritten, 1)
	atomic.AddUint64(&sw.pointsWritten, uint64(count))
	atomic.StoreInt64(&sw.lastFlushCount, int64(count))
	sw.lastFlushTime.Store(time.Now())

	logger.Debugf("Flushed %d schedule points in %v", count, time.Since(startTime).Round(time.Millisecond))
}

// Size returns current buffer size
func (sw *ScheduleWriter) Size() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return len(sw.buffer)
}

func (sw *ScheduleWriter) autoFlush() {
	defer sw.wg.Done()
	ticker := time.NewTicker(sw.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.Flush()
		case <-sw.stop:
			sw.Flush()
			return
		}
	}
}

// Stats returns writer statistics
func (sw *ScheduleWriter) Stats() map[string]interface{} {
	return map[string]interface{}{
		"batches_written":  atomic.LoadUint64(&sw.batchesWritten),
		"points_written":   atomic.LoadUint64(&sw.pointsWritten),
		"batches_failed":   atomic.LoadUint64(&sw.batchesFailed),
		"buffer_size":      sw.Size(),
		"last_flush_count": atomic.LoadInt64(&sw.lastFlushCount),
		"last_flush_time":  sw.lastFlushTime.Load().(time.Time).Format("15:04:05"),
	}
}

// Close stops the writer after a final flush
func (sw *ScheduleWriter) Close() {
	close(sw.stop)
	sw.wg.Wait()
	logger.Infof("ScheduleWriter closed. Total: %d batches, %d points",
		atomic.LoadUint64(&sw.batchesWritten),
		atomic.LoadUint64(&sw.pointsWritten))
}
