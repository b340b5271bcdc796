package scheduler

import (
	"time"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/metrics"
	"github.com/robfig/cron/v3"
)

const orderMetricsJob = "order_metrics"

// StatusCounter is the slice of the order repository the job reads
type StatusCounter interface {
	CountByStatus() ([]repository.StatusCount, error)
}

// OrderMetricsScheduler periodically refreshes the per-status order gauge
type OrderMetricsScheduler struct {
	cron    *cron.Cron
	spec    string
	counter StatusCounter
	orders  *metrics.OrderMetrics
	jobs    *metrics.JobMetrics
}

func NewOrderMetricsScheduler(spec string, counter StatusCounter, orders *metrics.OrderMetrics, jobs *metrics.JobMetrics) *OrderMetricsScheduler {
	return &OrderMetricsScheduler{
		cron:    cron.New(),
		spec:    spec,
		counter: counter,
		orders:  orders,
		jobs:    jobs,
	}
}

// Start registers the job and runs it once immediately
func (s *OrderMetricsScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { _ = s.Refresh() }); err != nil {
		logger.Error("Failed to add cron job for order metrics", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	_ = s.Refresh()
	s.cron.Start()
	logger.Info("Order metrics scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// Refresh reads the current counts and updates the gauge
func (s *OrderMetricsScheduler) Refresh() error {
	started := time.Now()
	counts, err := s.counter.CountByStatus()
	s.jobs.Record(orderMetricsJob, time.Since(started), err)
	if err != nil {
		logger.Error("Failed to refresh order metrics", err)
		return err
	}

	byStatus := make(map[string]int64, len(counts))
	for _, c := range counts {
		byStatus[string(c.Status)] = c.Count
	}
	s.orders.SetStatusCounts(byStatus, string(model.OrderStatusPending), string(model.OrderStatusDelivered))

	logger.Debug("Order metrics refreshed", map[string]interface{}{
		"counts": byStatus,
	})
	return nil
}

// Stop waits for a running job to finish
func (s *OrderMetricsScheduler) Stop() {
	logger.Info("Stopping order metrics scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Order metrics scheduler stopped")
}
