// Package jobs runs background work owned by the server binary.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/secdesk/backend/internal/analytics"
	"github.com/secdesk/backend/internal/logger"
	"github.com/sirupsen/logrus"
)

const digestTopN = 3

// SummarySource yields the current incident summary.
type SummarySource interface {
	Summary(ctx context.Context) (analytics.Summary, error)
}

// DigestJob periodically logs an incident summary digest.
type DigestJob struct {
	schedule string
	source   SummarySource
	timeout  time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewDigestJob validates schedule (standard five-field cron syntax) up front.
func NewDigestJob(schedule string, source SummarySource) (*DigestJob, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}
	return &DigestJob{schedule: schedule, source: source, timeout: 30 * time.Second}, nil
}

func (j *DigestJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		_ = j.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule digest: %w", err)
	}
	c.Start()

	j.cron = c
	j.running = true
	logger.Info("Summary digest scheduled", map[string]interface{}{"schedule": j.schedule})
	return nil
}

// Stop waits for an in-flight run to finish or ctx to expire.
func (j *DigestJob) Stop(ctx context.Context) error {
	j.mu.Lock()
	c := j.cron
	wasRunning := j.running
	j.cron = nil
	j.running = false
	j.mu.Unlock()
	if !wasRunning || c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce computes the summary and logs it.
func (j *DigestJob) RunOnce(ctx context.Context) error {
	summary, err := j.source.Summary(ctx)
	if err != nil {
		logger.WithError(err, "digest_job").Error("Failed to compute summary digest")
		return err
	}

	logger.GetLogger().WithFields(digestFields(summary)).Info("Incident summary digest")
	return nil
}

func digestFields(s analytics.Summary) logrus.Fields {
	fields := logrus.Fields{
		"component":        "digest_job",
		"total":            s.Total,
		"critical":         s.Critical,
		"critical_percent": s.Percent(s.Critical),
		"high":             s.High,
		"top_categories":   s.TopCategories(digestTopN),
		"top_locations":    s.TopLocations(digestTopN),
	}
	for status, count := range s.ByStatus {
		fields["status_"+string(status)] = count
	}
	return fields
}
