package services

import (
	"context"

	"chat-files-api/internal/repository"
)

// InstanceStats is the derived, read-only instance storage report. It is
// computed on demand from the file and quota tables, never maintained as a
// second counter.
type InstanceStats struct {
	TotalFiles       int64                     `json:"totalFiles"`
	TotalBytes       int64                     `json:"totalBytes"`
	ByContext        []repository.ContextUsage `json:"byContext"`
	QuotaPercentiles []QuotaBucket             `json:"quotaDistribution"`
}

// QuotaBucket counts users whose percent-of-quota usage falls in a band.
type QuotaBucket struct {
	Label string `json:"label"`
	Users int64  `json:"users"`
}

var bucketBounds = []struct {
	label string
	upper float64
}{
	{"0-25%", 25},
	{"25-50%", 50},
	{"50-75%", 75},
	{"75-90%", 90},
	{"90-100%", 100},
	{">100%", -1},
}

// StatsService computes storage usage reports.
type StatsService struct {
	files  repository.FileRepository
	quotas repository.QuotaRepository
}

// NewStatsService creates the reporting service.
func NewStatsService(files repository.FileRepository, quotas repository.QuotaRepository) *StatsService {
	return &StatsService{files: files, quotas: quotas}
}

// Instance builds the instance-wide report.
func (s *StatsService) Instance(ctx context.Context) (*InstanceStats, error) {
	count, bytes, err := s.files.Totals(ctx)
	if err != nil {
		return nil, err
	}
	byContext, err := s.files.ContextBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	quotas, err := s.quotas.List(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make([]QuotaBucket, len(bucketBounds))
	for i, b := range bucketBounds {
		buckets[i].Label = b.label
	}
	for _, q := range quotas {
		if q.QuotaBytes <= 0 {
			continue
		}
		pct := float64(q.UsedBytes) / float64(q.QuotaBytes) * 100
		placed := false
		for i, b := range bucketBounds {
			if b.upper > 0 && pct <= b.upper {
				buckets[i].Users++
				placed = true
				break
			}
		}
		if !placed {
			buckets[len(buckets)-1].Users++
		}
	}

	return &InstanceStats{
		TotalFiles:       count,
		TotalBytes:       bytes,
		ByContext:        byContext,
		QuotaPercentiles: buckets,
	}, nil
}
