// Package metrics holds the engine's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "files_uploads_total",
		Help: "Upload attempts by outcome.",
	}, []string{"status"})

	UploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "files_upload_bytes_total",
		Help: "Total bytes accepted through uploads.",
	})

	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "files_downloads_total",
		Help: "Content fetches by outcome.",
	}, []string{"status"})

	DownloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "files_download_bytes_total",
		Help: "Total bytes streamed to clients.",
	})

	ActiveDownloads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "files_active_downloads",
		Help: "In-flight content streams.",
	})

	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "files_download_duration_seconds",
		Help:    "Time from request to fully streamed response.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	ThumbnailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "files_thumbnails_total",
		Help: "Thumbnail generation attempts by outcome.",
	}, []string{"outcome"})

	PurgedFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "files_purged_total",
		Help: "Soft-deleted files physically purged, by outcome.",
	}, []string{"status"})
)
