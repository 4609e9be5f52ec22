// Copyright 2025 CamVault, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type uploader struct {
	UploadedFiles prometheus.Counter
	UploadedBytes prometheus.Counter
	UploadErrors  *prometheus.CounterVec
	QueueFiles    prometheus.Gauge
	QueueBytes    prometheus.Gauge
	LastUploadAt  prometheus.Gauge
}

type purge struct {
	DeletedFiles prometheus.Counter
	DeleteErrors prometheus.Counter
	LastSweepAt  prometheus.Gauge
}

type cameraCache struct {
	Hits   prometheus.Counter
	Misses prometheus.Counter
	Puts   prometheus.Counter
}

var (
	Uploader = uploader{
		UploadedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nvrbackup",
			Subsystem: "uploader",
			Name:      "uploaded_files_total",
			Help:      "Number of videos uploaded to the remote.",
		}),
		UploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nvrbackup",
			Subsystem: "uploader",
			Name:      "uploaded_bytes_total",
			Help:      "Total bytes uploaded to the remote.",
		}),
		UploadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nvrbackup",
			Subsystem: "uploader",
			Name:      "errors_total",
			Help:      "Number of events abandoned, by pipeline stage.",
		}, []string{"stage"}),
		QueueFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nvrbackup",
			Subsystem: "uploader",
			Name:      "queue_files",
			Help:      "Number of videos waiting in the upload queue.",
		}),
		QueueBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nvrbackup",
			Subsystem: "uploader",
			Name:      "queue_bytes",
			Help:      "Total size of videos waiting in the upload queue.",
		}),
		LastUploadAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nvrbackup",
			Subsystem: "uploader",
			Name:      "last_upload_at_seconds",
			Help:      "Time the last video was successfully uploaded and recorded.",
		}),
	}

	Purge = purge{
		DeletedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nvrbackup",
			Subsystem: "purge",
			Name:      "deleted_files_total",
			Help:      "Number of expired backups removed from the remote and the ledger.",
		}),
		DeleteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nvrbackup",
			Subsystem: "purge",
			Name:      "delete_errors_total",
			Help:      "Number of failed remote deletions during purge sweeps.",
		}),
		LastSweepAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nvrbackup",
			Subsystem: "purge",
			Name:      "last_sweep_at_seconds",
			Help:      "Time the last purge sweep completed.",
		}),
	}

	CameraCache = cameraCache{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nvrbackup",
			Subsystem: "camera_cache",
			Name:      "hits_total",
			Help:      "Number of camera name lookups served from the cache.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nvrbackup",
			Subsystem: "camera_cache",
			Name:      "misses_total",
			Help:      "Number of camera name lookups that went upstream.",
		}),
		Puts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nvrbackup",
			Subsystem: "camera_cache",
			Name:      "puts_total",
			Help:      "Number of camera names written to the cache.",
		}),
	}
)

func SetupPrometheus(metricsListenAddress, metricsPath *string) {
	if metricsListenAddress == nil || *metricsListenAddress == "" {
		return
	}
	go func() {
		http.Handle(*metricsPath, promhttp.Handler())
		err := http.ListenAndServe(*metricsListenAddress, nil)
		zap.S().Fatalw("metrics_listen_error", "err", err)
	}()
}

func init() {
	prometheus.MustRegister(Uploader.UploadedFiles)
	prometheus.MustRegister(Uploader.UploadedBytes)
	prometheus.MustRegister(Uploader.UploadErrors)
	prometheus.MustRegister(Uploader.QueueFiles)
	prometheus.MustRegister(Uploader.QueueBytes)
	prometheus.MustRegister(Uploader.LastUploadAt)

	prometheus.MustRegister(Purge.DeletedFiles)
	prometheus.MustRegister(Purge.DeleteErrors)
	prometheus.MustRegister(Purge.LastSweepAt)

	prometheus.MustRegister(CameraCache.Hits)
	prometheus.MustRegister(CameraCache.Misses)
	prometheus.MustRegister(CameraCache.Puts)

	// reify the stages so the series exist before the first failure
	Uploader.UploadErrors.WithLabelValues("resolve")
	Uploader.UploadErrors.WithLabelValues("transfer")
	Uploader.UploadErrors.WithLabelValues("record")
}
