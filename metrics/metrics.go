// Package metrics exports the frame loop state to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	framesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbspectrum_frames_total",
			Help: "Total number of frames drawn, by visualization mode",
		},
		[]string{"mode"},
	)

	framesPerSecond = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fbspectrum_frames_per_second",
			Help: "Smoothed estimate of the frame rate",
		},
	)

	frameSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fbspectrum_frame_duration_seconds",
			Help:    "Time spent rendering one frame, excluding the vsync wait",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10),
		},
	)

	meterDecibels = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fbspectrum_meter_decibels",
			Help: "Peak programme meter reading by channel",
		},
		[]string{"channel"},
	)

	clipsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fbspectrum_clips_total",
			Help: "Total number of frames in which clipping was detected",
		},
	)

	peakDecibels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fbspectrum_spectrum_peak_decibels",
			Help: "Running peak of the band levels",
		},
	)

	reloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fbspectrum_config_reloads_total",
			Help: "Total number of configuration reloads",
		},
	)

	captureRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fbspectrum_capture_running",
			Help: "1 while audio is flowing, 0 while idle",
		},
	)
)

var channelNames = [...]string{"left", "right"}

// Frame records one drawn frame of the given mode.
func Frame(mode string, took time.Duration) {
	framesTotal.WithLabelValues(mode).Inc()
	frameSeconds.Observe(took.Seconds())
}

// FPS records the frame rate estimate.
func FPS(fps float64) { framesPerSecond.Set(fps) }

// Meter records the meter readings and whether the frame clipped.
func Meter(left, right float64, clip bool) {
	meterDecibels.WithLabelValues(channelNames[0]).Set(left)
	meterDecibels.WithLabelValues(channelNames[1]).Set(right)

	if clip {
		clipsTotal.Inc()
	}
}

// Peak records the running spectrum peak.
func Peak(db float64) { peakDecibels.Set(db) }

// Reload counts a configuration reload.
func Reload() { reloadsTotal.Inc() }

// Running records whether capture is active.
func Running(v bool) {
	if v {
		captureRunning.Set(1)
		return
	}

	captureRunning.Set(0)
}

// Serve exposes the default registry on addr until ctx is done.
func Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "metrics server failed")
	}

	return nil
}
