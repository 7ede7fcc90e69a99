// Package metrics counts generation and posting outcomes with Prometheus
// collectors and can dump them to a node-exporter textfile.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joelklabo/molt/internal/core"
)

// Recorder implements core.Observer on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	attempts  prometheus.Counter
	failures  *prometheus.CounterVec
	backoff   prometheus.Counter
	waited    prometheus.Counter
	successes *prometheus.CounterVec
	outcomes  *prometheus.CounterVec
	length    prometheus.Histogram
	posts     *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	length := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "molt_reply_length_chars",
		Help:    "Length of generated replies",
		Buckets: []float64{40, 80, 120, 160, 200, 240, 280},
	})
	r := &Recorder{
		reg:       prometheus.NewRegistry(),
		attempts:  prometheus.NewCounter(prometheus.CounterOpts{Name: "molt_agent_attempts_total", Help: "Agent calls started"}),
		failures:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "molt_agent_attempt_failures_total", Help: "Agent calls that failed"}, []string{"kind"}),
		backoff:   prometheus.NewCounter(prometheus.CounterOpts{Name: "molt_backoffs_total", Help: "Waits between attempts"}),
		waited:    prometheus.NewCounter(prometheus.CounterOpts{Name: "molt_backoff_seconds_total", Help: "Seconds spent waiting between attempts"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "molt_generations_succeeded_total", Help: "Replies generated"}, []string{"shape"}),
		outcomes:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "molt_generations_failed_total", Help: "Generations that failed"}, []string{"kind"}),
		length:    length,
		posts:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "molt_posts_total", Help: "Publish attempts"}, []string{"platform", "status"}),
	}
	r.reg.MustRegister(r.attempts, r.failures, r.backoff, r.waited, r.successes, r.outcomes, r.length, r.posts)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) AttemptStarted(attempt, max int) { r.attempts.Inc() }

func (r *Recorder) AttemptFailed(attempt int, kind core.Kind, err error) {
	r.failures.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) Backoff(attempt int, wait time.Duration) {
	r.backoff.Inc()
	r.waited.Add(wait.Seconds())
}

func (r *Recorder) Succeeded(attempt int, shape core.Shape, length int) {
	r.successes.WithLabelValues(string(shape)).Inc()
	r.length.Observe(float64(length))
}

func (r *Recorder) Failed(kind core.Kind) { r.outcomes.WithLabelValues(string(kind)).Inc() }

// AppendPost counts a publish attempt; it satisfies core.PostSink.
func (r *Recorder) AppendPost(rec core.PostingRecord) error {
	r.posts.WithLabelValues(rec.Platform, strconv.FormatBool(rec.Error == "")).Inc()
	return nil
}

// WriteTextfile writes the current values in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
