package telemetry

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/empiresrv/empireserver/pkg/background"
	"github.com/empiresrv/empireserver/pkg/logger"
)

// Source :
// The narrow world-loop dependency this package reads from, matching
// spec.md §4.7's tick/dt/work-time accessors. Kept as an interface so
// this package never imports internal/worldloop.
type Source interface {
	TickCount() int64
	LastDtSeconds() float64
	LastWorkTimeMs() float64
	AverageWorkTimeMs() float64
}

// Collector :
// Polls a world loop's telemetry accessors on a fixed interval, mirrors
// them into Prometheus gauges, and logs a humanized summary line. Built
// as a `background.Process` like every other periodic task in this
// core.
type Collector struct {
	config configuration
	source Source
	log    logger.Logger
	proc   *background.Process

	tickCount      prometheus.Gauge
	lastDtSeconds  prometheus.Gauge
	lastWorkTimeMs prometheus.Gauge
	avgWorkTimeMs  prometheus.Gauge
}

// NewCollector :
// Registers the world-loop gauges against the default Prometheus
// registry (so a single `promhttp.Handler()` mounted by cmd/empireserver
// serves them) and builds the collector.
func NewCollector(source Source, log logger.Logger) *Collector {
	return &Collector{
		config: parseConfiguration(),
		source: source,
		log:    log,

		tickCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "empireserver_world_loop_tick_count",
			Help: "Number of world loop ticks executed since process start.",
		}),
		lastDtSeconds: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "empireserver_world_loop_last_dt_seconds",
			Help: "Duration of the most recently executed world loop tick, in seconds.",
		}),
		lastWorkTimeMs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "empireserver_world_loop_last_work_time_ms",
			Help: "Wall-clock time spent executing the most recent world loop tick, in milliseconds.",
		}),
		avgWorkTimeMs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "empireserver_world_loop_avg_work_time_ms",
			Help: "Exponential moving average of world loop tick work time, in milliseconds.",
		}),
	}
}

// Start :
// Begins polling the source on the configured interval.
func (c *Collector) Start() error {
	c.proc = background.NewProcess(time.Duration(c.config.LogIntervalMs)*time.Millisecond, c.log).
		WithModule("telemetry").
		WithOperation(c.poll)
	return c.proc.Start()
}

// Stop :
func (c *Collector) Stop() {
	if c.proc != nil {
		c.proc.Stop()
	}
}

func (c *Collector) poll() (bool, error) {
	ticks := c.source.TickCount()
	dt := c.source.LastDtSeconds()
	work := c.source.LastWorkTimeMs()
	avg := c.source.AverageWorkTimeMs()

	c.tickCount.Set(float64(ticks))
	c.lastDtSeconds.Set(dt)
	c.lastWorkTimeMs.Set(work)
	c.avgWorkTimeMs.Set(avg)

	if c.log != nil {
		c.log.Trace(logger.Info, "telemetry", fmt.Sprintf(
			"tick %s, last dt %.3fs, work time %s (avg %s)",
			humanize.Comma(ticks),
			dt,
			humanize.SIWithDigits(work/1000, 2, "s"),
			humanize.SIWithDigits(avg/1000, 2, "s"),
		))
	}

	return true, nil
}
