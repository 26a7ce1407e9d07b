/*Package metrics wraps datadog-go to facilitate metric recording
Following are naming convention of metric:
- Internal process time: *.time
- External latency: *.latency
- Error: *.err
- Warning: *.warn
*/
package metrics

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/spf13/viper"

	"github.com/vendue/goapi/base/env"
	"github.com/vendue/goapi/base/log"
)

const (
	// TagValueNA is used for tags whose values are not available.
	TagValueNA = "n/a"

	ddRate        = 1
	bufferMetrics = 10
)

// Ender ends a timer started by BumpTime.
type Ender interface {
	End()
}

// Service provides interface for metrics
type Service interface {
	BumpAvg(key string, val float64, tags ...string)
	BumpSum(key string, val float64, tags ...string)
	BumpHistogram(key string, val float64, tags ...string)

	BumpTime(key string, tags ...string) Ender
}

// statsCli is the subset of statsd.Client we depend on; LogClient provides
// a local fallback when no agent is reachable.
type statsCli interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	TimeInMilliseconds(name string, value float64, tags []string, rate float64) error
}

// New creates a metric client with package name as prefix.
// It falls back to log-only metrics when the datadog agent is unreachable.
func New(pkgName string) Service {
	tags := []string{
		// using host removes all tags associated with host
		"host:",
		"pod:" + env.PodName(),
		"env:" + viper.GetString("env_name"),
		"app:" + viper.GetString("app_name"),
	}

	var cli statsCli
	addr := fmt.Sprintf("%s:%d", viper.GetString("datadog_host"), 8125)
	dd, err := statsd.NewBuffered(addr, bufferMetrics)
	if err != nil {
		log.Log().WithFields(log.Fields{"addr": addr, "err": err}).Warn("can't talk to datadog agent, metrics are log-only")
		cli = &LogClient{}
	} else {
		cli = dd
	}

	return &metricsImpl{
		pkgName: pkgName,
		tags:    tags,
		cli:     cli,
	}
}

type metricsImpl struct {
	pkgName string
	tags    []string
	cli     statsCli
}

func (mt *metricsImpl) ddTags(tags []string) []string {
	res := make([]string, 0, len(mt.tags)+len(tags)/2)
	res = append(res, mt.tags...)
	for i := 0; i+1 < len(tags); i += 2 {
		res = append(res, tags[i]+":"+tags[i+1])
	}
	return res
}

// BumpAvg bumps the average for the given key.
func (mt *metricsImpl) BumpAvg(key string, val float64, tags ...string) {
	if err := mt.cli.Gauge(mt.pkgName+`.`+key, val, mt.ddTags(tags), ddRate); err != nil {
		log.Log().WithFields(log.Fields{"key": key, "err": err}).Debug("gauge failed")
	}
}

// BumpSum bumps the sum for the given key.
func (mt *metricsImpl) BumpSum(key string, val float64, tags ...string) {
	if err := mt.cli.Count(mt.pkgName+`.`+key, int64(val), mt.ddTags(tags), ddRate); err != nil {
		log.Log().WithFields(log.Fields{"key": key, "err": err}).Debug("count failed")
	}
}

// BumpHistogram bumps the histogram for the given key.
func (mt *metricsImpl) BumpHistogram(key string, val float64, tags ...string) {
	if err := mt.cli.Histogram(mt.pkgName+`.`+key, val, mt.ddTags(tags), ddRate); err != nil {
		log.Log().WithFields(log.Fields{"key": key, "err": err}).Debug("histogram failed")
	}
}

// BumpTime starts a timer for the given key. A convenient way of recording
// the duration of a function is:
//
//     defer s.BumpTime("my.function.time").End()
func (mt *metricsImpl) BumpTime(key string, tags ...string) Ender {
	return &timeTracker{
		start: time.Now(),
		end: func(elapsed time.Duration) {
			ms := float64(elapsed) / float64(time.Millisecond)
			if err := mt.cli.TimeInMilliseconds(mt.pkgName+`.`+key, ms, mt.ddTags(tags), ddRate); err != nil {
				log.Log().WithFields(log.Fields{"key": key, "err": err}).Debug("timing failed")
			}
		},
	}
}

type timeTracker struct {
	start time.Time
	end   func(time.Duration)
}

func (t *timeTracker) End() {
	t.end(time.Since(t.start))
}
