// AngelaMos | 2026
// pool_metrics.go

package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegisterPoolMetrics exposes connection pool gauges for the database and
// redis clients. Either may be nil.
func RegisterPoolMetrics(reg prometheus.Registerer, db *Database, rdb *Redis) {
	factory := promauto.With(reg)

	if db != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "joborders_db_open_connections",
			Help: "Open database connections, in use plus idle.",
		}, func() float64 { return float64(db.Stats().OpenConnections) })

		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "joborders_db_in_use_connections",
			Help: "Database connections currently in use.",
		}, func() float64 { return float64(db.Stats().InUse) })

		factory.NewCounterFunc(prometheus.CounterOpts{
			Name: "joborders_db_wait_count_total",
			Help: "Times a caller waited for a database connection.",
		}, func() float64 { return float64(db.Stats().WaitCount) })
	}

	if rdb != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "joborders_redis_total_connections",
			Help: "Connections in the redis pool.",
		}, func() float64 { return float64(rdb.PoolStats().TotalConns) })

		factory.NewCounterFunc(prometheus.CounterOpts{
			Name: "joborders_redis_pool_timeouts_total",
			Help: "Times waiting for a redis connection timed out.",
		}, func() float64 { return float64(rdb.PoolStats().Timeouts) })
	}
}
