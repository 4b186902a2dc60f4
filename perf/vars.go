package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	UpdatesSent     = metric.NewCounter("10s1s")
	UpdatesApplied  = metric.NewCounter("10s1s")
	LsaFlooded      = metric.NewCounter("10s1s")
	LsaDelivered    = metric.NewCounter("10s1s")
	LsaDuplicates   = metric.NewCounter("10s1s")
	MessagesDropped = metric.NewCounter("10s1s")
	DijkstraLatency = metric.NewHistogram("1m1s")
	HandleLatency   = metric.NewHistogram("1m1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("routesim:UpdatesSent/s", UpdatesSent)
	expvar.Publish("routesim:UpdatesApplied/s", UpdatesApplied)
	expvar.Publish("routesim:LsaFlooded/s", LsaFlooded)
	expvar.Publish("routesim:LsaDelivered/s", LsaDelivered)
	expvar.Publish("routesim:LsaDuplicates/s", LsaDuplicates)
	expvar.Publish("routesim:MessagesDropped/s", MessagesDropped)
	expvar.Publish("routesim:DijkstraLatency (µs)", DijkstraLatency)
	expvar.Publish("routesim:HandleLatency (µs)", HandleLatency)
}
