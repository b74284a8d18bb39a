package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "auth_session_operations_total", Help: "Session manager operations by result",
}, []string{"op", "result"})
