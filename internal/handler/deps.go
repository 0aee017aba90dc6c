package handler

import (
	"github.com/prometheus/client_golang/prometheus"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/configs"
	"chatrelay/internal/pkg/limiter"
)

// Default websocket connect budget per client IP.
const (
	ConnectRate  = 1
	ConnectBurst = 10
)

type AppDeps struct {
	Relay  *chat.Relay
	Hub    *chat.Hub
	Config *configs.AppConfig

	// ConnectLimiter bounds websocket upgrades per client IP. The owner closes it.
	ConnectLimiter *limiter.IPRateLimiter

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}
