package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// StakingMetrics tracks the stake lifecycle and reward flow counters.
type StakingMetrics struct {
	StakesCreated     prometheus.Counter
	UnstakeRequests   prometheus.Counter
	StakeWithdrawals  prometheus.Counter
	Claims            prometheus.Counter
	ClaimedGross      prometheus.Counter
	ClaimFees         prometheus.Counter
	RewardWithdrawals prometheus.Counter
}

var (
	httpMetricsOnce sync.Once
	httpRegistry    *httpMetrics

	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// HTTPMetrics returns the lazily-initialised registry used to record gateway
// request activity.
func HTTPMetrics() *httpMetrics {
	httpMetricsOnce.Do(func() {
		httpRegistry = &httpMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Count of HTTP requests segmented by route and status class.",
			}, []string{"route", "status"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "http",
				Name:      "errors_total",
				Help:      "Count of HTTP responses with a 5xx status segmented by route.",
			}, []string{"route"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stakegw",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latency of HTTP requests segmented by route.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route"}),
		}
		prometheus.MustRegister(httpRegistry.requests, httpRegistry.errors, httpRegistry.latency)
	})
	return httpRegistry
}

// Observe records a single completed request.
func (m *httpMetrics) Observe(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	class := statusClass(status)
	m.requests.WithLabelValues(route, class).Inc()
	if status >= http.StatusInternalServerError {
		m.errors.WithLabelValues(route).Inc()
	}
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

// Staking returns the lazily-initialised staking metrics registry.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			StakesCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "staking",
				Name:      "stakes_created_total",
				Help:      "Count of stake positions opened.",
			}),
			UnstakeRequests: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "staking",
				Name:      "unstake_requests_total",
				Help:      "Count of positions moved into the unlock countdown.",
			}),
			StakeWithdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "staking",
				Name:      "stake_withdrawals_total",
				Help:      "Count of principal withdrawals completed.",
			}),
			Claims: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "rewards",
				Name:      "claims_total",
				Help:      "Count of reward claims processed.",
			}),
			ClaimedGross: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "rewards",
				Name:      "claimed_gross_sum",
				Help:      "Cumulative gross reward amount claimed.",
			}),
			ClaimFees: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "rewards",
				Name:      "claim_fees_sum",
				Help:      "Cumulative protocol fee collected at claim time.",
			}),
			RewardWithdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "rewards",
				Name:      "reward_withdrawals_total",
				Help:      "Count of withdrawable balance payouts.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.StakesCreated,
			stakingRegistry.UnstakeRequests,
			stakingRegistry.StakeWithdrawals,
			stakingRegistry.Claims,
			stakingRegistry.ClaimedGross,
			stakingRegistry.ClaimFees,
			stakingRegistry.RewardWithdrawals,
		)
	})
	return stakingRegistry
}

// Handler exposes the default prometheus registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
