// Package monitoring exports a Prometheus metrics surface and a health
// endpoint for a running treasury node, grounded in
// chain/monitoring/metrics.go's MetricsServer (gauges/counters registered
// on init, routed with gorilla/mux, served over plain HTTP).
package monitoring

import (
	"context"
	"encoding/json"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SaitamaCoderVN/d2d-program/treasury/engine"
	"github.com/SaitamaCoderVN/d2d-program/treasury/events"
)

// Metrics holds every gauge/counter the treasury exposes, mirroring
// spec.md §3.1's TreasuryPool counters plus one counter per instruction and
// per emitted event kind (spec.md §2 components C, D, G).
type Metrics struct {
	TotalDeposited      prometheus.Gauge
	RewardPerShare      prometheus.Gauge
	LiquidBalance       prometheus.Gauge
	BorrowedAmount      prometheus.Gauge
	RewardPoolBalance   prometheus.Gauge
	PlatformPoolBalance prometheus.Gauge
	EmergencyPause      prometheus.Gauge

	Instructions *prometheus.CounterVec
	Events       *prometheus.CounterVec
}

// NewMetrics registers every gauge and counter with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TotalDeposited: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_total_deposited_lamports",
			Help: "Sum of all active backer deposited_amounts.",
		}),
		RewardPerShare: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_reward_per_share",
			Help: "Reward-per-share accumulator, scaled by PRECISION, truncated to float64.",
		}),
		LiquidBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_liquid_balance_lamports",
			Help: "Principal available to fund deployments.",
		}),
		BorrowedAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_borrowed_amount_lamports",
			Help: "Principal currently advanced to ephemeral deployment wallets.",
		}),
		RewardPoolBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_reward_pool_balance_lamports",
			Help: "Tracked balance of the Reward Vault.",
		}),
		PlatformPoolBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_platform_pool_balance_lamports",
			Help: "Tracked balance of the Platform Vault.",
		}),
		EmergencyPause: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_emergency_pause",
			Help: "1 if emergency_pause is active, 0 otherwise.",
		}),
		Instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_instructions_total",
			Help: "Count of instructions processed, by name and outcome.",
		}, []string{"instruction", "outcome"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_events_total",
			Help: "Count of events emitted, by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.TotalDeposited, m.RewardPerShare, m.LiquidBalance, m.BorrowedAmount,
		m.RewardPoolBalance, m.PlatformPoolBalance, m.EmergencyPause,
		m.Instructions, m.Events,
	)
	return m
}

// ObserveInstruction records the outcome of one instruction call, the way
// an RPC middleware layer would wrap every handler.
func (m *Metrics) ObserveInstruction(name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Instructions.WithLabelValues(name, outcome).Inc()
}

// ObserveEvent records one emitted event by kind.
func (m *Metrics) ObserveEvent(kind string) {
	m.Events.WithLabelValues(kind).Inc()
}

// Sample pulls the engine's current pool snapshot into the gauges. Called
// periodically by Server's refresh loop rather than on every mutation,
// since reading engine.Pool() takes the engine's lock.
func (m *Metrics) Sample(eng *engine.Engine) {
	pool := eng.Pool()
	m.TotalDeposited.Set(float64(pool.TotalDeposited))
	m.LiquidBalance.Set(float64(pool.LiquidBalance))
	m.BorrowedAmount.Set(float64(pool.BorrowedAmount))
	m.RewardPoolBalance.Set(float64(pool.RewardPoolBalance))
	m.PlatformPoolBalance.Set(float64(pool.PlatformPoolBalance))
	if rps := pool.RewardPerShare; rps != nil {
		f, _ := new(big.Float).SetInt(rps.ToBig()).Float64()
		m.RewardPerShare.Set(f)
	}
	if pool.EmergencyPause {
		m.EmergencyPause.Set(1)
	} else {
		m.EmergencyPause.Set(0)
	}
}

// Server serves /metrics and /health, grounded in
// chain/monitoring/metrics.go's gorilla/mux router and refresh goroutine.
type Server struct {
	httpServer *http.Server
	metrics    *Metrics
	engine     *engine.Engine
}

// NewServer builds a Server bound to addr, wired to sample eng on a fixed
// interval and to subscribe to sink so treasury_events_total tracks the live
// event log instead of sitting permanently at zero.
func NewServer(addr string, eng *engine.Engine, sink *events.Sink, metrics *Metrics) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	sink.Subscribe(events.SubscriberFunc(func(ev events.Event) {
		metrics.ObserveEvent(string(ev.Kind))
	}))

	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: router},
		metrics:    metrics,
		engine:     eng,
	}
}

// Run starts the refresh loop and blocks serving HTTP until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.refreshLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Printf("monitoring server stopped: %v", err)
			return err
		}
		return nil
	}
}

func (s *Server) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.Sample(s.engine)
		}
	}
}
