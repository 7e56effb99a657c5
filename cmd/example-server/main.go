package main

import (
	"encoding/json"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MEDICALCOR/medicalcor-core-sub003/pkg/ratelimit"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})

	limiter, err := ratelimit.New(ratelimit.NewRedisStore(client),
		ratelimit.WithLogger(logger),
		ratelimit.WithKeyPrefix("demo:rl:"),
		ratelimit.WithStoreTimeout(150*time.Millisecond),
		ratelimit.WithRecorder(ratelimit.NewPrometheusRecorder(prometheus.DefaultRegisterer)),
		ratelimit.WithCircuitBreaker(ratelimit.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     10 * time.Second,
			SuccessThreshold: 2,
		}),
	)
	if err != nil {
		logger.Fatal("limiter construction failed", zap.Error(err))
	}

	http.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		ip, _, splitErr := net.SplitHostPort(r.RemoteAddr)
		if splitErr != nil {
			ip = r.RemoteAddr
		}

		res := limiter.Check(r.Context(),
			ratelimit.Identity{Key: ip, Scope: "ping"},
			ratelimit.TierName("api"))

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		if res.Fallback {
			w.Header().Set("X-RateLimit-Status", "degraded")
		}
		if !res.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds()+1)))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("Pong!\n"))
	})

	http.HandleFunc("/ratelimit/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(limiter.Metrics())
	})

	http.Handle("/metrics", promhttp.Handler())

	logger.Info("server listening", zap.String("addr", ":8080"), zap.String("redis", redisAddr))
	if err := http.ListenAndServe(":8080", nil); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
