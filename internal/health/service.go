package health

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"stagepass-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional; when nil the database is reported disconnected.
type DBPinger interface {
	Ping() error
}

// DepPinger covers external collaborators checked by the health report
// (Aptos node, Pinata).
type DepPinger interface {
	Ping(ctx context.Context) error
}

// Result is the /health/json payload.
type Result struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Goroutines    int    `json:"goroutines"`
	HeapUsed      uint64 `json:"heapUsed"`
	GoVersion     string `json:"goVersion"`
}

type TrafficInfo struct {
	TotalRequests   int    `json:"totalRequests"`
	SuccessCount    int    `json:"successCount"`
	FailedCount     int    `json:"failedCount"`
	SuccessRate     string `json:"successRate"`
	AvgResponseTime string `json:"avgResponseTime"`
	LastRequest     string `json:"lastRequest,omitempty"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Checker gathers health data from Redis counters, the database, and the
// external collaborators.
type Checker struct {
	Rdb    *redis.Client
	DB     DBPinger
	Node   DepPinger
	Pinata DepPinger
}

// Collect builds the health report. Any failing dependency flips the
// overall status to degraded.
func (ch *Checker) Collect(ctx context.Context) Result {
	result := Result{
		Status:       "ok",
		Dependencies: make(map[string]DepStatus),
	}

	result.Dependencies["database"] = pingSync(ch.DB)
	result.Dependencies["redis"], result.Traffic = ch.redisStats(ctx)
	result.Dependencies["aptos_node"] = pingCtx(ctx, ch.Node)
	result.Dependencies["pinata"] = pingCtx(ctx, ch.Pinata)

	for _, dep := range result.Dependencies {
		if dep.Status == "error" {
			result.Status = "degraded"
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	result.Runtime = RuntimeInfo{
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		HeapUsed:      mem.HeapAlloc,
		GoVersion:     runtime.Version(),
	}
	return result
}

var startTime = time.Now()

func pingSync(db DBPinger) DepStatus {
	if db == nil {
		return DepStatus{Status: "disconnected"}
	}
	start := time.Now()
	if err := db.Ping(); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

func pingCtx(ctx context.Context, dep DepPinger) DepStatus {
	if dep == nil {
		return DepStatus{Status: "disconnected"}
	}
	start := time.Now()
	if err := dep.Ping(ctx); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

func (ch *Checker) redisStats(ctx context.Context) (DepStatus, TrafficInfo) {
	stats := TrafficInfo{SuccessRate: "100", AvgResponseTime: "0"}
	if ch.Rdb == nil {
		return DepStatus{Status: "disconnected"}, stats
	}

	start := time.Now()
	if err := ch.Rdb.Ping(ctx).Err(); err != nil {
		return DepStatus{Status: "error"}, stats
	}
	ms := time.Since(start).Milliseconds()

	totalReq, _ := ch.Rdb.Get(ctx, middleware.KeyReqTotal).Result()
	totalErr, _ := ch.Rdb.Get(ctx, middleware.KeyReqErrors).Result()
	totalTime, _ := ch.Rdb.Get(ctx, middleware.KeyResTime).Result()
	resCount, _ := ch.Rdb.Get(ctx, middleware.KeyResCount).Result()
	lastReq, _ := ch.Rdb.Get(ctx, middleware.KeyLastReq).Result()

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	countSum, _ := strconv.Atoi(resCount)
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	stats.LastRequest = lastReq

	return DepStatus{Status: "connected", PingMs: &ms}, stats
}
