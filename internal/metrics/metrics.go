package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// EndpointMetrics acumula métricas por endpoint
type EndpointMetrics struct {
	Requests     int64
	Errors       int64
	TotalLatency int64
}

// Metrics guarda os contadores da aplicação
type Metrics struct {
	mu sync.RWMutex

	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	TotalLatency       int64
	RequestCount       int64

	// Motor de pontuação
	AssessmentsScored   int64
	AssessmentsCreated  int64
	AssessmentsFailed   int64
	AssessmentsRejected int64

	// Gemini
	AnalysisCalls     int64
	AnalysisFallbacks int64
	AnalysisErrors    int64
	AnalysisLatency   int64

	Exports      int64
	ExportErrors int64

	Syncs      int64
	SyncErrors int64

	WSConnections int64
	WSMessagesOut int64

	CacheHits   int64
	CacheMisses int64

	EndpointMetrics map[string]*EndpointMetrics

	StartTime time.Time
}

var globalMetrics *Metrics
var once sync.Once

// Init inicializa a instância global
func Init() {
	once.Do(func() {
		globalMetrics = New()
	})
}

// New cria uma instância isolada (usada em testes)
func New() *Metrics {
	return &Metrics{
		StartTime:       time.Now(),
		EndpointMetrics: make(map[string]*EndpointMetrics),
	}
}

// Get retorna a instância global
func Get() *Metrics {
	Init()
	return globalMetrics
}

// IncrementRequests incrementa os contadores de requisição
func (m *Metrics) IncrementRequests(success bool, latencyMs int64) {
	atomic.AddInt64(&m.TotalRequests, 1)
	atomic.AddInt64(&m.TotalLatency, latencyMs)
	atomic.AddInt64(&m.RequestCount, 1)

	if success {
		atomic.AddInt64(&m.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&m.FailedRequests, 1)
	}
}

// IncrementScored conta uma execução do motor
func (m *Metrics) IncrementScored() {
	atomic.AddInt64(&m.AssessmentsScored, 1)
}

// IncrementRejected conta entradas recusadas na validação
func (m *Metrics) IncrementRejected() {
	atomic.AddInt64(&m.AssessmentsRejected, 1)
}

// IncrementAssessment conta avaliações concluídas ou com falha
func (m *Metrics) IncrementAssessment(success bool) {
	if success {
		atomic.AddInt64(&m.AssessmentsCreated, 1)
	} else {
		atomic.AddInt64(&m.AssessmentsFailed, 1)
	}
}

// IncrementAnalysis registra uma chamada ao Gemini
func (m *Metrics) IncrementAnalysis(success bool, latencyMs int64) {
	atomic.AddInt64(&m.AnalysisCalls, 1)
	atomic.AddInt64(&m.AnalysisLatency, latencyMs)
	if !success {
		atomic.AddInt64(&m.AnalysisErrors, 1)
	}
}

// IncrementFallback conta trocas de modelo
func (m *Metrics) IncrementFallback() {
	atomic.AddInt64(&m.AnalysisFallbacks, 1)
}

// IncrementExport conta exportações XLSX
func (m *Metrics) IncrementExport(success bool) {
	atomic.AddInt64(&m.Exports, 1)
	if !success {
		atomic.AddInt64(&m.ExportErrors, 1)
	}
}

// IncrementSync conta sincronizações externas
func (m *Metrics) IncrementSync(success bool) {
	atomic.AddInt64(&m.Syncs, 1)
	if !success {
		atomic.AddInt64(&m.SyncErrors, 1)
	}
}

// IncrementWSConnection incrementa conexões WebSocket
func (m *Metrics) IncrementWSConnection() {
	atomic.AddInt64(&m.WSConnections, 1)
}

// DecrementWSConnection decrementa conexões WebSocket
func (m *Metrics) DecrementWSConnection() {
	atomic.AddInt64(&m.WSConnections, -1)
}

// IncrementWSMessageOut conta mensagens enviadas
func (m *Metrics) IncrementWSMessageOut() {
	atomic.AddInt64(&m.WSMessagesOut, 1)
}

// IncrementCache conta acertos e faltas do cache
func (m *Metrics) IncrementCache(hit bool) {
	if hit {
		atomic.AddInt64(&m.CacheHits, 1)
	} else {
		atomic.AddInt64(&m.CacheMisses, 1)
	}
}

// TrackEndpoint acumula métricas por método e rota
func (m *Metrics) TrackEndpoint(path, method string, statusCode int, latencyMs int64) {
	key := method + " " + path

	m.mu.Lock()
	defer m.mu.Unlock()

	em, exists := m.EndpointMetrics[key]
	if !exists {
		em = &EndpointMetrics{}
		m.EndpointMetrics[key] = em
	}

	em.Requests++
	em.TotalLatency += latencyMs
	if statusCode >= 400 {
		em.Errors++
	}
}

// GetEndpointMetrics retorna uma cópia das métricas por endpoint
func (m *Metrics) GetEndpointMetrics() map[string]EndpointMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]EndpointMetrics, len(m.EndpointMetrics))
	for k, v := range m.EndpointMetrics {
		result[k] = *v
	}
	return result
}

// GetAverageLatency retorna a latência média em ms
func (m *Metrics) GetAverageLatency() float64 {
	count := atomic.LoadInt64(&m.RequestCount)
	if count == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&m.TotalLatency)) / float64(count)
}

// GetUptime retorna o tempo desde a inicialização
func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.StartTime)
}

// EndpointMetricsSnapshot são as métricas de um endpoint no snapshot
type EndpointMetricsSnapshot struct {
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// MetricsSnapshot é uma fotografia de todas as métricas
type MetricsSnapshot struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	StartTime     string  `json:"start_time"`

	Requests struct {
		Total        int64   `json:"total"`
		Successful   int64   `json:"successful"`
		Failed       int64   `json:"failed"`
		AvgLatencyMs float64 `json:"avg_latency_ms"`
	} `json:"requests"`

	Assessments struct {
		Scored   int64 `json:"scored"`
		Created  int64 `json:"created"`
		Failed   int64 `json:"failed"`
		Rejected int64 `json:"rejected"`
	} `json:"assessments"`

	Analysis struct {
		Calls        int64   `json:"calls"`
		Fallbacks    int64   `json:"fallbacks"`
		Errors       int64   `json:"errors"`
		AvgLatencyMs float64 `json:"avg_latency_ms"`
	} `json:"analysis"`

	Exports struct {
		Total  int64 `json:"total"`
		Errors int64 `json:"errors"`
	} `json:"exports"`

	Syncs struct {
		Total  int64 `json:"total"`
		Errors int64 `json:"errors"`
	} `json:"syncs"`

	WebSocket struct {
		Connections int64 `json:"connections"`
		MessagesOut int64 `json:"messages_out"`
	} `json:"websocket"`

	Cache struct {
		Hits   int64 `json:"hits"`
		Misses int64 `json:"misses"`
	} `json:"cache"`

	System struct {
		Goroutines   int    `json:"goroutines"`
		HeapAllocMB  uint64 `json:"heap_alloc_mb"`
		HeapInUseMB  uint64 `json:"heap_inuse_mb"`
		StackInUseMB uint64 `json:"stack_inuse_mb"`
		NumGC        uint32 `json:"num_gc"`
	} `json:"system"`

	Endpoints map[string]EndpointMetricsSnapshot `json:"endpoints,omitempty"`
}

// Snapshot retorna o estado atual das métricas
func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s := MetricsSnapshot{}
	s.UptimeSeconds = m.GetUptime().Seconds()
	s.StartTime = m.StartTime.Format(time.RFC3339)

	s.Requests.Total = atomic.LoadInt64(&m.TotalRequests)
	s.Requests.Successful = atomic.LoadInt64(&m.SuccessfulRequests)
	s.Requests.Failed = atomic.LoadInt64(&m.FailedRequests)
	s.Requests.AvgLatencyMs = m.GetAverageLatency()

	s.Assessments.Scored = atomic.LoadInt64(&m.AssessmentsScored)
	s.Assessments.Created = atomic.LoadInt64(&m.AssessmentsCreated)
	s.Assessments.Failed = atomic.LoadInt64(&m.AssessmentsFailed)
	s.Assessments.Rejected = atomic.LoadInt64(&m.AssessmentsRejected)

	calls := atomic.LoadInt64(&m.AnalysisCalls)
	s.Analysis.Calls = calls
	s.Analysis.Fallbacks = atomic.LoadInt64(&m.AnalysisFallbacks)
	s.Analysis.Errors = atomic.LoadInt64(&m.AnalysisErrors)
	if calls > 0 {
		s.Analysis.AvgLatencyMs = float64(atomic.LoadInt64(&m.AnalysisLatency)) / float64(calls)
	}

	s.Exports.Total = atomic.LoadInt64(&m.Exports)
	s.Exports.Errors = atomic.LoadInt64(&m.ExportErrors)
	s.Syncs.Total = atomic.LoadInt64(&m.Syncs)
	s.Syncs.Errors = atomic.LoadInt64(&m.SyncErrors)

	s.WebSocket.Connections = atomic.LoadInt64(&m.WSConnections)
	s.WebSocket.MessagesOut = atomic.LoadInt64(&m.WSMessagesOut)

	s.Cache.Hits = atomic.LoadInt64(&m.CacheHits)
	s.Cache.Misses = atomic.LoadInt64(&m.CacheMisses)

	s.System.Goroutines = runtime.NumGoroutine()
	s.System.HeapAllocMB = memStats.HeapAlloc / 1024 / 1024
	s.System.HeapInUseMB = memStats.HeapInuse / 1024 / 1024
	s.System.StackInUseMB = memStats.StackInuse / 1024 / 1024
	s.System.NumGC = memStats.NumGC

	if endpoints := m.GetEndpointMetrics(); len(endpoints) > 0 {
		s.Endpoints = make(map[string]EndpointMetricsSnapshot, len(endpoints))
		for k, v := range endpoints {
			em := EndpointMetricsSnapshot{Requests: v.Requests, Errors: v.Errors}
			if v.Requests > 0 {
				em.ErrorRate = float64(v.Errors) / float64(v.Requests) * 100
				em.AvgLatencyMs = float64(v.TotalLatency) / float64(v.Requests)
			}
			s.Endpoints[k] = em
		}
	}

	return s
}

// Status de saúde de um componente
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus é a saúde de um componente
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// HealthCheck é a resposta completa do health check
type HealthCheck struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Timestamp  string                  `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
}

// CheckDatabaseHealth verifica a conexão com o banco
func CheckDatabaseHealth(ctx context.Context, db *sql.DB) HealthStatus {
	if db == nil {
		return HealthStatus{Status: StatusUnhealthy, Message: "database connection not initialized"}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return HealthStatus{Status: StatusUnhealthy, Message: err.Error(), Latency: latency}
	}
	if latency > 100 {
		return HealthStatus{Status: StatusDegraded, Message: "high latency", Latency: latency}
	}
	return HealthStatus{Status: StatusHealthy, Latency: latency}
}

// CheckMemoryHealth verifica o uso de heap
func CheckMemoryHealth(maxHeapMB uint64) HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	return memoryStatus(memStats.HeapAlloc/1024/1024, maxHeapMB)
}

func memoryStatus(heapMB, maxHeapMB uint64) HealthStatus {
	if heapMB > maxHeapMB {
		return HealthStatus{Status: StatusUnhealthy, Message: "heap memory exceeds limit"}
	}
	// Alerta acima de 80% do limite
	if heapMB > maxHeapMB*80/100 {
		return HealthStatus{Status: StatusDegraded, Message: "heap memory usage high"}
	}
	return HealthStatus{Status: StatusHealthy}
}

// DetermineOverallStatus combina o status dos componentes
func DetermineOverallStatus(components map[string]HealthStatus) string {
	hasDegraded := false
	for _, status := range components {
		switch status.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			hasDegraded = true
		}
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
