package health

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Probe is one dependency the readiness report looks at. A failing critical
// probe takes the process out of rotation; any other failure only degrades it.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

type ProbeResult struct {
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Report is the body of every health endpoint. Checks is only filled by
// readiness.
type Report struct {
	Status    Status                 `json:"status"`
	Ready     bool                   `json:"ready"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime"`
	CheckedAt time.Time              `json:"checked_at"`
	Checks    map[string]ProbeResult `json:"checks,omitempty"`
}

// Pinger is satisfied by the event queue.
type Pinger interface {
	Ping() error
}

// Config lists what the service probes. A nil DB or Queue is skipped.
type Config struct {
	Version string
	DB      *sql.DB
	Queue   Pinger
	Timeout time.Duration
}

type Service struct {
	version string
	timeout time.Duration
	started time.Time
	now     func() time.Time
	probes  []Probe
	log     *zap.Logger
}

func NewService(cfg *Config, log *zap.Logger) *Service {
	s := &Service{
		version: cfg.Version,
		timeout: cfg.Timeout,
		now:     time.Now,
		log:     log,
	}
	if s.timeout <= 0 {
		s.timeout = 5 * time.Second
	}
	s.started = s.now()

	if cfg.DB != nil {
		s.AddProbe(Probe{Name: "database", Critical: true, Check: cfg.DB.PingContext})
	}
	if cfg.Queue != nil {
		// Lifecycle events are best-effort; a broker outage never blocks
		// customer operations.
		s.AddProbe(Probe{Name: "queue", Check: func(context.Context) error { return cfg.Queue.Ping() }})
	}
	return s
}

// AddProbe must be called before the service starts answering requests.
func (s *Service) AddProbe(p Probe) {
	s.probes = append(s.probes, p)
}

// Live answers as long as the process can serve HTTP.
func (s *Service) Live() *Report {
	now := s.now()
	return &Report{
		Status:    StatusOK,
		Ready:     true,
		Version:   s.version,
		Uptime:    now.Sub(s.started).Round(time.Second).String(),
		CheckedAt: now,
	}
}

// Ready runs every probe in parallel, each bounded by the configured timeout.
func (s *Service) Ready(ctx context.Context) *Report {
	rep := s.Live()
	rep.Checks = make(map[string]ProbeResult, len(s.probes))

	results := make([]ProbeResult, len(s.probes))
	var wg sync.WaitGroup
	for i, p := range s.probes {
		wg.Add(1)
		go func(i int, p Probe) {
			defer wg.Done()
			results[i] = s.run(ctx, p)
		}(i, p)
	}
	wg.Wait()

	for i, p := range s.probes {
		res := results[i]
		rep.Checks[p.Name] = res
		switch {
		case res.Status == StatusDown:
			rep.Status = StatusDown
			rep.Ready = false
		case res.Status == StatusDegraded && rep.Status == StatusOK:
			rep.Status = StatusDegraded
		}
	}
	return rep
}

func (s *Service) run(ctx context.Context, p Probe) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := p.Check(ctx)
	res := ProbeResult{Status: StatusOK, LatencyMS: time.Since(start).Milliseconds()}
	if err == nil {
		return res
	}

	res.Error = err.Error()
	res.Status = StatusDegraded
	if p.Critical {
		res.Status = StatusDown
	}
	s.log.Warn("Health probe failed",
		zap.String("probe", p.Name),
		zap.Bool("critical", p.Critical),
		zap.Error(err),
	)
	return res
}
