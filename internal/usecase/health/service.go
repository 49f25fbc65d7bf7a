package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the service answers reads but cannot ingest.
	Degraded Status = "degraded"
	// Unhealthy indicates the index store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentIndex     = "index"
)

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Records int
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	records   RecordCounter
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// WithRecordCounter adds an index check that also reports the record count.
func (s *Service) WithRecordCounter(rc RecordCounter) *Service {
	s.records = rc
	return s
}

// Check runs health checks against all components.
// A failing database makes the report Unhealthy; any other failure Degraded.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Checks: make(map[string]CheckResult)}

	r.Checks[ComponentDatabase] = result(s.db.Ping(ctx))

	if s.records != nil {
		n, err := s.records.Count(ctx)
		r.Checks[ComponentIndex] = result(err)
		r.Records = n
	}

	if s.embedding != nil {
		r.Checks[ComponentEmbedding] = result(s.embedding.HealthCheck(ctx))
	}

	for _, v := range r.Checks {
		if v == CheckError {
			r.Status = Degraded
			break
		}
	}
	if r.Checks[ComponentDatabase] == CheckError {
		r.Status = Unhealthy
	}
	return r
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
