package usecase

import (
	"context"
	"time"

	"github.com/barkain/scout/internal/domain"
)

// PingInput contains the parameters for probing the server.
type PingInput struct{}

// PingOutput contains the result of probing the server.
type PingOutput struct {
	Latency time.Duration // Round-trip time of the health request
	Healthy bool
	Error   string // Failure detail when not healthy
}

// Ping is the use case for probing the analysis server's health.
type Ping struct {
	api domain.AnalysisAPI
}

// NewPing creates a new Ping use case.
func NewPing(api domain.AnalysisAPI) *Ping {
	return &Ping{api: api}
}

// Execute probes the health endpoint. An unreachable server is reported
// in the output, not as an error, so callers can render it.
func (uc *Ping) Execute(ctx context.Context, _ PingInput) (*PingOutput, error) {
	start := time.Now()
	err := uc.api.Health(ctx)
	out := &PingOutput{
		Latency: time.Since(start),
		Healthy: err == nil,
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out, nil
}
