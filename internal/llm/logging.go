package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lchelper/lchelper/internal/store"
)

// RequestLog receives one record per provider call.
type RequestLog interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// LoggingProvider records every call, successful or not, to a RequestLog.
type LoggingProvider struct {
	inner    Provider
	provider string
	sink     RequestLog
	log      zerolog.Logger
}

// WithLogging wraps p. provider is the name stored with each record.
func WithLogging(p Provider, provider string, sink RequestLog, log zerolog.Logger) Provider {
	return &LoggingProvider{inner: p, provider: provider, sink: sink, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	rec := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: describeRequest(req),
	}
	if resp != nil {
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
		rec.ResponseBody = string(resp.Content)
		if resp.Model != "" {
			rec.Model = resp.Model
		}
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
	}

	// The request log outlives a cancelled caller.
	if logErr := l.sink.AppendLLMRequest(context.WithoutCancel(ctx), rec); logErr != nil {
		l.log.Warn().Err(logErr).Str("purpose", rec.Purpose).Msg("record llm request")
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func describeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
