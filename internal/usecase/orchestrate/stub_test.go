package orchestrate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"overseer-ai/internal/domain"
)

// scriptOracle replays a fixed routing script: each Route call consumes the
// next entry, exhaustion means Terminal. It records every request so tests
// can inspect what the supervisor asked for.
type scriptOracle struct {
	mu       sync.Mutex
	routes   []string
	routeErr error
	judgeFn  func(domain.JudgeRequest) (*domain.Judgement, error)
	judgeErr error

	requests      []domain.RouteRequest
	judgeRequests []domain.JudgeRequest
}

func (o *scriptOracle) Route(_ context.Context, req domain.RouteRequest) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, req)
	if o.routeErr != nil {
		return "", o.routeErr
	}
	if len(o.routes) == 0 {
		return domain.Terminal, nil
	}
	next := o.routes[0]
	o.routes = o.routes[1:]
	return next, nil
}

func (o *scriptOracle) Judge(_ context.Context, req domain.JudgeRequest) (*domain.Judgement, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.judgeRequests = append(o.judgeRequests, req)
	if o.judgeErr != nil {
		return nil, o.judgeErr
	}
	if o.judgeFn != nil {
		return o.judgeFn(req)
	}
	return &domain.Judgement{Score: 9, Sufficient: true}, nil
}

// stubCapability is a scripted capability for worker tests.
type stubCapability struct {
	name     string
	desc     string
	out      string
	err      error
	panicMsg string
	nilOut   bool

	lastArgs json.RawMessage
}

func (c *stubCapability) Name() string            { return c.name }
func (c *stubCapability) Description() string     { return c.desc }
func (c *stubCapability) Schema() json.RawMessage { return nil }

func (c *stubCapability) Invoke(_ context.Context, args json.RawMessage) (*domain.CapabilityResult, error) {
	c.lastArgs = args
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	if c.err != nil {
		return nil, c.err
	}
	if c.nilOut {
		return nil, nil
	}
	return &domain.CapabilityResult{Content: c.out}, nil
}

// failingWorker builds a worker whose single capability always errors.
func failingWorker(name string) *Worker {
	capability := &stubCapability{name: name + "_cap", err: fmt.Errorf("backend down")}
	return NewWorker(name, "", []domain.Capability{capability}, nil, discardLogger())
}

// okWorker builds a worker whose single capability returns out.
func okWorker(name, out string) *Worker {
	capability := &stubCapability{name: name + "_cap", out: out}
	return NewWorker(name, "", []domain.Capability{capability}, nil, discardLogger())
}

// lastSystem returns the content of the most recent system message.
func lastSystem(conv *domain.Conversation) string {
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == domain.RoleSystem {
			return conv.Messages[i].Content
		}
	}
	return ""
}
