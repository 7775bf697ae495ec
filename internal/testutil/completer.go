package testutil

import (
	"context"
	"sync"

	"github.com/Veraticus/invoice-mapper/internal/model"
)

// Completer returns a fixed completion and records every request it receives.
type Completer struct {
	Err      error
	Response string
	requests []model.CompletionRequest
	mu       sync.Mutex
}

// Complete implements engine.Completer.
func (c *Completer) Complete(_ context.Context, req model.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	return c.Response, c.Err
}

// SetResponse replaces the canned completion text.
func (c *Completer) SetResponse(response string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Response = response
}

// Requests returns a copy of the requests seen so far.
func (c *Completer) Requests() []model.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.CompletionRequest(nil), c.requests...)
}
