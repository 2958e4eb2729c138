package httpclient

import (
	"context"
	"net/http"
)

// Fake is a programmable Client double for tests that need to control
// exactly what the outbound call returns without a real listener.
type Fake struct {
	// ExecuteFunc, if set, is called for every Execute invocation.
	ExecuteFunc func(ctx context.Context, req *http.Request) (*Response, error)
}

// Execute delegates to ExecuteFunc, or returns a zero-value success response
// when none was configured.
func (f *Fake) Execute(ctx context.Context, req *http.Request) (*Response, error) {
	if f.ExecuteFunc != nil {
		return f.ExecuteFunc(ctx, req)
	}
	return &Response{StatusCode: http.StatusOK}, nil
}
