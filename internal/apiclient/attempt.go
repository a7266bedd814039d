package apiclient

import (
	"context"
	"errors"
)

// Attempt tries candidates strictly in order and returns the first success.
// Remaining candidates are never issued once one succeeds. When all fail the
// result is an *AggregateError holding every failure in order. There is no
// delay between candidates and no candidate is repeated; this discovers
// which contract the server speaks, it does not paper over transient faults.
//
// Each candidate is a real mutation, so callers must only combine requests
// whose end state is identical whichever one lands.
func (c *Client) Attempt(ctx context.Context, candidates []RequestSpec) (*Response, error) {
	if len(candidates) == 0 {
		return nil, errors.New("apiclient: no request candidates")
	}
	tok, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	agg := &AggregateError{}
	for i, spec := range candidates {
		if ctxErr := ctx.Err(); ctxErr != nil {
			agg.Cause = ctxErr
			break
		}
		resp, apiErr := c.send(ctx, tok, spec)
		if apiErr == nil {
			if i > 0 {
				c.logger.Info("request candidate succeeded", "method", spec.Method, "path", spec.Path, "attempt", i+1)
			}
			return resp, nil
		}
		agg.Failures = append(agg.Failures, apiErr)
		c.logger.Info("request candidate failed",
			"method", spec.Method,
			"path", spec.Path,
			"attempt", i+1,
			"status", apiErr.Status,
			"error", KindLabel(apiErr),
		)
	}

	c.metrics.ObserveExhausted()
	return nil, agg
}
