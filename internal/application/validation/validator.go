// Package validation implements the ordered validator chain consulted before
// approval and rejection transitions. Validators share one mutable
// ValidationContext: earlier validators enrich it (the transition row is a
// side channel) and later validators and the calling handler read what was
// written. The chain short-circuits on the first failure and its message
// surfaces to the caller verbatim.
package validation

import (
	"context"

	"github.com/opencouncil/membership/internal/domain/workflow"
)

// Validator is one link of the chain.
type Validator interface {
	// Name identifies the validator in logs.
	Name() string

	// Validate inspects and may enrich vc. A non-nil error aborts the
	// chain.
	Validate(ctx context.Context, vc *workflow.ValidationContext) error
}

// Chain composes validators by sequential delegation.
type Chain struct {
	validators []Validator
}

// NewChain creates a chain that runs the given validators in order.
func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: validators}
}

// Validate runs each validator in order, passing the same context pointer
// through, and returns the first failure unchanged.
func (c *Chain) Validate(ctx context.Context, vc *workflow.ValidationContext) error {
	for _, v := range c.validators {
		if err := v.Validate(ctx, vc); err != nil {
			return err
		}
	}
	return nil
}
