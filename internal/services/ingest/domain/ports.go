package domain

import "context"

// ServicePort defines the orchestrator contract
type ServicePort interface {
	Submit(ctx context.Context, in SubmitInput) (SubmitResult, error)
}
