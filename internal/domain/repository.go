package domain

import "context"

// BundleFilter narrows bundle listings.
type BundleFilter struct {
	Limit      int
	UnusedOnly bool
}

// BundleRepository persists accepted bundles in a rolling window.
type BundleRepository interface {
	Append(ctx context.Context, bundles ...PromptBundle) error
	List(ctx context.Context, filter BundleFilter) ([]PromptBundle, error)
	Get(ctx context.Context, id string) (*PromptBundle, error)
	SetUsed(ctx context.Context, id string, used bool) (*PromptBundle, error)
}
