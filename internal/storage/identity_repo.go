package storage

import (
	"context"
	"fmt"

	"github.com/better-wallet/linewallet/pkg/types"
)

// IdentityLinkRepository handles identity link documents
type IdentityLinkRepository struct {
	docs DocumentStore
}

// NewIdentityLinkRepository creates a new IdentityLinkRepository
func NewIdentityLinkRepository(docs DocumentStore) *IdentityLinkRepository {
	return &IdentityLinkRepository{docs: docs}
}

// Get retrieves the link of an external user id. Returns nil, nil when absent.
func (r *IdentityLinkRepository) Get(ctx context.Context, externalUserID string) (*types.IdentityLink, error) {
	var link types.IdentityLink
	found, err := r.docs.Get(ctx, types.CollectionIdentityLinks, externalUserID, &link)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity link: %w", err)
	}
	if !found {
		return nil, nil
	}

	if link.InternalUserID == "" {
		return nil, fmt.Errorf("%w: identity link without internal user id", ErrMalformedDocument)
	}
	if link.ExternalUserID != "" && link.ExternalUserID != externalUserID {
		return nil, fmt.Errorf("%w: identity link stored under another external user id", ErrMalformedDocument)
	}

	return &link, nil
}

// CreateIfAbsent stores the link unless one already exists.
// It reports whether this call wrote the link.
func (r *IdentityLinkRepository) CreateIfAbsent(ctx context.Context, link *types.IdentityLink) (bool, error) {
	created, err := r.docs.Create(ctx, types.CollectionIdentityLinks, link.ExternalUserID, link)
	if err != nil {
		return false, fmt.Errorf("failed to create identity link: %w", err)
	}
	return created, nil
}
