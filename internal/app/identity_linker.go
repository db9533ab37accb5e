package app

import (
	"context"
	"time"

	internalcrypto "github.com/better-wallet/linewallet/internal/crypto"
	apperrors "github.com/better-wallet/linewallet/pkg/errors"
	"github.com/better-wallet/linewallet/pkg/types"
)

// IdentityStore persists identity links
type IdentityStore interface {
	Get(ctx context.Context, externalUserID string) (*types.IdentityLink, error)
	CreateIfAbsent(ctx context.Context, link *types.IdentityLink) (bool, error)
}

// IdentityLinker maps external user ids to internal user ids.
// The internal id is the digest of the external id, so it is stable across
// calls and restarts without any cache.
type IdentityLinker struct {
	links IdentityStore
	now   func() time.Time
}

// NewIdentityLinker creates a new IdentityLinker
func NewIdentityLinker(links IdentityStore) *IdentityLinker {
	return &IdentityLinker{
		links: links,
		now:   time.Now,
	}
}

// Derive computes the internal user id of an external user id
func (l *IdentityLinker) Derive(externalUserID string) string {
	return internalcrypto.Digest(externalUserID)
}

// Lookup returns the linked internal user id without creating a link
func (l *IdentityLinker) Lookup(ctx context.Context, externalUserID string) (string, bool, error) {
	link, err := l.links.Get(ctx, externalUserID)
	if err != nil {
		return "", false, apperrors.StoreUnavailable(err)
	}
	if link == nil {
		return "", false, nil
	}
	return link.InternalUserID, true, nil
}

// Resolve returns the linked internal user id, creating the link on first use
func (l *IdentityLinker) Resolve(ctx context.Context, externalUserID string) (string, error) {
	internalUserID, found, err := l.Lookup(ctx, externalUserID)
	if err != nil {
		return "", err
	}
	if found {
		return internalUserID, nil
	}

	link := &types.IdentityLink{
		ExternalUserID: externalUserID,
		InternalUserID: l.Derive(externalUserID),
		CreatedAt:      l.now().UTC(),
	}

	created, err := l.links.CreateIfAbsent(ctx, link)
	if err != nil {
		return "", apperrors.StoreUnavailable(err)
	}
	if created {
		return link.InternalUserID, nil
	}

	// Another request linked this id first; the stored value wins.
	internalUserID, found, err = l.Lookup(ctx, externalUserID)
	if err != nil {
		return "", err
	}
	if !found {
		return link.InternalUserID, nil
	}
	return internalUserID, nil
}
