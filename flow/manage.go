package flow

import (
	"context"
	"fmt"
	"strings"

	"filesearch/genai"
	"filesearch/session"
)

// DefaultUploadsStoreName names empty stores created for ad-hoc uploads.
const DefaultUploadsStoreName = "file-search-uploads"

// Manager covers the store lifecycle operations that complete in a single
// remote call: create empty, bind existing, list and delete.
type Manager struct {
	svc Service
}

// NewManager constructs a Manager.
func NewManager(svc Service) *Manager {
	return &Manager{svc: svc}
}

// CreateEmpty creates a store with no documents, makes it the session's
// active store and returns its resource name.
func (m *Manager) CreateEmpty(ctx context.Context, sess *session.Session, displayName string) (string, error) {
	if !sess.HasCredential() {
		return "", ErrCredentialRequired
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = DefaultUploadsStoreName
	}
	store, err := m.svc.CreateStore(ctx, displayName)
	if err != nil {
		return "", err
	}
	sess.SetStore(store.Name)
	return store.Name, nil
}

// BindExisting resolves a store by its exact resource name and makes it the
// session's active store. A blank or unresolvable reference is a
// not-found-class failure meant for display, not a fatal error.
func (m *Manager) BindExisting(ctx context.Context, sess *session.Session, name string) (string, error) {
	if !sess.HasCredential() {
		return "", ErrCredentialRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: paste a store resource like fileSearchStores/...", ErrStoreNotFound)
	}
	store, err := m.svc.GetStore(ctx, name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreNotFound, err)
	}
	sess.SetStore(store.Name)
	return store.Name, nil
}

// List returns all stores visible to the session's key.
func (m *Manager) List(ctx context.Context, sess *session.Session) ([]*genai.Store, error) {
	if !sess.HasCredential() {
		return nil, ErrCredentialRequired
	}
	return m.svc.ListStores(ctx)
}

// Delete force-deletes a store by resource name. The active store reference
// is cleared when it was the one deleted.
func (m *Manager) Delete(ctx context.Context, sess *session.Session, name string) error {
	if !sess.HasCredential() {
		return ErrCredentialRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrStoreRequired
	}
	if err := m.svc.DeleteStore(ctx, name, true); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if sess.Store() == name {
		sess.SetStore("")
	}
	return nil
}
