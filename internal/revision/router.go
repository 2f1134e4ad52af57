package revision

import (
	"context"
	"fmt"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

// Client lists the revisions visible for a key and label filter in one store.
type Client interface {
	ListRevisions(ctx context.Context, store models.StoreDefinition, keyFilter, labelFilter string) (models.Snapshot, error)
}

// Router dispatches each store to the client registered for its kind.
type Router struct {
	clients map[models.StoreKind]Client
}

func NewRouter() *Router {
	return &Router{clients: make(map[models.StoreKind]Client)}
}

// Register sets the client used for kind and returns the router.
func (r *Router) Register(kind models.StoreKind, client Client) *Router {
	r.clients[kind] = client
	return r
}

func (r *Router) ListRevisions(ctx context.Context, store models.StoreDefinition, keyFilter, labelFilter string) (models.Snapshot, error) {
	client, ok := r.clients[store.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, store.Kind)
	}
	return client.ListRevisions(ctx, store, keyFilter, labelFilter)
}
