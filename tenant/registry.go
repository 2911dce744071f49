package tenant

import (
	"fmt"
	"os"
	"sync"

	"github.com/machinefabric/bearcub/message"
)

// Registry is the process-wide user_id → Provider cache. It guarantees at
// most one Provider is ever created per user id even under concurrent
// Get() calls, and that same instance — never a clone — is handed to every
// caller, so concurrent requests for one tenant always mutate the same
// in-memory skeleton.
type Registry struct {
	mu        sync.Mutex
	dataDir   string
	providers map[string]*Provider
}

// NewRegistry builds a registry rooted at dataDir. Per-tenant directories
// are created lazily on first use, not eagerly here.
func NewRegistry(dataDir string) *Registry {
	return &Registry{
		dataDir:   dataDir,
		providers: make(map[string]*Provider),
	}
}

// Get returns the shared Provider for userID, creating and caching it on
// first use.
func (r *Registry) Get(userID string) (*Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[userID]; ok {
		return p, nil
	}

	p, err := loadOrInit(r.dataDir, userID)
	if err != nil {
		return nil, err
	}
	r.providers[userID] = p
	fmt.Fprintf(os.Stderr, "[registry] created provider for user %s\n", userID)
	return p, nil
}

// Handle looks up (or creates) the request's tenant provider and dispatches
// to it. Registry lookup failures (a data directory that can't be created)
// surface as an InvalidMessage error response.
func (r *Registry) Handle(req message.Request) message.Response {
	p, err := r.Get(req.UserID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[registry] failed to materialize provider for user %s: %v\n", req.UserID, err)
		return invalidMessage("storage error: could not open tenant store")
	}
	return p.Handle(req)
}
