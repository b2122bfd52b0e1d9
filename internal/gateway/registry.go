package gateway

import (
	"sync"

	"checkout/internal/domain"
)

// Registry maps payment source types to their configured gateways.
type Registry struct {
	mu       sync.RWMutex
	gateways map[domain.PaymentSourceType]Gateway
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		gateways: make(map[domain.PaymentSourceType]Gateway),
	}
}

// Register configures the gateway for a payment source type.
func (r *Registry) Register(sourceType domain.PaymentSourceType, gw Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[sourceType] = gw
}

// Lookup returns the gateway for a payment source type.
// Returns false if no gateway is configured for the type.
func (r *Registry) Lookup(sourceType domain.PaymentSourceType) (Gateway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gw, ok := r.gateways[sourceType]
	return gw, ok
}
