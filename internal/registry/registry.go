// Package registry provides a global registry for opponent policy factories.
// Policies register themselves in init() functions, allowing the platform
// to discover and instantiate them without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
)

// Policy is the interface every automated controller implements.
// Policies see only the observation vector and the episode layout; they never
// touch the engine directly.
type Policy interface {
	// ID returns a unique identifier for this policy (e.g., "greedy").
	// Used for CLI flags and episode records.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Decide maps an observation to an action.
	// Called once per decision step while the policy controls the piece.
	Decide(obs engine.Observation, info engine.EpisodeInfo) engine.Action

	// Reset is called at the start of each episode.
	Reset()
}

// PolicyInfo contains metadata about a registered policy.
type PolicyInfo struct {
	ID    string
	Title string
}

// Factory creates a new policy instance. seed drives any randomness.
type Factory func(seed int64) Policy

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a policy factory to the registry.
// Typically called from a policy's init() function.
// Panics if a policy with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: policy %q already registered", id))
	}

	factories[id] = f

	// Get title by creating a temporary instance
	titles[id] = f(0).Title()
}

// List returns information about all registered policies, sorted by ID.
func List() []PolicyInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]PolicyInfo, 0, len(factories))
	for id := range factories {
		result = append(result, PolicyInfo{
			ID:    id,
			Title: titles[id],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a new policy by its ID.
// Returns an error if the policy ID is not registered.
func Create(id string, seed int64) (Policy, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown policy %q", id)
	}

	return f(seed), nil
}

// Exists checks if a policy with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
