package game

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps commands to variants.
type Registry struct {
	games map[string]Game
	mu    sync.RWMutex
}

// NewRegistry creates a registry holding games.
func NewRegistry(games ...Game) (*Registry, error) {
	r := &Registry{games: make(map[string]Game)}
	for _, g := range games {
		if err := r.Register(g); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a game. A game with the same command is replaced.
func (r *Registry) Register(g Game) error {
	if g == nil {
		return fmt.Errorf("cannot register nil game")
	}
	if g.Command() == "" {
		return fmt.Errorf("game command cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.Command()] = g
	return nil
}

// Get retrieves a game by its command.
func (r *Registry) Get(command string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[command]
	return g, ok
}

// Lookup is Get returning ErrUnknownGame for a miss.
func (r *Registry) Lookup(command string) (Game, error) {
	g, ok := r.Get(command)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, command)
	}
	return g, nil
}

// List returns all registered games sorted by command.
func (r *Registry) List() []Game {
	r.mu.RLock()
	defer r.mu.RUnlock()

	games := make([]Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].Command() < games[j].Command() })
	return games
}

// Commands returns all registered commands, sorted.
func (r *Registry) Commands() []string {
	games := r.List()
	commands := make([]string, len(games))
	for i, g := range games {
		commands[i] = g.Command()
	}
	return commands
}

// Count returns the number of registered games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
