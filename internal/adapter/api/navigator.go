package api

import "sync"

// PathNavigator is a Navigator that tracks the current entry point and calls
// OnNavigate on every move.
type PathNavigator struct {
	mu         sync.Mutex
	path       string
	onNavigate func(path string)
}

// NewPathNavigator starts at path.
func NewPathNavigator(path string, onNavigate func(path string)) *PathNavigator {
	return &PathNavigator{path: path, onNavigate: onNavigate}
}

// Location returns the current path.
func (n *PathNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

// Navigate moves to path.
func (n *PathNavigator) Navigate(path string) {
	n.mu.Lock()
	n.path = path
	fn := n.onNavigate
	n.mu.Unlock()

	if fn != nil {
		fn(path)
	}
}
