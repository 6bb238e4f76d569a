package client

import (
	"context"
	"sync"
)

// PathProvider reports the active navigation path of the application
type PathProvider interface {
	CurrentPath() string
}

// Navigator performs a hard navigation, discarding in-flight UI state
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) Navigate(ctx context.Context, route string) {
	f(ctx, route)
}

// Location holds the current path and moves it on navigation.
type Location struct {
	mu   sync.RWMutex
	path string
}

var (
	_ PathProvider = (*Location)(nil)
	_ Navigator    = (*Location)(nil)
)

func NewLocation(path string) *Location {
	if path == "" {
		path = "/"
	}
	return &Location{path: path}
}

func (l *Location) CurrentPath() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path
}

func (l *Location) SetPath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.path = path
}

func (l *Location) Navigate(_ context.Context, route string) {
	l.SetPath(route)
}
