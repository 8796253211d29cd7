package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a process-local backend.
type Memory struct {
	c *gocache.Cache
}

func NewMemory() *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (m *Memory) Get(_ context.Context, code string) (Entry, bool, error) {
	v, ok := m.c.Get(code)
	if !ok {
		return Entry{}, false, nil
	}
	return v.(Entry), true, nil
}

func (m *Memory) Set(_ context.Context, code string, e Entry) error {
	m.c.Set(code, e, gocache.NoExpiration)
	return nil
}

func (m *Memory) Delete(_ context.Context, code string) error {
	m.c.Delete(code)
	return nil
}
