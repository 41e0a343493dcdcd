// Package di wires scalingd services together.
package di

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var (
	ErrServiceNotFound = errors.New("di: service not found")
	ErrCycle           = errors.New("di: dependency cycle")
)

// Builder creates a service on first use. It may resolve other services
// from c.
type Builder func(c *Container) (interface{}, error)

// Container holds named services, built lazily and at most once, and
// closes them in reverse order of creation.
type Container struct {
	mu       sync.RWMutex
	services map[string]interface{}
	builders map[string]Builder
	building map[string]bool
	order    []string
}

func New() *Container {
	return &Container{
		services: make(map[string]interface{}),
		builders: make(map[string]Builder),
		building: make(map[string]bool),
	}
}

// Register stores a ready service.
func (c *Container) Register(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.services[name]; !exists {
		c.order = append(c.order, name)
	}
	c.services[name] = service
}

func (c *Container) RegisterBuilder(name string, builder Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[name] = builder
}

// Get returns the service called name, running its builder the first time.
// A failed build is not cached.
func (c *Container) Get(name string) (interface{}, error) {
	c.mu.Lock()
	if service, ok := c.services[name]; ok {
		c.mu.Unlock()
		return service, nil
	}
	builder, ok := c.builders[name]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	if c.building[name] {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrCycle, name)
	}
	c.building[name] = true
	c.mu.Unlock()

	// The lock is released while building; builders resolve their own
	// dependencies.
	service, err := builder(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.building, name)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	if existing, ok := c.services[name]; ok {
		return existing, nil
	}
	c.services[name] = service
	c.order = append(c.order, name)
	return service, nil
}

func (c *Container) MustGet(name string) interface{} {
	service, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return service
}

// Has reports whether name is registered or buildable.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, registered := c.services[name]
	_, buildable := c.builders[name]
	return registered || buildable
}

// ServiceNames returns every registered or buildable name, sorted.
func (c *Container) ServiceNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool, len(c.services)+len(c.builders))
	for name := range c.services {
		seen[name] = true
	}
	for name := range c.builders {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a service only if it has already been registered or built.
// Builders are not run.
func (c *Container) Lookup(name string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	service, exists := c.services[name]
	return service, exists
}

// Close closes every service that has a Close method, newest first, once
// each even when registered under several names. The container is empty
// afterwards; builders stay registered.
func (c *Container) Close() error {
	c.mu.Lock()
	order, services := c.order, c.services
	c.order, c.services = nil, make(map[string]interface{})
	c.mu.Unlock()

	var closed []interface{}
	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		svc := services[order[i]]
		if containsService(closed, svc) {
			continue
		}
		closed = append(closed, svc)
		switch s := svc.(type) {
		case interface{ Close() error }:
			if err := s.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", order[i], err))
			}
		case interface{ Close() }:
			s.Close()
		}
	}
	return errors.Join(errs...)
}

func containsService(list []interface{}, svc interface{}) bool {
	if svc == nil || !reflect.TypeOf(svc).Comparable() {
		return false
	}
	for _, s := range list {
		if reflect.TypeOf(s) == reflect.TypeOf(svc) && s == svc {
			return true
		}
	}
	return false
}

// Resolve fetches a service and asserts its type.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	service, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("service %s has type %T", name, service)
	}
	return typed, nil
}

// Service names constants for type-safe access.
const (
	ServiceConfig  = "config"
	ServiceLogger  = "logger"
	ServiceStore   = "store"
	ServiceStateDB = "store.state"
	ServiceQuerier = "hub.querier"
	ServiceHost    = "host"
	ServiceBackend = "host.backend"
	ServiceJournal = "journal"
	ServiceMetrics = "keeper.metrics"
	ServiceSigner  = "keeper.signer"
	ServiceKeeper  = "keeper"
)
