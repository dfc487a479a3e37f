package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	js "github.com/santhosh-tekuri/jsonschema/v5"
)

// Registry compiles and caches JSON Schemas for transaction payloads. Each
// transaction kind registers a schema at startup; request bodies are checked
// against it before the handler touches the store. The raw schema is kept
// alongside the compile cache, so an evicted or expired entry is recompiled
// rather than skipped.
type Registry struct {
	mu    sync.RWMutex
	raw   map[string]map[string]interface{}
	cache *expirable.LRU[string, *js.Schema]
}

func NewRegistry(maxSize int) *Registry {
	return &Registry{
		raw:   make(map[string]map[string]interface{}),
		cache: expirable.NewLRU[string, *js.Schema](maxSize, nil, time.Hour),
	}
}

// Register compiles the schema for a transaction kind and caches it
func (r *Registry) Register(kind string, schema map[string]interface{}) error {
	compiled, err := compile(kind, schema)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.raw[kind] = schema
	r.mu.Unlock()
	r.cache.Add(kind, compiled)
	return nil
}

// Validate checks a decoded payload against the schema registered for kind.
// Unregistered kinds pass through unchecked.
func (r *Registry) Validate(kind string, value map[string]interface{}) error {
	compiled, ok := r.cache.Get(kind)
	if !ok {
		r.mu.RLock()
		schema, registered := r.raw[kind]
		r.mu.RUnlock()
		if !registered {
			return nil
		}

		var err error
		compiled, err = compile(kind, schema)
		if err != nil {
			return fmt.Errorf("failed to recompile schema for %s: %w", kind, err)
		}
		r.cache.Add(kind, compiled)
	}

	// Round-trip so numbers land as the float64/json.Number forms the
	// validator expects
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	if err := compiled.Validate(raw); err != nil {
		return fmt.Errorf("payload validation failed: %w", err)
	}
	return nil
}

// compile builds the schema with a fresh compiler so recompiles never
// collide on resource URLs
func compile(kind string, schema map[string]interface{}) (*js.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	c := js.NewCompiler()
	c.ExtractAnnotations = true

	resourceURL := fmt.Sprintf("mem://tx/%s.json", kind)
	if err := c.AddResource(resourceURL, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}

	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", kind, err)
	}
	return compiled, nil
}
