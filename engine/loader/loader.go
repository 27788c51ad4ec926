// Package loader imports glTF/GLB files into meshes, with caching, and decodes material textures
// on a worker pool ahead of GPU upload.
package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/material"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// defaultDecodeWorkers is the number of goroutines decoding textures in parallel.
const defaultDecodeWorkers = 4

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	meshCache map[string]model.Mesh

	backend loaderBackend

	decodeWorkers int
	decodePool    worker.DynamicWorkerPool
}

// Loader defines the public-facing interface for loading and caching meshes.
// It abstracts the file format behind a backend and caches loaded meshes by path or name.
type Loader interface {
	// Load imports a model file and caches the result under its path.
	// The backend is selected from the file extension (.gltf/.glb).
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Mesh: the loaded mesh, possibly skinned and animated
	//   - error: error if loading fails
	Load(path string) (model.Mesh, error)

	// LoadMeshOnly imports geometry and materials only, skipping skeleton and animations.
	// The result is cached separately from Load.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Mesh: the loaded static mesh
	//   - error: error if loading fails
	LoadMeshOnly(path string) (model.Mesh, error)

	// LoadReader imports a self-contained document from a reader and caches it by name.
	//
	// Parameters:
	//   - name: the cache key and mesh name
	//   - r: the reader providing GLB or embedded glTF data
	//
	// Returns:
	//   - model.Mesh: the loaded mesh
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (model.Mesh, error)

	// Get retrieves a cached mesh by key.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Mesh: the cached mesh
	//   - bool: whether the key was cached
	Get(name string) (model.Mesh, bool)

	// Meshes returns a copy of the mesh cache.
	//
	// Returns:
	//   - map[string]model.Mesh: all cached meshes keyed by path or name
	Meshes() map[string]model.Mesh

	// DecodeMaterials decodes the textures of every material in parallel so that a later
	// Initialize only uploads pixels. Every material is attempted; the first failure is returned.
	//
	// Parameters:
	//   - materials: the materials to decode
	//
	// Returns:
	//   - error: the first decode failure, if any
	DecodeMaterials(materials []material.Material) error
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		meshCache:     make(map[string]model.Mesh),
		decodeWorkers: defaultDecodeWorkers,
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	default:
		panic(fmt.Sprintf("loader: unknown backend type %d", backendType))
	}

	for _, option := range options {
		option(l)
	}

	l.decodePool = worker.NewDynamicWorkerPool(l.decodeWorkers, 256, 1*time.Second)
	return l
}

func (l *loader) Load(path string) (model.Mesh, error) {
	return l.cached(path, func() (model.Mesh, error) {
		backend, err := l.resolveBackend(path)
		if err != nil {
			return nil, err
		}
		return backend.Load(path)
	})
}

func (l *loader) LoadMeshOnly(path string) (model.Mesh, error) {
	return l.cached("mesh-only:"+path, func() (model.Mesh, error) {
		backend, err := l.resolveBackend(path)
		if err != nil {
			return nil, err
		}
		return backend.LoadMeshOnly(path)
	})
}

func (l *loader) LoadReader(name string, r io.Reader) (model.Mesh, error) {
	return l.cached(name, func() (model.Mesh, error) {
		return l.backend.LoadReader(name, r)
	})
}

func (l *loader) Get(name string) (model.Mesh, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.meshCache[name]
	return m, ok
}

func (l *loader) Meshes() map[string]model.Mesh {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Mesh, len(l.meshCache))
	for k, v := range l.meshCache {
		result[k] = v
	}
	return result
}

func (l *loader) DecodeMaterials(materials []material.Material) error {
	errs := make([]error, len(materials))

	// The pool idles out between loads, so the WaitGroup is the barrier.
	var wg sync.WaitGroup
	for i, mat := range materials {
		if mat == nil || !(mat.Textured() || mat.HasNormalMap()) {
			continue
		}
		wg.Add(1)
		id, m := i, mat
		l.decodePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				errs[id] = m.Decode()
				return nil, nil
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// cached returns the mesh stored under key, loading and storing it on a miss.
func (l *loader) cached(key string, load func() (model.Mesh, error)) (model.Mesh, error) {
	if m, ok := l.Get(key); ok {
		return m, nil
	}

	m, err := load()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.meshCache[key]; ok {
		return existing, nil
	}
	l.meshCache[key] = m
	return m, nil
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %q", ext)
	}
}
