package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
)

// loaderBackend defines the generic interface for loading meshes from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load performs a full import from the given file path, including the skeleton and animations
	// of the first skinned mesh.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - model.Mesh: the imported mesh
	//   - error: error if loading fails
	Load(path string) (model.Mesh, error)

	// LoadMeshOnly imports geometry and materials from the given file path.
	// Skeleton and animation extraction is skipped for static meshes.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - model.Mesh: the imported mesh without skinning
	//   - error: error if loading fails
	LoadMeshOnly(path string) (model.Mesh, error)

	// LoadReader imports a self-contained document (GLB, or glTF with embedded buffers) from a reader.
	//
	// Parameters:
	//   - name: the name given to the mesh
	//   - r: the reader providing model data
	//
	// Returns:
	//   - model.Mesh: the imported mesh
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (model.Mesh, error)
}
