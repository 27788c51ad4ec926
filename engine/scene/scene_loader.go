package scene

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-voxel/engine/animator"
	"github.com/Carmen-Shannon/oxy-voxel/engine/drawable"
	"github.com/Carmen-Shannon/oxy-voxel/engine/light"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// CubeMesh is the mesh name that selects the built-in cube instead of a file.
const CubeMesh = "cube"

// File is the YAML description of a scene.
type File struct {
	Name         string           `yaml:"name"`
	Lights       []LightSpec      `yaml:"lights"`
	Renderables  []DrawableSpec   `yaml:"renderables"`
	VoxelBatches []VoxelBatchSpec `yaml:"voxel_batches"`
	Models       []ModelSpec      `yaml:"models"`
}

// LightSpec places a point light in a slot.
type LightSpec struct {
	Index    int         `yaml:"index"`
	Position [3]float32  `yaml:"position"`
	Color    *[4]float32 `yaml:"color"`
	Orbit    *OrbitSpec  `yaml:"orbit"`
}

// OrbitSpec makes a light circle the Y axis.
type OrbitSpec struct {
	Radius float32 `yaml:"radius"`
	Speed  float32 `yaml:"speed"`
}

// MotionSpec selects an animator.Motion by type name.
type MotionSpec struct {
	Type      string   `yaml:"type"`
	Radius    *float32 `yaml:"radius"`
	Rate      *float32 `yaml:"rate"`
	TimeScale *float32 `yaml:"time_scale"`
}

// DrawableSpec holds the fields shared by every drawable entry. Rotation is in degrees about X, Y then Z.
type DrawableSpec struct {
	Name      string      `yaml:"name"`
	Mesh      string      `yaml:"mesh"`
	Texture   string      `yaml:"texture"`
	NormalMap string      `yaml:"normal_map"`
	Position  [3]float32  `yaml:"position"`
	Rotation  [3]float32  `yaml:"rotation"`
	Scale     *[3]float32 `yaml:"scale"`
	Color     *[4]float32 `yaml:"color"`
	Motion    *MotionSpec `yaml:"motion"`
	Enabled   *bool       `yaml:"enabled"`
}

// GridSpec lays instances out on a centred grid, see drawable.GridInstances.
type GridSpec struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Depth   int     `yaml:"depth"`
	Spacing float32 `yaml:"spacing"`
}

// VoxelBatchSpec is a drawable entry drawn once per instance. Instances come from Grid and from
// explicit Instances positions, in that order.
type VoxelBatchSpec struct {
	DrawableSpec `yaml:",inline"`
	Grid         *GridSpec    `yaml:"grid"`
	Instances    [][3]float32 `yaml:"instances"`
}

// ModelSpec is a skinned drawable entry with an optional clip played from the start.
type ModelSpec struct {
	DrawableSpec `yaml:",inline"`
	Animation    string   `yaml:"animation"`
	Loop         *bool    `yaml:"loop"`
	Speed        *float32 `yaml:"speed"`
}

// LoadScene reads a YAML scene file and builds the scene it describes. Relative mesh and texture
// paths resolve against the file's directory. Mesh files are imported through the scene's loader
// and material textures are decoded in parallel before LoadScene returns.
//
// Parameters:
//   - path: the scene file
//   - options: functional options applied to the new scene, e.g. WithLoader
//
// Returns:
//   - Scene: the built scene
//   - error: error if the file cannot be read or describes an invalid scene
func LoadScene(path string, options ...SceneBuilderOption) (Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	defer f.Close()

	file, err := DecodeFile(f)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	if file.Name == "" {
		base := filepath.Base(path)
		file.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	s, err := Build(file, filepath.Dir(path), options...)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	log.Printf("[Scene] loaded %q from %s: %d renderables, %d voxel batches, %d models",
		s.Name(), path, len(file.Renderables), len(file.VoxelBatches), len(file.Models))
	return s, nil
}

// DecodeFile parses a YAML scene description. Unknown keys are rejected.
//
// Parameters:
//   - r: the YAML source
//
// Returns:
//   - *File: the parsed description
//   - error: error if the YAML is malformed
func DecodeFile(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	return &file, nil
}

// Build creates a scene from a parsed description.
//
// Parameters:
//   - file: the description; Name must be set
//   - baseDir: the directory relative paths resolve against
//   - options: functional options applied to the new scene
//
// Returns:
//   - Scene: the built scene
//   - error: the first invalid entry
func Build(file *File, baseDir string, options ...SceneBuilderOption) (Scene, error) {
	if file.Name == "" {
		return nil, errors.New("scene has no name")
	}
	s := NewScene(file.Name, options...)
	b := &builder{s: s, baseDir: baseDir}

	for _, ls := range file.Lights {
		if err := s.AddPointLight(ls.Index, buildLight(ls)); err != nil {
			return nil, err
		}
	}
	for _, spec := range file.Renderables {
		if err := b.addRenderable(spec); err != nil {
			return nil, fmt.Errorf("renderable %q: %w", spec.Name, err)
		}
	}
	for _, spec := range file.VoxelBatches {
		if err := b.addVoxelBatch(spec); err != nil {
			return nil, fmt.Errorf("voxel batch %q: %w", spec.Name, err)
		}
	}
	for _, spec := range file.Models {
		if err := b.addModel(spec); err != nil {
			return nil, fmt.Errorf("model %q: %w", spec.Name, err)
		}
	}

	if err := s.Loader().DecodeMaterials(b.materials); err != nil {
		return nil, err
	}
	return s, nil
}

func buildLight(ls LightSpec) light.PointLight {
	opts := []light.LightBuilderOption{light.WithPosition(ls.Position[0], ls.Position[1], ls.Position[2])}
	if c := ls.Color; c != nil {
		opts = append(opts, light.WithColor(c[0], c[1], c[2], c[3]))
	}
	if ls.Orbit != nil {
		opts = append(opts, light.WithOrbit(ls.Orbit.Radius, ls.Orbit.Speed))
	}
	return light.NewPointLight(opts...)
}

// builder accumulates the materials of the drawables it creates for one parallel decode.
type builder struct {
	s         Scene
	baseDir   string
	materials []material.Material
}

func (b *builder) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.baseDir, path)
}

// mesh returns the built-in cube or imports the file; skinned selects a full import.
func (b *builder) mesh(name string, skinned bool) (model.Mesh, error) {
	switch {
	case name == "" || name == CubeMesh:
		return model.Cube(), nil
	case skinned:
		return b.s.Loader().Load(b.resolve(name))
	default:
		return b.s.Loader().LoadMeshOnly(b.resolve(name))
	}
}

// options turns the shared drawable fields into drawable options.
func (b *builder) options(spec DrawableSpec) ([]drawable.DrawableBuilderOption, error) {
	if spec.Name == "" {
		return nil, errors.New("entry has no name")
	}

	placement := placementMatrix(spec)
	opts := []drawable.DrawableBuilderOption{drawable.WithWorldMatrix(placement)}

	if c := spec.Color; c != nil {
		opts = append(opts, drawable.WithOutputColor(mgl32.Vec4{c[0], c[1], c[2], c[3]}))
	}
	if spec.Enabled != nil {
		opts = append(opts, drawable.WithEnabled(*spec.Enabled))
	}
	if spec.Motion != nil {
		m, err := buildMotion(*spec.Motion, placement)
		if err != nil {
			return nil, err
		}
		opts = append(opts, drawable.WithMotion(m))
	}

	if spec.Texture != "" || spec.NormalMap != "" {
		matOpts := []material.MaterialBuilderOption{material.WithName(spec.Name)}
		if spec.Texture != "" {
			matOpts = append(matOpts, material.WithDiffuseTexturePath(b.resolve(spec.Texture)))
		}
		if spec.NormalMap != "" {
			matOpts = append(matOpts, material.WithNormalTexturePath(b.resolve(spec.NormalMap)))
		}
		mat := material.NewMaterial(matOpts...)
		b.materials = append(b.materials, mat)
		opts = append(opts, drawable.WithMaterial(mat))
	}
	return opts, nil
}

// collect queues the imported materials of a drawable for decoding.
func (b *builder) collect(d drawable.Drawable) {
	b.materials = append(b.materials, d.Materials()...)
}

func (b *builder) addRenderable(spec DrawableSpec) error {
	mesh, err := b.mesh(spec.Mesh, false)
	if err != nil {
		return err
	}
	opts, err := b.options(spec)
	if err != nil {
		return err
	}
	r := drawable.NewRenderable(spec.Name, mesh, opts...)
	b.collect(r)
	return b.s.AddRenderable(spec.Name, r)
}

func (b *builder) addVoxelBatch(spec VoxelBatchSpec) error {
	var instances []mgl32.Mat4
	if g := spec.Grid; g != nil {
		if g.Width < 1 || g.Height < 1 || g.Depth < 1 {
			return fmt.Errorf("grid %dx%dx%d has an empty dimension", g.Width, g.Height, g.Depth)
		}
		instances = append(instances, drawable.GridInstances(g.Width, g.Height, g.Depth, g.Spacing)...)
	}
	for _, p := range spec.Instances {
		instances = append(instances, mgl32.Translate3D(p[0], p[1], p[2]))
	}
	if len(instances) == 0 {
		return errors.New("voxel batch has no instances")
	}

	mesh, err := b.mesh(spec.Mesh, false)
	if err != nil {
		return err
	}
	opts, err := b.options(spec.DrawableSpec)
	if err != nil {
		return err
	}
	vb := drawable.NewVoxelBatch(spec.Name, mesh, instances, opts...)
	b.collect(vb)
	return b.s.AddVoxelBatch(spec.Name, vb)
}

func (b *builder) addModel(spec ModelSpec) error {
	mesh, err := b.mesh(spec.Mesh, true)
	if err != nil {
		return err
	}
	opts, err := b.options(spec.DrawableSpec)
	if err != nil {
		return err
	}

	var skel []animator.SkeletalAnimatorBuilderOption
	if spec.Animation != "" {
		clip := mesh.GetAnimationIndex(spec.Animation)
		if clip < 0 {
			return fmt.Errorf("%w: %q (have %v)", animator.ErrUnknownClip, spec.Animation, mesh.AnimationNames())
		}
		loop := true
		if spec.Loop != nil {
			loop = *spec.Loop
		}
		skel = append(skel, animator.WithAutoPlay(clip, loop))
	}
	if spec.Speed != nil {
		skel = append(skel, animator.WithPlaybackSpeed(*spec.Speed))
	}
	if len(skel) > 0 {
		opts = append(opts, drawable.WithSkeletalOptions(skel...))
	}

	m, err := drawable.NewModel(spec.Name, mesh, opts...)
	if err != nil {
		return err
	}
	b.collect(m)
	return b.s.AddModel(spec.Name, m)
}

// placementMatrix composes T * R * S from an entry's position, rotation and scale.
func placementMatrix(spec DrawableSpec) mgl32.Mat4 {
	scale := mgl32.Vec3{1, 1, 1}
	if spec.Scale != nil {
		scale = *spec.Scale
	}
	rot := spec.Rotation
	q := mgl32.AnglesToQuat(mgl32.DegToRad(rot[0]), mgl32.DegToRad(rot[1]), mgl32.DegToRad(rot[2]), mgl32.XYZ)
	return model.Transform{
		Translation: spec.Position,
		Rotation:    q,
		Scale:       scale,
	}.Matrix()
}

// buildMotion maps a motion entry onto its animator constructor. The placement is kept for
// motions that build their world matrix from scratch.
func buildMotion(spec MotionSpec, placement mgl32.Mat4) (animator.Motion, error) {
	mt, ok := animator.ParseMotionType(spec.Type)
	if !ok {
		return nil, fmt.Errorf("unknown motion type %q", spec.Type)
	}
	opts := []animator.MotionBuilderOption{animator.WithPlacement(placement)}
	if spec.Radius != nil {
		opts = append(opts, animator.WithRadius(*spec.Radius))
	}
	if spec.Rate != nil {
		opts = append(opts, animator.WithSpinRate(*spec.Rate))
	}
	if spec.TimeScale != nil {
		opts = append(opts, animator.WithTimeScale(*spec.TimeScale))
	}
	return animator.NewMotion(mt, opts...), nil
}
