// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader source for
// //@oxy:include lines and replaces each one with the canonical WGSL for the named engine type,
// so shaders never restate struct layouts that the Go side marshals byte for byte.
//
// Uniform includes also emit the @group(0) @binding(N) declaration at the engine's fixed slot,
// and texture includes emit the texture and sampler pair.
package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/light"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
)

// Include names accepted by //@oxy:include.
const (
	IncludeCamera     = "camera"
	IncludeProjection = "projection"
	IncludeObject     = "object"
	IncludeLights     = "lights"
	IncludeSkinning   = "skinning"
	IncludeDiffuse    = "diffuse"
	IncludeNormalMap  = "normal_map"
	IncludeVertex     = "vertex"
	IncludeNormalData = "normal_data"
	IncludeInstance   = "instance"
	IncludeSkin       = "skin"
)

var (
	// includeRegex matches a whole include line: //@oxy:include name
	includeRegex = regexp.MustCompile(`^\s*//\s*@oxy:include\s+(\w+)\s*$`)

	// directiveRegex matches any line carrying an @oxy: directive
	directiveRegex = regexp.MustCompile(`^\s*//\s*@oxy:(\w*)`)
)

// includeEntry is the WGSL emitted for one include name.
type includeEntry struct {
	// source is the struct definition, empty for texture includes.
	source string

	// decls are the resource declarations emitted after the struct.
	decls []string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	registry map[string]includeEntry
	includes []string
}

// PreProcessor expands //@oxy:include directives in WGSL source.
type PreProcessor interface {
	// Process replaces every include line with the WGSL for the named type. A name included more
	// than once is emitted only the first time. Any other //@oxy: directive is an error.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error naming the line of an unknown include or directive
	Process(source string) (string, error)

	// Includes returns the include names expanded by the most recent Process call,
	// in first-use order.
	//
	// Returns:
	//   - []string: the include names
	Includes() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with every engine include registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		registry: map[string]includeEntry{
			IncludeCamera: {
				source: camera.GPUCameraUniformSource,
				decls:  []string{uniformDecl(SlotCamera, "camera", "CameraUniform")},
			},
			IncludeProjection: {
				source: camera.GPUProjectionUniformSource,
				decls:  []string{uniformDecl(SlotProjection, "projection", "ProjectionUniform")},
			},
			IncludeObject: {
				source: model.GPUObjectUniformSource,
				decls:  []string{uniformDecl(SlotObject, "objectData", "ObjectUniform")},
			},
			IncludeLights: {
				source: light.GPULightsUniformSource,
				decls:  []string{uniformDecl(SlotLights, "lights", "LightsUniform")},
			},
			IncludeSkinning: {
				source: model.GPUSkinningUniformSource,
				decls:  []string{uniformDecl(SlotSkinning, "skinning", "SkinningUniform")},
			},
			IncludeDiffuse: {
				decls: textureDecls(SlotDiffuseTexture, SlotDiffuseSampler, "diffuse"),
			},
			IncludeNormalMap: {
				decls: textureDecls(SlotNormalTexture, SlotNormalSampler, "normal"),
			},
			IncludeVertex:     {source: model.GPUVertexSource},
			IncludeNormalData: {source: model.GPUNormalDataSource},
			IncludeInstance:   {source: model.GPUInstanceSource},
			IncludeSkin:       {source: model.GPUSkinSource},
		},
	}
}

// IncludeNames lists every name accepted by //@oxy:include, sorted.
//
// Returns:
//   - []string: the include names
func IncludeNames() []string {
	pp := NewPreProcessor().(*preProcessor)
	names := make([]string, 0, len(pp.registry))
	for name := range pp.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *preProcessor) Process(source string) (string, error) {
	p.includes = p.includes[:0]
	seen := make(map[string]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		m := includeRegex.FindStringSubmatch(line)
		if m == nil {
			if d := directiveRegex.FindStringSubmatch(line); d != nil {
				return "", fmt.Errorf("line %d: unknown directive @oxy:%s", i+1, d[1])
			}
			out = append(out, line)
			continue
		}

		name := m[1]
		entry, ok := p.registry[name]
		if !ok {
			return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		p.includes = append(p.includes, name)

		if entry.source != "" {
			out = append(out, strings.TrimRight(entry.source, "\n"))
		}
		out = append(out, entry.decls...)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Includes() []string {
	return append([]string(nil), p.includes...)
}

func uniformDecl(slot uint32, name, typeName string) string {
	return fmt.Sprintf("@group(0) @binding(%d) var<uniform> %s: %s;", slot, name, typeName)
}

func textureDecls(textureSlot, samplerSlot uint32, prefix string) []string {
	return []string{
		fmt.Sprintf("@group(0) @binding(%d) var %sTexture: texture_2d<f32>;", textureSlot, prefix),
		fmt.Sprintf("@group(0) @binding(%d) var %sSampler: sampler;", samplerSlot, prefix),
	}
}
