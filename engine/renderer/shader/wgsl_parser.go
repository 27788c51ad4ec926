package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
)

// instanceStructPrefix marks vertex input structs that advance once per instance instead of once per vertex.
const instanceStructPrefix = "Instance"

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniform;
	// or handle types: @group(0) @binding(5) var diffuseTexture: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseVertexLayouts extracts vertex buffer layouts from WGSL source code.
// It finds all structs that are pure vertex inputs (have @location attributes but no @builtin fields)
// and converts them into layouts in declaration order, so the Nth input struct describes the
// buffer bound at vertex slot N. Structs whose name starts with "Instance" step per instance.
// Structs containing unrecognized WGSL types are skipped.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []backend.VertexBufferLayout: vertex layouts in slot order
func parseVertexLayouts(source string) []backend.VertexBufferLayout {
	var layouts []backend.VertexBufferLayout
	for _, s := range parseStructBlocks(stripComments(source)) {
		if !s.isVertexInput() {
			continue
		}
		if layout, ok := buildVertexBufferLayout(s); ok {
			layouts = append(layouts, layout)
		}
	}
	return layouts
}

// parseBindings extracts all @group(0) @binding(N) resource declarations from WGSL source and
// returns them sorted by binding index. Declarations in other groups are returned separately so
// the caller can reject them.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []backend.Binding: the group 0 bindings sorted by slot
//   - []int: the distinct non-zero group indices that were declared
func parseBindings(source string) ([]backend.Binding, []int) {
	cleaned := stripComments(source)

	structSizes := structLayouts(parseStructBlocks(cleaned))

	var bindings []backend.Binding
	otherGroups := make(map[int]bool)
	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		slot, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		name := strings.TrimSpace(match[4])
		typeName := strings.TrimSpace(match[5])

		if group != 0 {
			otherGroups[group] = true
			continue
		}

		kind, ok := classifyResource(addressSpace, typeName)
		if !ok {
			continue
		}
		b := backend.Binding{
			Slot: uint32(slot),
			Kind: kind,
			Name: name,
		}
		if kind == backend.BindingKindUniform || kind == backend.BindingKindStorage {
			if layout, ok := resolveTypeLayout(typeName, structSizes); ok {
				b.MinSize = layout.size
			}
		}
		bindings = append(bindings, b)
	}

	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Slot < bindings[j].Slot
	})

	groups := make([]int, 0, len(otherGroups))
	for g := range otherGroups {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	return bindings, groups
}

// parseEntryPoint extracts the entry point function name for the given shader type
// from WGSL source. Returns an empty string if no matching entry point annotation is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - shaderType: the shader type to search for
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, shaderType ShaderType) string {
	re := vertexEntryRegex
	if shaderType == ShaderTypePixel {
		re = fragmentEntryRegex
	}

	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []structDecl: all struct blocks found in the source
func parseStructBlocks(source string) []structDecl {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]structDecl, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, structDecl{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}

	return structs
}

// parseStructFields parses the body of a struct block into individual fields,
// extracting @location and @builtin attributes along with the field name and type
//
// Parameters:
//   - body: the content between { and } of a struct declaration
//
// Returns:
//   - []structField: all fields found in the struct body
func parseStructFields(body string) []structField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]structField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field := structField{
			name:     fm[1],
			typ:      strings.TrimSpace(fm[2]),
			location: -1,
			builtin:  builtinRegex.MatchString(line),
		}
		if loc := locationRegex.FindStringSubmatch(line); loc != nil {
			field.location, _ = strconv.Atoi(loc[1])
		}
		fields = append(fields, field)
	}

	return fields
}
