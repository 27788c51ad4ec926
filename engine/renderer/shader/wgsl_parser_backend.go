package shader

import (
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
)

// vertexFormats lists the 1 to 4 component vertex formats of each 32-bit scalar type.
var vertexFormats = map[string][4]backend.VertexFormat{
	"f32": {backend.VertexFormatFloat32, backend.VertexFormatFloat32x2, backend.VertexFormatFloat32x3, backend.VertexFormatFloat32x4},
	"u32": {backend.VertexFormatUint32, backend.VertexFormatUint32x2, backend.VertexFormatUint32x3, backend.VertexFormatUint32x4},
	"i32": {backend.VertexFormatSint32, backend.VertexFormatSint32x2, backend.VertexFormatSint32x3, backend.VertexFormatSint32x4},
}

// shorthandScalars maps the vecNx / matCxRx alias suffixes to their scalar type.
var shorthandScalars = map[byte]string{'f': "f32", 'i': "i32", 'u': "u32", 'h': "f16"}

// canonicalType drops whitespace and expands aliases like vec3f and mat4x4f to vec3<f32> and
// mat4x4<f32>.
//
// Parameters:
//   - typ: a WGSL type as written in source
//
// Returns:
//   - string: the canonical spelling
func canonicalType(typ string) string {
	typ = strings.Join(strings.Fields(typ), "")
	if strings.Contains(typ, "<") || (!strings.HasPrefix(typ, "vec") && !strings.HasPrefix(typ, "mat")) {
		return typ
	}
	if scalar, ok := shorthandScalars[typ[len(typ)-1]]; ok {
		return typ[:len(typ)-1] + "<" + scalar + ">"
	}
	return typ
}

// vectorDims parses the N of vecN, returning false outside 2..4.
func vectorDims(base string) (int, bool) {
	if len(base) != 4 || !strings.HasPrefix(base, "vec") {
		return 0, false
	}
	n := int(base[3] - '0')
	return n, n >= 2 && n <= 4
}

// matrixDims parses the columns and rows of matCxR, returning false outside 2..4.
func matrixDims(base string) (int, int, bool) {
	if len(base) != 6 || !strings.HasPrefix(base, "mat") || base[4] != 'x' {
		return 0, 0, false
	}
	cols, rows := int(base[3]-'0'), int(base[5]-'0')
	return cols, rows, cols >= 2 && cols <= 4 && rows >= 2 && rows <= 4
}

func vectorLayout(n int, scalar typeLayout) typeLayout {
	size := uint64(n) * scalar.size
	if n == 3 {
		return typeLayout{size: size, align: 4 * scalar.size}
	}
	return typeLayout{size: size, align: size}
}

// primitiveLayout returns the layout of a scalar, vector or matrix type.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
//
// Parameters:
//   - typ: the WGSL type
//
// Returns:
//   - typeLayout: the size and alignment
//   - bool: false if typ is not a primitive
func primitiveLayout(typ string) (typeLayout, bool) {
	typ = canonicalType(typ)
	switch typ {
	case "f32", "i32", "u32", "bool":
		return typeLayout{size: 4, align: 4}, true
	case "f16":
		return typeLayout{size: 2, align: 2}, true
	}

	base, param := splitTypeParams(typ)
	if param == "" || strings.ContainsAny(param, "<,") {
		return typeLayout{}, false
	}
	scalar, ok := primitiveLayout(param)
	if !ok {
		return typeLayout{}, false
	}
	if n, ok := vectorDims(base); ok {
		return vectorLayout(n, scalar), true
	}
	if cols, rows, ok := matrixDims(base); ok {
		column := vectorLayout(rows, scalar)
		return typeLayout{size: uint64(cols) * roundUpAlign(column.align, column.size), align: column.align}, true
	}
	return typeLayout{}, false
}

// vertexFormat maps a vertex input member type to its vertex format.
//
// Parameters:
//   - typ: the WGSL member type
//
// Returns:
//   - backend.VertexFormat: the format
//   - bool: false for types a vertex buffer cannot carry
func vertexFormat(typ string) (backend.VertexFormat, bool) {
	typ = canonicalType(typ)
	n, scalar := 1, typ
	if base, param := splitTypeParams(typ); param != "" {
		var ok bool
		if n, ok = vectorDims(base); !ok {
			return 0, false
		}
		scalar = param
	}
	formats, ok := vertexFormats[scalar]
	if !ok {
		return 0, false
	}
	return formats[n-1], true
}

// arrayParams splits array<T, N> into T and N. Runtime-sized arrays report N = 0.
func arrayParams(typ string) (string, uint64, bool) {
	typ = canonicalType(typ)
	inner, ok := strings.CutPrefix(typ, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return "", 0, false
	}
	parts := splitAtTopLevelCommas(inner[:len(inner)-1])
	if len(parts) == 1 {
		return parts[0], 0, true
	}
	n, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || n == 0 {
		return "", 0, false
	}
	return parts[0], n, true
}

func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves primitives, structs already laid out and arrays of either.
// A runtime-sized array counts as one element, the smallest buffer it can be bound to.
//
// Parameters:
//   - typ: the WGSL type, e.g. "f32", "CameraUniform", "array<vec4<f32>, 2>"
//   - structs: layouts of the structs resolved so far
//
// Returns:
//   - typeLayout: the layout
//   - bool: false for unknown types
func resolveTypeLayout(typ string, structs map[string]typeLayout) (typeLayout, bool) {
	if l, ok := primitiveLayout(typ); ok {
		return l, true
	}
	if l, ok := structs[strings.TrimSpace(typ)]; ok {
		return l, true
	}

	elem, count, ok := arrayParams(typ)
	if !ok {
		return typeLayout{}, false
	}
	el, ok := resolveTypeLayout(elem, structs)
	if !ok {
		return typeLayout{}, false
	}
	stride := roundUpAlign(el.align, el.size)
	return typeLayout{size: max(count, 1) * stride, align: el.align}, true
}

// structLayout places each non-builtin member at its next aligned offset and rounds the total
// up to the widest member alignment.
func structLayout(s structDecl, structs map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range s.fields {
		if f.builtin {
			continue
		}
		fl, ok := resolveTypeLayout(f.typ, structs)
		if !ok {
			return typeLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset) + fl.size
		align = max(align, fl.align)
	}
	return typeLayout{size: roundUpAlign(align, offset), align: align}, true
}

// structLayouts lays out every struct, repeating passes until structs nested in other structs
// are all resolved. Structs with unknown member types are left out.
//
// Parameters:
//   - decls: the struct declarations of a module
//
// Returns:
//   - map[string]typeLayout: layouts by struct name
func structLayouts(decls []structDecl) map[string]typeLayout {
	resolved := make(map[string]typeLayout, len(decls))
	pending := decls
	for len(pending) > 0 {
		var next []structDecl
		for _, s := range pending {
			if l, ok := structLayout(s, resolved); ok {
				resolved[s.name] = l
			} else {
				next = append(next, s)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return resolved
}

// classifyResource maps a resource declaration to the binding kind the engine binds it as.
//
// Parameters:
//   - addressSpace: the var<...> qualifier, e.g. "uniform" or "storage, read"; empty for handles
//   - typ: the declared type, e.g. "texture_2d<f32>" or "sampler"
//
// Returns:
//   - backend.BindingKind: the kind
//   - bool: false for resources the engine cannot bind
func classifyResource(addressSpace, typ string) (backend.BindingKind, bool) {
	switch {
	case addressSpace == "uniform":
		return backend.BindingKindUniform, true
	case strings.HasPrefix(addressSpace, "storage"):
		return backend.BindingKindStorage, !strings.Contains(addressSpace, "read_write")
	case addressSpace != "":
		return 0, false
	case typ == "sampler":
		return backend.BindingKindSampler, true
	}
	base, param := splitTypeParams(canonicalType(typ))
	return backend.BindingKindTexture, base == "texture_2d" && (param == "" || param == "f32")
}

// splitTypeParams splits "texture_2d<f32>" into "texture_2d" and "f32". Unparameterized types
// return an empty parameter.
func splitTypeParams(typ string) (string, string) {
	base, rest, ok := strings.Cut(typ, "<")
	if !ok {
		return typ, ""
	}
	return base, strings.TrimSpace(strings.TrimSuffix(rest, ">"))
}

// stripComments blanks line and nested block comments in one pass, keeping newlines.
//
// Parameters:
//   - source: WGSL source
//
// Returns:
//   - string: source without comments
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		var next byte
		if i+1 < len(source) {
			next = source[i+1]
		}
		switch {
		case c == '/' && next == '*':
			depth++
			i++
		case c == '*' && next == '/' && depth > 0:
			depth--
			i++
		case depth > 0:
			if c == '\n' {
				sb.WriteByte(c)
			}
		case c == '/' && next == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// buildVertexBufferLayout packs the members of a vertex input struct back to back. Structs
// named with instanceStructPrefix advance per instance.
//
// Parameters:
//   - s: a vertex input struct
//
// Returns:
//   - backend.VertexBufferLayout: the layout
//   - bool: false if a member type has no vertex format
func buildVertexBufferLayout(s structDecl) (backend.VertexBufferLayout, bool) {
	layout := backend.VertexBufferLayout{StepMode: backend.VertexStepModeVertex}
	if strings.HasPrefix(s.name, instanceStructPrefix) {
		layout.StepMode = backend.VertexStepModeInstance
	}
	for _, f := range s.fields {
		format, ok := vertexFormat(f.typ)
		if !ok {
			return backend.VertexBufferLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, backend.VertexAttribute{
			Format:         format,
			Offset:         layout.ArrayStride,
			ShaderLocation: uint32(f.location),
		})
		layout.ArrayStride += format.Size()
	}
	return layout, true
}

// splitAtTopLevelCommas splits at commas outside angle brackets, so array<vec4<f32>, 2>
// stays whole. Parts are trimmed.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
