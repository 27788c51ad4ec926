package shader

// typeLayout is the host-shareable size and alignment of a WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

// structField is one member of a WGSL struct; location is -1 without an @location attribute.
type structField struct {
	name     string
	typ      string
	location int
	builtin  bool
}

// structDecl is a WGSL struct declaration.
type structDecl struct {
	name   string
	fields []structField
}

// isVertexInput reports whether the struct feeds a vertex buffer: at least one @location member
// and no @builtin member, which rules out stage outputs.
func (s structDecl) isVertexInput() bool {
	located := false
	for _, f := range s.fields {
		if f.builtin {
			return false
		}
		located = located || f.location >= 0
	}
	return located
}
