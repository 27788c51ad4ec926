package shader

// ShaderBuilderOption is a functional option for configuring a Shader via NewShader.
type ShaderBuilderOption func(*shader)

// WithSourceFromPath is an option builder that reads the WGSL source from a file.
// Shaders created this way can be hot reloaded.
//
// Parameters:
//   - path: the path of the .wgsl file
//
// Returns:
//   - ShaderBuilderOption: a function that applies the source path option to a shader
func WithSourceFromPath(path string) ShaderBuilderOption {
	return func(s *shader) {
		s.path = path
	}
}

// WithSource is an option builder that supplies the WGSL source inline.
//
// Parameters:
//   - source: the WGSL source code
//
// Returns:
//   - ShaderBuilderOption: a function that applies the source option to a shader
func WithSource(source string) ShaderBuilderOption {
	return func(s *shader) {
		s.rawSource = source
	}
}

// WithEntryPoint is an option builder that names the entry point explicitly instead of
// taking the first @vertex or @fragment function in the source.
//
// Parameters:
//   - entryPoint: the entry point function name
//
// Returns:
//   - ShaderBuilderOption: a function that applies the entry point option to a shader
func WithEntryPoint(entryPoint string) ShaderBuilderOption {
	return func(s *shader) {
		s.entryPoint = entryPoint
	}
}
