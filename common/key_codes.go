package common

import "strings"

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87  // W key (ASCII)
	KeyA     = 65  // A key (ASCII)
	KeyS     = 83  // S key (ASCII)
	KeyD     = 68  // D key (ASCII)
	KeyQ     = 81  // Q key (ASCII)
	KeyE     = 69  // E key (ASCII)
	KeyC     = 67  // C key (ASCII)
	KeyR     = 82  // R key (ASCII)
	KeyF     = 70  // F key (ASCII)
	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)

	KeyUp    = 265 // Up arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyRight = 262 // Right arrow (GLFW)
)

// Additional non-printable keys
const (
	KeyLeftShift    = 340 // Left Shift (GLFW)
	KeyLeftControl  = 341 // Left Control (GLFW)
	KeyRightShift   = 344 // Right Shift (GLFW)
	KeyRightControl = 345 // Right Control (GLFW)
)

// keyNames maps the lower-case names accepted in configuration files to key codes.
var keyNames = map[string]uint32{
	"w":             KeyW,
	"a":             KeyA,
	"s":             KeyS,
	"d":             KeyD,
	"q":             KeyQ,
	"e":             KeyE,
	"c":             KeyC,
	"r":             KeyR,
	"f":             KeyF,
	"space":         KeySpace,
	"escape":        KeyEsc,
	"up":            KeyUp,
	"down":          KeyDown,
	"left":          KeyLeft,
	"right":         KeyRight,
	"left_shift":    KeyLeftShift,
	"left_control":  KeyLeftControl,
	"right_shift":   KeyRightShift,
	"right_control": KeyRightControl,
}

// KeyCodeByName resolves a configuration key name (case-insensitive) to its key code.
//
// Parameters:
//   - name: the key name, e.g. "w" or "left_shift"
//
// Returns:
//   - uint32: the key code
//   - bool: false if the name is unknown
func KeyCodeByName(name string) (uint32, bool) {
	code, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}
