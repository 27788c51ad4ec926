package material

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend/backendtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: 255, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUntexturedMaterial(t *testing.T) {
	m := NewMaterial(WithName("plain"), WithBaseColor([4]float32{1, 0, 0, 1}))
	assert.False(t, m.Textured())
	assert.False(t, m.HasNormalMap())

	dev := backendtest.New()
	require.NoError(t, m.Initialize(dev))
	assert.Zero(t, dev.Count("CreateTexture"))
	assert.False(t, m.DiffuseHandle().Valid())
}

func TestMaterialUploadsDecodedTextures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normal.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 2, 2), 0o644))

	m := NewMaterial(
		WithName("brick"),
		WithDiffuseTexture(&common.ImportedTexture{Name: "brick_diffuse", Data: encodePNG(t, 4, 2)}),
		WithNormalTexturePath(path),
	)
	assert.True(t, m.Textured())
	assert.True(t, m.HasNormalMap())

	require.NoError(t, m.Decode())
	assert.Equal(t, 4, m.DiffuseTexture().Width)

	dev := backendtest.New()
	require.NoError(t, m.Initialize(dev))
	require.True(t, m.DiffuseHandle().Valid())
	require.True(t, m.NormalHandle().Valid())

	diffuse := dev.Textures[m.DiffuseHandle()]
	assert.Equal(t, uint32(4), diffuse.Width)
	assert.Equal(t, uint32(2), diffuse.Height)
	assert.Len(t, diffuse.Pixels, 4*2*4)

	// a second Initialize keeps the existing textures
	require.NoError(t, m.Initialize(dev))
	assert.Equal(t, 2, dev.Count("CreateTexture"))

	m.Release(dev)
	assert.Empty(t, dev.Textures)
	assert.False(t, m.DiffuseHandle().Valid())
}

func TestMaterialErrors(t *testing.T) {
	missing := NewMaterial(WithName("missing"), WithDiffuseTexturePath(filepath.Join(t.TempDir(), "nope.png")))
	err := missing.Decode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "material missing")

	dev := backendtest.New()
	boom := errors.New("out of memory")
	dev.Fail("CreateTexture", boom)
	m := NewMaterial(WithTextureData(&common.TextureStagingData{Label: "gen", Pixels: make([]byte, 4), Width: 1, Height: 1}))
	assert.ErrorIs(t, m.Initialize(dev), boom)
	assert.False(t, m.DiffuseHandle().Valid())
}

func TestFromImported(t *testing.T) {
	tex := &common.ImportedTexture{Name: "d", Data: encodePNG(t, 1, 1)}
	m := FromImported(common.ImportedMaterial{Name: "imported", BaseColor: [4]float32{0.5, 0.5, 0.5, 1}, DiffuseTexture: tex})
	assert.Equal(t, "imported", m.Name())
	assert.Equal(t, [4]float32{0.5, 0.5, 0.5, 1}, m.BaseColor())
	assert.Same(t, tex, m.DiffuseTexture())
	assert.False(t, m.HasNormalMap())
}
