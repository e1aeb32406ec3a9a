package convert

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetflow/assetflow/pkg/resource"
)

// encodePNG returns a tiny valid PNG for sprite decoding tests.
func encodePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRegistryResolve(t *testing.T) {
	reg := NewDefaultRegistry()

	c, err := reg.Resolve(TypeSprite)
	require.NoError(t, err)
	assert.Equal(t, TypeSprite, c.Type())

	_, err = reg.Resolve("unregistered")
	require.Error(t, err)
	assert.True(t, errors.Is(err, resource.ErrNoConverter))
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&TextConverter{}))

	err := reg.Register(&TextConverter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryTypesSorted(t *testing.T) {
	reg := NewDefaultRegistry()
	types := reg.Types()

	require.NotEmpty(t, types)
	for i := 1; i < len(types); i++ {
		assert.Less(t, types[i-1], types[i])
	}
}

func TestSpriteRepresentationOrder(t *testing.T) {
	reps := (&SpriteConverter{}).Representations()

	require.Len(t, reps, 2)
	assert.Equal(t, ".png", reps[0].Ext)
	assert.Equal(t, ".jpg", reps[1].Ext)
}

func TestSpriteConvert(t *testing.T) {
	c := &SpriteConverter{}

	payload, err := c.Convert("Sprites/Image01", encodePNG(t))
	require.NoError(t, err)

	sprite, ok := payload.(*Sprite)
	require.True(t, ok)
	assert.Equal(t, "png", sprite.Format)
	assert.Equal(t, 2, sprite.Image.Bounds().Dx())

	_, err = c.Convert("Sprites/Broken", []byte("not an image"))
	assert.Error(t, err)
}

func TestSpriteConvertNative(t *testing.T) {
	c := &SpriteConverter{}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))

	payload, err := c.ConvertNative("Sprites/Image01", img)
	require.NoError(t, err)
	assert.NotNil(t, payload.(*Sprite).Image)

	_, err = c.ConvertNative("Sprites/Image01", 42)
	assert.Error(t, err)
}

func TestTextConvert(t *testing.T) {
	c := &TextConverter{}

	payload, err := c.Convert("Docs/readme", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", payload)

	_, err = c.Convert("Docs/binary", []byte{0xff, 0xfe, 0xfd})
	assert.Error(t, err)
}

func TestJSONConvert(t *testing.T) {
	c := &JSONConverter{}

	payload, err := c.Convert("Config/game", []byte(`{"lives": 3}`))
	require.NoError(t, err)

	doc, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, doc, "lives")

	_, err = c.Convert("Config/bad", []byte("{"))
	assert.Error(t, err)
}

func TestYAMLConvert(t *testing.T) {
	c := &YAMLConverter{}

	payload, err := c.Convert("Config/levels", []byte("name: forest\ndepth: 4\n"))
	require.NoError(t, err)

	doc, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "forest", doc["name"])
}

func TestDirectorySynthesize(t *testing.T) {
	c := &DirectoryConverter{}

	payload, err := c.Synthesize("Sprites")
	require.NoError(t, err)
	assert.Equal(t, &Directory{Path: "Sprites"}, payload)

	// Directory resources never go through the byte path.
	_, err = c.Convert("Sprites", nil)
	assert.Error(t, err)
	assert.Empty(t, c.Representations())
}

func TestBytesConvertCopies(t *testing.T) {
	c := &BytesConverter{}
	in := []byte{1, 2, 3}

	payload, err := c.Convert("Blobs/raw", in)
	require.NoError(t, err)

	out := payload.([]byte)
	assert.Equal(t, in, out)

	in[0] = 9
	assert.Equal(t, byte(1), out[0])
}
