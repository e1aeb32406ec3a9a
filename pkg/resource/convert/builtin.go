package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"unicode/utf8"

	// Registered image formats for sprite decoding.
	_ "image/jpeg"
	_ "image/png"

	"gopkg.in/yaml.v3"

	"github.com/assetflow/assetflow/pkg/resource"
)

// Builtin type descriptors.
const (
	TypeBytes     resource.Type = "bytes"
	TypeText      resource.Type = "text"
	TypeJSON      resource.Type = "json"
	TypeYAML      resource.Type = "yaml"
	TypeSprite    resource.Type = "sprite"
	TypeDirectory resource.Type = "directory"
)

// BytesConverter passes raw bytes through unchanged. The logical path is
// probed as-is, without an extension hint.
type BytesConverter struct{}

func (*BytesConverter) Type() resource.Type { return TypeBytes }

func (*BytesConverter) Representations() []Representation {
	return []Representation{{Ext: ""}}
}

func (*BytesConverter) Convert(path string, data []byte) (any, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// TextConverter produces a UTF-8 string payload.
type TextConverter struct{}

func (*TextConverter) Type() resource.Type { return TypeText }

func (*TextConverter) Representations() []Representation {
	return []Representation{{Ext: ".txt"}, {Ext: ""}}
}

func (*TextConverter) Convert(path string, data []byte) (any, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: not valid UTF-8 text", path)
	}
	return string(data), nil
}

// JSONConverter produces a decoded JSON document (map, slice, or scalar).
type JSONConverter struct{}

func (*JSONConverter) Type() resource.Type { return TypeJSON }

func (*JSONConverter) Representations() []Representation {
	return []Representation{{Ext: ".json"}}
}

func (*JSONConverter) Convert(path string, data []byte) (any, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode json: %w", path, err)
	}
	return doc, nil
}

// YAMLConverter produces a decoded YAML document.
type YAMLConverter struct{}

func (*YAMLConverter) Type() resource.Type { return TypeYAML }

func (*YAMLConverter) Representations() []Representation {
	return []Representation{{Ext: ".yaml"}, {Ext: ".yml"}}
}

func (*YAMLConverter) Convert(path string, data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: decode yaml: %w", path, err)
	}
	return doc, nil
}

// Sprite is a decoded 2D image payload.
type Sprite struct {
	Image  image.Image
	Format string // "png" or "jpeg"
}

// SpriteConverter decodes PNG and JPEG images. Representations are probed in
// declared order, so "Sprites/Image01" resolves to "Sprites/Image01.png"
// before "Sprites/Image01.jpg".
type SpriteConverter struct{}

func (*SpriteConverter) Type() resource.Type { return TypeSprite }

func (*SpriteConverter) Representations() []Representation {
	return []Representation{
		{Ext: ".png", ExportFormat: "png"},
		{Ext: ".jpg", ExportFormat: "jpeg"},
	}
}

func (*SpriteConverter) Convert(path string, data []byte) (any, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: decode image: %w", path, err)
	}
	return &Sprite{Image: img, Format: format}, nil
}

// ConvertNative accepts an already-decoded image produced by a
// type-specialized transport.
func (*SpriteConverter) ConvertNative(path string, native any) (any, error) {
	switch v := native.(type) {
	case *Sprite:
		return v, nil
	case image.Image:
		return &Sprite{Image: v}, nil
	default:
		return nil, fmt.Errorf("%s: unsupported native sprite object %T", path, native)
	}
}

// Directory is the payload of a directory pseudo-resource.
type Directory struct {
	Path string
}

// DirectoryConverter synthesizes directory handles without any bytes.
type DirectoryConverter struct{}

func (*DirectoryConverter) Type() resource.Type { return TypeDirectory }

func (*DirectoryConverter) Representations() []Representation { return nil }

func (*DirectoryConverter) Convert(path string, data []byte) (any, error) {
	return nil, fmt.Errorf("%s: directory resources carry no bytes", path)
}

// Synthesize produces the directory handle from the path alone.
func (*DirectoryConverter) Synthesize(path string) (any, error) {
	return &Directory{Path: path}, nil
}

// Capability assertions.
var (
	_ NativeConverter = (*SpriteConverter)(nil)
	_ Synthesizer     = (*DirectoryConverter)(nil)
)
