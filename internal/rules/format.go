package rules

import (
	"fmt"
	"strings"
)

// Format is a texconv output pixel format identifier
type Format string

// Block-compressed formats
const (
	BC1Unorm     Format = "BC1_UNORM"
	BC1UnormSRGB Format = "BC1_UNORM_SRGB"
	BC2Unorm     Format = "BC2_UNORM"
	BC2UnormSRGB Format = "BC2_UNORM_SRGB"
	BC3Unorm     Format = "BC3_UNORM"
	BC3UnormSRGB Format = "BC3_UNORM_SRGB"
	BC3n         Format = "BC3n"
	BC4Unorm     Format = "BC4_UNORM"
	BC4Snorm     Format = "BC4_SNORM"
	BC5Unorm     Format = "BC5_UNORM"
	BC5Snorm     Format = "BC5_SNORM"
	BC6HUF16     Format = "BC6H_UF16"
	BC6HSF16     Format = "BC6H_SF16"
	BC7Unorm     Format = "BC7_UNORM"
	BC7UnormSRGB Format = "BC7_UNORM_SRGB"
)

// Uncompressed formats
const (
	R8G8B8A8Unorm     Format = "R8G8B8A8_UNORM"
	R8G8B8A8UnormSRGB Format = "R8G8B8A8_UNORM_SRGB"
	B8G8R8A8Unorm     Format = "B8G8R8A8_UNORM"
	R8Unorm           Format = "R8_UNORM"
	R8G8Unorm         Format = "R8G8_UNORM"
	R16G16B16A16Unorm Format = "R16G16B16A16_UNORM"
	R16G16B16A16Float Format = "R16G16B16A16_FLOAT"
	R32G32B32A32Float Format = "R32G32B32A32_FLOAT"
)

// DefaultFormat is used by the built-in Default profile
const DefaultFormat = BC7Unorm

var allFormats = []Format{
	BC1Unorm, BC1UnormSRGB,
	BC2Unorm, BC2UnormSRGB,
	BC3Unorm, BC3UnormSRGB, BC3n,
	BC4Unorm, BC4Snorm,
	BC5Unorm, BC5Snorm,
	BC6HUF16, BC6HSF16,
	BC7Unorm, BC7UnormSRGB,
	R8G8B8A8Unorm, R8G8B8A8UnormSRGB, B8G8R8A8Unorm,
	R8Unorm, R8G8Unorm,
	R16G16B16A16Unorm, R16G16B16A16Float,
	R32G32B32A32Float,
}

var formatsByKey = func() map[string]Format {
	m := make(map[string]Format, len(allFormats))
	for _, f := range allFormats {
		m[strings.ToUpper(string(f))] = f
	}
	return m
}()

// Formats returns every supported format in display order
func Formats() []Format {
	out := make([]Format, len(allFormats))
	copy(out, allFormats)
	return out
}

// ParseFormat returns the canonical format for a case-insensitive name
func ParseFormat(name string) (Format, error) {
	f, ok := formatsByKey[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// Valid reports whether f is one of the supported formats
func (f Format) Valid() bool {
	canonical, ok := formatsByKey[strings.ToUpper(string(f))]
	return ok && canonical == f
}

// Compressed reports whether f is a block-compressed format
func (f Format) Compressed() bool {
	return strings.HasPrefix(strings.ToUpper(string(f)), "BC")
}

func (f Format) String() string {
	return string(f)
}
