package loader

import "strings"

// LoadFlags is a bitmask of optional post-processing steps applied while building a scene.
type LoadFlags uint32

const (
	// PreTransformVertices bakes each node's world matrix into its vertices.
	PreTransformVertices LoadFlags = 1 << iota
	// PreMultiplyVertexColors multiplies vertex colors by the primitive's base color factor.
	PreMultiplyVertexColors
	// FlipY negates the Y component of positions, normals and tangents.
	FlipY
	// DontLoadImages skips image decoding and texture uploads.
	DontLoadImages
)

// Has reports whether every bit of f is set.
func (l LoadFlags) Has(f LoadFlags) bool {
	return l&f == f
}

func (l LoadFlags) String() string {
	if l == 0 {
		return "none"
	}
	var names []string
	for _, f := range []struct {
		flag LoadFlags
		name string
	}{
		{PreTransformVertices, "pre-transform-vertices"},
		{PreMultiplyVertexColors, "pre-multiply-vertex-colors"},
		{FlipY, "flip-y"},
		{DontLoadImages, "dont-load-images"},
	} {
		if l.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}
