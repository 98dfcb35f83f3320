package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// Interpolation is the keyframe interpolation of an animation sampler.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

// ParseInterpolation maps a glTF interpolation name to an Interpolation. An empty string is LINEAR.
//
// Parameters:
//   - s: the glTF interpolation value
//
// Returns:
//   - Interpolation: the interpolation, InterpolationLinear when unknown
//   - bool: false when s is not a known interpolation
func ParseInterpolation(s string) (Interpolation, bool) {
	switch s {
	case "", "LINEAR":
		return InterpolationLinear, true
	case "STEP":
		return InterpolationStep, true
	case "CUBICSPLINE":
		return InterpolationCubicSpline, true
	default:
		return InterpolationLinear, false
	}
}

func (i Interpolation) String() string {
	switch i {
	case InterpolationLinear:
		return "LINEAR"
	case InterpolationStep:
		return "STEP"
	case InterpolationCubicSpline:
		return "CUBICSPLINE"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
}

// Path is the node property an animation channel drives.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
	// PathWeights drives morph target weights, which are not supported; channels are kept but not applied.
	PathWeights
)

// ParsePath maps a glTF target path to a Path.
//
// Parameters:
//   - s: the glTF channel target path
//
// Returns:
//   - Path: the path
//   - bool: false when s is not a known path
func ParsePath(s string) (Path, bool) {
	switch s {
	case "translation":
		return PathTranslation, true
	case "rotation":
		return PathRotation, true
	case "scale":
		return PathScale, true
	case "weights":
		return PathWeights, true
	default:
		return PathTranslation, false
	}
}

func (p Path) String() string {
	switch p {
	case PathTranslation:
		return "translation"
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	case PathWeights:
		return "weights"
	default:
		return fmt.Sprintf("Path(%d)", int(p))
	}
}

// AnimationSampler holds keyframe times and values. Vec3 outputs are stored with w = 0.
// Cubic spline samplers store (in-tangent, value, out-tangent) per keyframe.
type AnimationSampler struct {
	Interpolation Interpolation
	Inputs        []float32
	Outputs       []mgl32.Vec4
}

// Complete reports whether the sampler holds enough outputs for its inputs.
func (s *AnimationSampler) Complete() bool {
	if s.Interpolation == InterpolationCubicSpline {
		return len(s.Outputs) >= 3*len(s.Inputs)
	}
	return len(s.Outputs) >= len(s.Inputs)
}

// AnimationChannel connects a sampler to a node property.
type AnimationChannel struct {
	Path    Path
	Node    int
	Sampler int
}

// Animation is a named set of channels. Start and End span every sampler's inputs.
type Animation struct {
	Name     string
	Samplers []AnimationSampler
	Channels []AnimationChannel
	Start    float32
	End      float32
}

// Duration returns End - Start.
func (a *Animation) Duration() float32 {
	return a.End - a.Start
}

// sample evaluates keyframe interval i at normalised time u. span is the interval length in seconds.
func (s *AnimationSampler) sample(path Path, i int, u, span float32) mgl32.Vec4 {
	switch s.Interpolation {
	case InterpolationLinear:
		a, b := s.Outputs[i], s.Outputs[i+1]
		if path == PathRotation {
			return slerp(a, b, u)
		}
		return common.MixVec4(a, b, u)
	case InterpolationStep:
		return s.Outputs[i]
	case InterpolationCubicSpline:
		v := hermite(s.Outputs[3*i+1], s.Outputs[3*i+2], s.Outputs[3*(i+1)+1], s.Outputs[3*(i+1)], u, span)
		if path == PathRotation {
			return normalizeQuat(v)
		}
		return v
	default:
		panic(fmt.Sprintf("unhandled interpolation %d", int(s.Interpolation)))
	}
}

// hermite evaluates the glTF cubic spline between v0 (out-tangent b0) and v1 (in-tangent a1).
func hermite(v0, b0, v1, a1 mgl32.Vec4, u, span float32) mgl32.Vec4 {
	u2 := u * u
	u3 := u2 * u
	return v0.Mul(2*u3 - 3*u2 + 1).
		Add(b0.Mul((u3 - 2*u2 + u) * span)).
		Add(v1.Mul(-2*u3 + 3*u2)).
		Add(a1.Mul((u3 - u2) * span))
}

func slerp(a, b mgl32.Vec4, u float32) mgl32.Vec4 {
	q1, q2 := common.QuatFromVec4(a), common.QuatFromVec4(b)
	if q1.Dot(q2) < 0 {
		q2 = q2.Scale(-1)
	}
	q := mgl32.QuatSlerp(q1, q2, u).Normalize()
	return mgl32.Vec4{q.V[0], q.V[1], q.V[2], q.W}
}

func normalizeQuat(v mgl32.Vec4) mgl32.Vec4 {
	if v.Len() == 0 {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	return v.Normalize()
}

// UpdateAnimation poses the scene at time t of an animation and rewrites every mesh uniform.
// Every keyframe interval containing t is applied. Channels whose sampler is incomplete are skipped.
//
// Parameters:
//   - index: the animation index
//   - t: the time in seconds
//
// Returns:
//   - error: ErrAnimationIndex when index is out of range, or a uniform write error
func (s *Scene) UpdateAnimation(index int, t float32) error {
	if !common.InRange(index, len(s.Animations)) {
		s.log.Warn("animation index out of range", zap.Int("index", index), zap.Int("animations", len(s.Animations)))
		return fmt.Errorf("%w: %d of %d", ErrAnimationIndex, index, len(s.Animations))
	}

	anim := &s.Animations[index]
	updated := false
	for _, ch := range anim.Channels {
		if ch.Path == PathWeights || !common.InRange(ch.Sampler, len(anim.Samplers)) || !common.InRange(ch.Node, len(s.Nodes)) {
			continue
		}
		smp := &anim.Samplers[ch.Sampler]
		if !smp.Complete() {
			continue
		}
		node := &s.Nodes[ch.Node]
		for i := 0; i+1 < len(smp.Inputs); i++ {
			t0, t1 := smp.Inputs[i], smp.Inputs[i+1]
			span := t1 - t0
			if t < t0 || t > t1 || span <= 0 {
				continue
			}
			u := max(0, t-t0) / span
			if u > 1 {
				continue
			}
			applyChannel(node, ch.Path, smp.sample(ch.Path, i, u, span))
			updated = true
		}
	}

	if updated {
		return s.Update()
	}
	return nil
}

func applyChannel(n *Node, path Path, v mgl32.Vec4) {
	switch path {
	case PathTranslation:
		n.Translation = v.Vec3()
	case PathRotation:
		n.Rotation = common.QuatFromVec4(v)
	case PathScale:
		n.Scale = v.Vec3()
	case PathWeights:
	}
}
