package loader

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
	report diagnosticFunc
}

// gltfAnimationExtractor defines the interface for extracting animation clips from a parsed
// glTF document. Channels keep addressing glTF node indices, which are also scene node indices.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index. Unreadable samplers are left
	// empty and channels with unknown paths or targets are dropped; both are reported.
	//
	// Parameters:
	//   - animIndex: the index of the animation to extract
	//
	// Returns:
	//   - scene.Animation: the extracted animation
	//   - error: error if the index is out of range
	ExtractAnimation(animIndex int) (scene.Animation, error)

	// ExtractAllAnimations extracts all animations from the document.
	//
	// Returns:
	//   - []scene.Animation: all animations in document order
	ExtractAllAnimations() []scene.Animation
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - report: receives per-animation diagnostics
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser, report diagnosticFunc) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser, report: report}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int) (scene.Animation, error) {
	doc := e.parser.Document()
	if !common.InRange(animIndex, len(doc.Animations)) {
		return scene.Animation{}, fmt.Errorf("animation index %d out of range", animIndex)
	}

	ga := &doc.Animations[animIndex]
	name := ga.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}
	subject := fmt.Sprintf("animation %d", animIndex)

	result := scene.Animation{
		Name:     name,
		Samplers: make([]scene.AnimationSampler, len(ga.Samplers)),
		Channels: make([]scene.AnimationChannel, 0, len(ga.Channels)),
	}

	start, end := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for i := range ga.Samplers {
		smp, err := e.extractSampler(&ga.Samplers[i], fmt.Sprintf("%s sampler %d", subject, i))
		if err != nil {
			e.report(scene.SeverityError, subject, "sampler %d ignored: %v", i, err)
			continue
		}
		for _, t := range smp.Inputs {
			start, end = min(start, t), max(end, t)
		}
		result.Samplers[i] = smp
	}
	if start <= end {
		result.Start, result.End = start, end
	}

	for i := range ga.Channels {
		ch := &ga.Channels[i]

		// Channels without a target node animate nothing this loader tracks.
		if ch.Target.Node == nil {
			continue
		}
		path, ok := scene.ParsePath(ch.Target.Path)
		if !ok {
			e.report(scene.SeverityWarning, subject, "channel %d: unknown path %q", i, ch.Target.Path)
			continue
		}
		if !common.InRange(*ch.Target.Node, len(doc.Nodes)) {
			e.report(scene.SeverityWarning, subject, "channel %d: node %d out of range", i, *ch.Target.Node)
			continue
		}
		if !common.InRange(ch.Sampler, len(ga.Samplers)) {
			e.report(scene.SeverityWarning, subject, "channel %d: sampler %d out of range", i, ch.Sampler)
			continue
		}
		result.Channels = append(result.Channels, scene.AnimationChannel{
			Path:    path,
			Node:    *ch.Target.Node,
			Sampler: ch.Sampler,
		})
	}

	return result, nil
}

func (e *gltfAnimationExtractorImpl) extractSampler(gs *gltfAnimSampler, subject string) (scene.AnimationSampler, error) {
	interp := scene.InterpolationLinear
	if gs.Interpolation != "" {
		var ok bool
		if interp, ok = scene.ParseInterpolation(gs.Interpolation); !ok {
			e.report(scene.SeverityWarning, subject, "unknown interpolation %q, using LINEAR", gs.Interpolation)
		}
	}

	inputs, comps, err := e.parser.ReadFloats(gs.Input, false)
	if err != nil {
		return scene.AnimationSampler{}, fmt.Errorf("failed to read input: %w", err)
	}
	if comps != 1 {
		return scene.AnimationSampler{}, fmt.Errorf("input has %d components: %w", comps, ErrUnsupportedComponentType)
	}

	values, comps, err := e.parser.ReadFloats(gs.Output, true)
	if err != nil {
		return scene.AnimationSampler{}, fmt.Errorf("failed to read output: %w", err)
	}
	if comps < 1 || comps > 4 {
		return scene.AnimationSampler{}, fmt.Errorf("output has %d components: %w", comps, ErrUnsupportedComponentType)
	}

	outputs := make([]mgl32.Vec4, len(values)/comps)
	for i := range outputs {
		copy(outputs[i][:], values[i*comps:(i+1)*comps])
	}

	return scene.AnimationSampler{Interpolation: interp, Inputs: inputs, Outputs: outputs}, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations() []scene.Animation {
	doc := e.parser.Document()
	result := make([]scene.Animation, 0, len(doc.Animations))
	for i := range doc.Animations {
		anim, _ := e.ExtractAnimation(i)
		result = append(result, anim)
	}
	return result
}
