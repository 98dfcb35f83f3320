package loader

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
	"github.com/Carmen-Shannon/oxy-gltf/engine/texture"
)

// decodedImage is the CPU result of decoding one glTF image.
type decodedImage struct {
	image texture.Image
	// ktx is set instead of image for images stored as KTX containers.
	ktx *texture.KTX
	err error
}

// gltfTextureExtractorImpl is the implementation of the gltfTextureExtractor interface.
type gltfTextureExtractorImpl struct {
	parser  gltfParser
	device  renderer.Device
	report  diagnosticFunc
	workers int
	// maxAnisotropy is applied to every sampler.
	maxAnisotropy float32
}

// gltfTextureExtractor defines the interface for decoding glTF images and uploading them as
// scene textures.
type gltfTextureExtractor interface {
	// ExtractSamplers converts every glTF sampler.
	//
	// Returns:
	//   - []common.SamplerStagingData: one entry per document sampler
	ExtractSamplers() []common.SamplerStagingData

	// ExtractTextures builds one scene texture per glTF texture. When upload is set, referenced
	// images are decoded on the worker pool and uploaded on the calling goroutine in texture
	// order. Images that fail to decode leave their textures without a GPU image.
	//
	// Parameters:
	//   - samplers: the converted samplers
	//   - upload: whether to decode and upload images
	//
	// Returns:
	//   - []scene.Texture: the textures
	//   - error: error if a GPU upload fails
	ExtractTextures(samplers []common.SamplerStagingData, upload bool) ([]scene.Texture, error)
}

var _ gltfTextureExtractor = &gltfTextureExtractorImpl{}

// newGLTFTextureExtractor creates a new texture extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - settings: the device, worker count and anisotropy to use
//   - report: receives per-image diagnostics
//
// Returns:
//   - gltfTextureExtractor: the texture extractor
func newGLTFTextureExtractor(parser gltfParser, settings loadSettings, report diagnosticFunc) gltfTextureExtractor {
	return &gltfTextureExtractorImpl{
		parser:        parser,
		device:        settings.device,
		report:        report,
		workers:       settings.imageWorkers,
		maxAnisotropy: settings.maxAnisotropy,
	}
}

func (e *gltfTextureExtractorImpl) ExtractSamplers() []common.SamplerStagingData {
	doc := e.parser.Document()
	result := make([]common.SamplerStagingData, len(doc.Samplers))
	for i := range doc.Samplers {
		result[i] = gltfSamplerToStagingData(&doc.Samplers[i], e.report, fmt.Sprintf("sampler %d", i))
		result[i].MaxAnisotropy = e.maxAnisotropy
	}
	return result
}

func (e *gltfTextureExtractorImpl) ExtractTextures(samplers []common.SamplerStagingData, upload bool) ([]scene.Texture, error) {
	doc := e.parser.Document()
	textures := make([]scene.Texture, len(doc.Textures))
	for i := range doc.Textures {
		gt := &doc.Textures[i]
		sampler := common.DefaultSampler()
		sampler.MaxAnisotropy = e.maxAnisotropy
		if gt.Sampler != nil {
			if common.InRange(*gt.Sampler, len(samplers)) {
				sampler = samplers[*gt.Sampler]
			} else {
				e.report(scene.SeverityWarning, fmt.Sprintf("texture %d", i), "sampler %d out of range, using the default sampler", *gt.Sampler)
			}
		}

		textures[i] = scene.Texture{
			Name:    gt.Name,
			Index:   i,
			Source:  common.IndexOr(gt.Source, -1),
			Sampler: sampler,
		}
		if !common.InRange(textures[i].Source, len(doc.Images)) {
			e.report(scene.SeverityWarning, fmt.Sprintf("texture %d", i), "no image source")
			textures[i].Source = -1
		}
	}
	if !upload {
		return textures, nil
	}

	images := e.decodeImages(textures)

	for i := range textures {
		tex := &textures[i]
		if tex.Source < 0 {
			continue
		}
		img := images[tex.Source]
		if img.err != nil {
			e.report(scene.SeverityError, fmt.Sprintf("image %d", tex.Source), "texture %d not loaded: %v", i, img.err)
			continue
		}

		gpu, err := e.upload(tex, img)
		if err != nil {
			for j := 0; j < i; j++ {
				if textures[j].GPU != nil {
					textures[j].GPU.Destroy()
				}
			}
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		tex.GPU = gpu
		tex.Width, tex.Height, tex.MipLevels = gpu.Width(), gpu.Height(), gpu.MipLevels()
	}
	return textures, nil
}

// decodeImages decodes every image referenced by textures. With more than one worker the
// images are decoded on the automation worker pool; the WaitGroup is the barrier since the
// pool itself only drains when its workers idle out.
func (e *gltfTextureExtractorImpl) decodeImages(textures []scene.Texture) []decodedImage {
	doc := e.parser.Document()
	results := make([]decodedImage, len(doc.Images))

	needed := make([]bool, len(doc.Images))
	for i := range textures {
		if textures[i].Source >= 0 {
			needed[textures[i].Source] = true
		}
	}

	if e.workers <= 1 {
		for i := range doc.Images {
			if needed[i] {
				results[i] = e.decodeImage(i)
			}
		}
		return results
	}

	pool := worker.NewDynamicWorkerPool(e.workers, 256, 1*time.Second)
	var wg sync.WaitGroup
	for i := range doc.Images {
		if !needed[i] {
			continue
		}
		wg.Add(1)
		idx := i
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				results[idx] = e.decodeImage(idx)
				return nil, results[idx].err
			},
		})
	}
	wg.Wait()
	return results
}

func (e *gltfTextureExtractorImpl) decodeImage(index int) decodedImage {
	data, err := e.parser.ImageData(index)
	if err != nil {
		return decodedImage{err: err}
	}

	ktx, err := texture.ParseKTX(data)
	if err == nil {
		return decodedImage{ktx: ktx}
	}
	if !errors.Is(err, texture.ErrNotKTX) {
		return decodedImage{err: err}
	}

	img, err := texture.Decode(data)
	if err != nil {
		return decodedImage{err: err}
	}
	return decodedImage{image: img}
}

func (e *gltfTextureExtractorImpl) upload(tex *scene.Texture, img decodedImage) (renderer.Texture, error) {
	label := common.Coalesce(tex.Name, e.imageLabel(tex.Source), fmt.Sprintf("texture %d", tex.Index))
	if img.ktx != nil {
		return e.device.CreateTexture(label, common.TextureStagingData{
			Levels:    img.ktx.Levels,
			Width:     img.ktx.Width,
			Height:    img.ktx.Height,
			MipLevels: img.ktx.MipLevels,
		}, tex.Sampler)
	}
	return texture.LoadFromImage(e.device, img.image, tex.Sampler, label)
}

func (e *gltfTextureExtractorImpl) imageLabel(index int) string {
	img := &e.parser.Document().Images[index]
	if len(img.URI) > 64 {
		return img.Name
	}
	return common.Coalesce(img.Name, img.URI)
}
