package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// HeadlessDevice is a Device that keeps every resource in host memory.
// It performs the same validation as the GPU backends and tracks allocation totals.
type HeadlessDevice struct {
	mu sync.Mutex

	geometries     int
	uniformBuffers int
	textures       int
	bytes          uint64
}

// HeadlessStats summarises the allocations made through a HeadlessDevice.
type HeadlessStats struct {
	Geometries     int
	UniformBuffers int
	Textures       int
	Bytes          uint64
}

var _ Device = &HeadlessDevice{}

// NewHeadlessDevice creates an empty HeadlessDevice.
//
// Returns:
//   - *HeadlessDevice: the device
func NewHeadlessDevice() *HeadlessDevice {
	return &HeadlessDevice{}
}

func (d *HeadlessDevice) Backend() BackendType {
	return BackendTypeHeadless
}

func (d *HeadlessDevice) CreateGeometry(label string, vertexData, indexData []byte) (Geometry, error) {
	if len(vertexData) == 0 {
		return nil, fmt.Errorf("%s: %w", label, ErrEmptyGeometry)
	}
	g := &HeadlessGeometry{
		Label:      label,
		VertexData: append([]byte(nil), vertexData...),
		IndexData:  append([]byte(nil), indexData...),
	}
	d.track(&d.geometries, uint64(len(vertexData)+len(indexData)))
	return g, nil
}

func (d *HeadlessDevice) CreateUniformBuffer(label string, size uint64) (UniformBuffer, error) {
	b := &HeadlessUniformBuffer{Label: label, Data: make([]byte, size)}
	d.track(&d.uniformBuffers, size)
	return b, nil
}

func (d *HeadlessDevice) CreateTexture(label string, data common.TextureStagingData, sampler common.SamplerStagingData) (Texture, error) {
	if err := ValidateStagingData(data); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	levels := data.Levels
	if data.GeneratesMips() {
		levels = append(levels[:len(levels):len(levels)], common.GenerateMipChain(
			levels[len(levels)-1],
			max(data.Width>>(len(levels)-1), 1),
			max(data.Height>>(len(levels)-1), 1),
			data.MipLevels-uint32(len(levels))+1,
		)[1:]...)
	}
	var total uint64
	for _, l := range levels {
		total += uint64(len(l))
	}
	t := &HeadlessTexture{
		Label:   label,
		W:       data.Width,
		H:       data.Height,
		Levels:  levels,
		Sampler: sampler,
	}
	d.track(&d.textures, total)
	return t, nil
}

func (d *HeadlessDevice) WaitIdle() {}

// Stats returns the allocation totals recorded so far.
func (d *HeadlessDevice) Stats() HeadlessStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return HeadlessStats{
		Geometries:     d.geometries,
		UniformBuffers: d.uniformBuffers,
		Textures:       d.textures,
		Bytes:          d.bytes,
	}
}

func (d *HeadlessDevice) track(counter *int, bytes uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	*counter++
	d.bytes += bytes
}

// ValidateStagingData checks that a texture upload has a non-zero extent and that every staged
// level holds exactly the bytes its extent requires.
//
// Parameters:
//   - data: the staged texture
//
// Returns:
//   - error: ErrEmptyTexture or ErrTextureSize describing the first problem found
func ValidateStagingData(data common.TextureStagingData) error {
	if data.Width == 0 || data.Height == 0 || len(data.Pixels()) == 0 || data.MipLevels == 0 {
		return ErrEmptyTexture
	}
	if uint32(len(data.Levels)) > data.MipLevels {
		return fmt.Errorf("%d levels staged for a %d level image: %w", len(data.Levels), data.MipLevels, ErrTextureSize)
	}
	for i, level := range data.Levels {
		w, h := data.LevelExtent(uint32(i))
		if want := int(w) * int(h) * common.TextureFormatRGBA8; len(level) != want {
			return fmt.Errorf("level %d has %d bytes, want %d: %w", i, len(level), want, ErrTextureSize)
		}
	}
	return nil
}

// HeadlessGeometry holds copies of the uploaded vertex and index arrays.
type HeadlessGeometry struct {
	Label      string
	VertexData []byte
	IndexData  []byte
}

func (g *HeadlessGeometry) VertexBytes() uint64 { return uint64(len(g.VertexData)) }
func (g *HeadlessGeometry) IndexBytes() uint64  { return uint64(len(g.IndexData)) }
func (g *HeadlessGeometry) Destroy() {
	g.VertexData = nil
	g.IndexData = nil
}

// HeadlessUniformBuffer is a host byte slice standing in for a mapped uniform buffer.
type HeadlessUniformBuffer struct {
	Label string
	Data  []byte
}

func (b *HeadlessUniformBuffer) Size() uint64 { return uint64(len(b.Data)) }

func (b *HeadlessUniformBuffer) Write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		return fmt.Errorf("%s: %d bytes at %d in %d: %w", b.Label, len(data), offset, len(b.Data), ErrWriteOutOfRange)
	}
	copy(b.Data[offset:], data)
	return nil
}

func (b *HeadlessUniformBuffer) Destroy() {
	b.Data = nil
}

// HeadlessTexture holds the complete mip chain in host memory.
type HeadlessTexture struct {
	Label   string
	W, H    uint32
	Levels  [][]byte
	Sampler common.SamplerStagingData
}

func (t *HeadlessTexture) Width() uint32     { return t.W }
func (t *HeadlessTexture) Height() uint32    { return t.H }
func (t *HeadlessTexture) MipLevels() uint32 { return uint32(len(t.Levels)) }
func (t *HeadlessTexture) Descriptor() any   { return nil }
func (t *HeadlessTexture) Destroy() {
	t.Levels = nil
}

// CommandKind identifies a recorded command.
type CommandKind int

const (
	// CommandBindGeometry is a BindGeometry call.
	CommandBindGeometry CommandKind = iota
	// CommandBindSet is a BindSet call.
	CommandBindSet
	// CommandDrawIndexed is a DrawIndexed call.
	CommandDrawIndexed
)

// RecordedCommand is one call captured by a RecordingCommandRecorder.
type RecordedCommand struct {
	Kind       CommandKind
	Geometry   Geometry
	Set        uint32
	Binding    BindingSet
	IndexCount uint32
	FirstIndex uint32
}

// RecordingCommandRecorder captures draw commands in order instead of submitting them.
type RecordingCommandRecorder struct {
	Commands []RecordedCommand
}

var _ CommandRecorder = &RecordingCommandRecorder{}

func (r *RecordingCommandRecorder) BindGeometry(g Geometry) {
	r.Commands = append(r.Commands, RecordedCommand{Kind: CommandBindGeometry, Geometry: g})
}

func (r *RecordingCommandRecorder) BindSet(_ PipelineLayout, set uint32, binding BindingSet) {
	r.Commands = append(r.Commands, RecordedCommand{Kind: CommandBindSet, Set: set, Binding: binding})
}

func (r *RecordingCommandRecorder) DrawIndexed(indexCount, firstIndex uint32) {
	r.Commands = append(r.Commands, RecordedCommand{Kind: CommandDrawIndexed, IndexCount: indexCount, FirstIndex: firstIndex})
}

// Draws returns only the DrawIndexed commands.
func (r *RecordingCommandRecorder) Draws() []RecordedCommand {
	var out []RecordedCommand
	for _, c := range r.Commands {
		if c.Kind == CommandDrawIndexed {
			out = append(out, c)
		}
	}
	return out
}

// Reset drops every recorded command.
func (r *RecordingCommandRecorder) Reset() {
	r.Commands = r.Commands[:0]
}
