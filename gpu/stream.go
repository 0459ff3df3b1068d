// Package gpu implements the WebGPU compute backend for the image kernels:
// morphological erosion and border expansion over strided pixel buffers.
//
// All entry points enqueue work on a [Stream] and return without waiting;
// results land in the caller's output slice only after a subsequent
// [Stream.Synchronize] returns nil. Work enqueued on one Stream executes
// in enqueue order. Streams on independent devices are unordered with
// respect to each other.
package gpu

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"

	cv "github.com/1C4nfaN/ppl.cv"
)

// Stream is an ordered execution queue on a GPU device. It caches one
// compute pipeline per (operation, scalar type) combination and tracks the
// staging buffers of enqueued work until Synchronize drains them.
type Stream struct {
	device     *wgpu.Device
	queue      *wgpu.Queue
	ownsDevice bool

	mu        sync.Mutex
	pipelines map[pipelineKey]*pipeline
	pending   []pendingOp
}

type pipelineKey struct {
	op     string
	scalar scalarKind
}

type pipeline struct {
	module   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
	layout   *wgpu.BindGroupLayout
}

type pendingOp struct {
	staging *wgpu.Buffer
	size    uint64
	copyOut func(mapped []byte)
	release []*wgpu.Buffer
}

// NewStream wraps an existing device and queue. The Stream does not take
// ownership of the device; Close releases only resources the Stream created.
func NewStream(device *wgpu.Device, queue *wgpu.Queue) *Stream {
	return &Stream{
		device:    device,
		queue:     queue,
		pipelines: make(map[pipelineKey]*pipeline),
	}
}

// Open acquires a device from the default WebGPU instance and returns a
// Stream that owns it. Use NewStream to integrate with an existing device.
func Open() (*Stream, error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, fmt.Errorf("%w: webgpu instance unavailable", cv.ErrDeviceFailure)
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: request adapter: %v", cv.ErrDeviceFailure, err)
	}
	// The adapter is only needed to obtain the device.
	defer adapter.Release()
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: request device: %v", cv.ErrDeviceFailure, err)
	}
	log.Debug("gpu: acquired webgpu device")
	s := NewStream(device, device.GetQueue())
	s.ownsDevice = true
	return s, nil
}

// Synchronize blocks until all work enqueued on the Stream has completed
// and its results have been copied into the callers' output slices. It
// returns the first failure encountered; output buffers of failed calls
// hold unspecified contents.
func (s *Stream) Synchronize() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}
	s.device.Poll(true, nil)
	var firstErr error
	for _, op := range pending {
		if err := s.readback(op); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Stream) readback(op pendingOp) error {
	defer func() {
		op.staging.Release()
		for _, b := range op.release {
			b.Release()
		}
	}()

	done := make(chan error, 1)
	op.staging.MapAsync(wgpu.MapModeRead, 0, op.size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("%w: map failed: %v", cv.ErrDeviceFailure, status)
			return
		}
		done <- nil
	})

	s.device.Poll(true, nil)
	if err := <-done; err != nil {
		return err
	}
	op.copyOut(op.staging.GetMappedRange(0, uint(op.size)))
	op.staging.Unmap()
	return nil
}

// Close drops any unsynchronized work and releases cached pipelines and,
// for Streams created by Open, the device itself.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range s.pending {
		op.staging.Release()
		for _, b := range op.release {
			b.Release()
		}
	}
	s.pending = nil
	for k, p := range s.pipelines {
		p.layout.Release()
		p.pipeline.Release()
		p.module.Release()
		delete(s.pipelines, k)
	}
	if s.ownsDevice {
		s.device.Release()
	}
}

func (s *Stream) pipeline(op string, kind scalarKind) (*pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pipelineKey{op: op, scalar: kind}
	if p, ok := s.pipelines[key]; ok {
		return p, nil
	}

	module, err := s.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderSource(op, kind)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: shader module %s: %v", cv.ErrDeviceFailure, op, err)
	}
	pl, err := s.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		module.Release()
		return nil, fmt.Errorf("%w: compute pipeline %s: %v", cv.ErrDeviceFailure, op, err)
	}
	p := &pipeline{
		module:   module,
		pipeline: pl,
		layout:   pl.GetBindGroupLayout(0),
	}
	s.pipelines[key] = p
	return p, nil
}

// dispatch describes one enqueued kernel invocation. mask is nil for
// operations whose shader has no mask binding.
type dispatch struct {
	pipe                      *pipeline
	uniforms                  []uint32
	input                     []byte
	mask                      []uint32
	outSize                   uint64
	groupsX, groupsY, groupsZ uint32
	copyOut                   func(mapped []byte)
}

func (s *Stream) enqueue(d dispatch) error {
	var bufs []*wgpu.Buffer
	fail := func(stage string, err error) error {
		for _, b := range bufs {
			b.Release()
		}
		return fmt.Errorf("%w: %s: %v", cv.ErrDeviceFailure, stage, err)
	}

	uniformBuf, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  uint64(len(d.uniforms) * 4),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fail("uniform buffer", err)
	}
	bufs = append(bufs, uniformBuf)

	inputBuf, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  uint64(len(d.input)),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fail("input buffer", err)
	}
	bufs = append(bufs, inputBuf)

	var maskBuf *wgpu.Buffer
	if d.mask != nil {
		maskBuf, err = s.device.CreateBuffer(&wgpu.BufferDescriptor{
			Size:  uint64(len(d.mask) * 4),
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fail("mask buffer", err)
		}
		bufs = append(bufs, maskBuf)
	}

	outBuf, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  d.outSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return fail("output buffer", err)
	}
	bufs = append(bufs, outBuf)

	staging, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  d.outSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fail("staging buffer", err)
	}

	s.queue.WriteBuffer(uniformBuf, 0, wgpu.ToBytes(d.uniforms))
	s.queue.WriteBuffer(inputBuf, 0, d.input)
	if maskBuf != nil {
		s.queue.WriteBuffer(maskBuf, 0, wgpu.ToBytes(d.mask))
	}

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: uniformBuf, Size: wgpu.WholeSize},
		{Binding: 1, Buffer: inputBuf, Size: wgpu.WholeSize},
	}
	if maskBuf != nil {
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: 2, Buffer: maskBuf, Size: wgpu.WholeSize},
			wgpu.BindGroupEntry{Binding: 3, Buffer: outBuf, Size: wgpu.WholeSize})
	} else {
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: 2, Buffer: outBuf, Size: wgpu.WholeSize})
	}
	bindGroup, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  d.pipe.layout,
		Entries: entries,
	})
	if err != nil {
		staging.Release()
		return fail("bind group", err)
	}
	defer bindGroup.Release()

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		staging.Release()
		return fail("command encoder", err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(d.pipe.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(d.groupsX, d.groupsY, d.groupsZ)
	pass.End()
	pass.Release()

	encoder.CopyBufferToBuffer(outBuf, 0, staging, 0, d.outSize)

	cmd, err := encoder.Finish(nil)
	if err != nil {
		staging.Release()
		return fail("finish", err)
	}
	s.queue.Submit(cmd)

	s.mu.Lock()
	s.pending = append(s.pending, pendingOp{
		staging: staging,
		size:    d.outSize,
		copyOut: d.copyOut,
		release: bufs,
	})
	s.mu.Unlock()
	return nil
}
