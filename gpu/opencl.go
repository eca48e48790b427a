//go:build opencl

package gpu

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/systems"
)

const flockKernelSource = `
inline float3 load3(__global const float* b, int i) {
    return (float3)(b[3*i], b[3*i+1], b[3*i+2]);
}

inline void store3(__global float* b, int i, float3 v) {
    b[3*i] = v.x;
    b[3*i+1] = v.y;
    b[3*i+2] = v.z;
}

inline void add_neighbor(float3 self, float3 p, float3 v,
    float r1sq, float r2sq, float r3sq,
    float3* center, int* nc, float3* sep, float3* vsum, int* na)
{
    float3 d = p - self;
    float dist_sq = dot(d, d);
    if (dist_sq < r1sq) { *center += p; (*nc)++; }
    if (dist_sq < r2sq) { *sep -= d; }
    if (dist_sq < r3sq) { *vsum += v; (*na)++; }
}

inline float3 resolve(float3 self, float3 vel,
    float3 center, int nc, float3 sep, float3 vsum, int na,
    float s1, float s2, float s3, float max_speed)
{
    float3 v = vel;
    if (nc > 0) { v += (center / (float)nc - self) * s1; }
    v += sep * s2;
    if (na > 0) { v += (vsum / (float)na - vel) * s3; }
    return clamp(v, -max_speed, max_speed);
}

inline void axis_bounds(float rel, int side, int double_width, int* lo, int* hi) {
    float f = floor(clamp(rel, -2.0f, (float)side + 1.0f));
    int c = (int)f;
    float frac = rel - f;
    if (!double_width) { *lo = c - 1; *hi = c + 1; }
    else if (frac < 0.5f) { *lo = c - 1; *hi = c; }
    else { *lo = c; *hi = c + 1; }
    *lo = max(*lo, 0);
    *hi = min(*hi, side - 1);
}

__kernel void update_velocity_brute(
    const int n,
    const float r1sq, const float r2sq, const float r3sq,
    const float s1, const float s2, const float s3,
    const float max_speed,
    __global const float* pos,
    __global const float* vel,
    __global float* vel_next)
{
    int i = get_global_id(0);
    if (i >= n) {
        return;
    }
    float3 self = load3(pos, i);
    float3 center = (float3)(0.0f);
    float3 sep = (float3)(0.0f);
    float3 vsum = (float3)(0.0f);
    int nc = 0;
    int na = 0;
    for (int j = 0; j < n; j++) {
        if (j == i) {
            continue;
        }
        add_neighbor(self, load3(pos, j), load3(vel, j), r1sq, r2sq, r3sq,
            &center, &nc, &sep, &vsum, &na);
    }
    store3(vel_next, i, resolve(self, load3(vel, i), center, nc, sep, vsum, na, s1, s2, s3, max_speed));
}

__kernel void update_velocity_grid(
    const int n,
    const int side,
    const float origin,
    const float inv_cell_width,
    const int double_width,
    const int indirect,
    const float r1sq, const float r2sq, const float r3sq,
    const float s1, const float s2, const float s3,
    const float max_speed,
    __global const int* cell_start,
    __global const int* cell_end,
    __global const int* particle_index,
    __global const float* pos,
    __global const float* vel,
    __global float* vel_next)
{
    int i = get_global_id(0);
    if (i >= n) {
        return;
    }
    float3 self = load3(pos, i);
    float3 vel_i = load3(vel, i);
    float3 center = (float3)(0.0f);
    float3 sep = (float3)(0.0f);
    float3 vsum = (float3)(0.0f);
    int nc = 0;
    int na = 0;

    float3 rel = (self - origin) * inv_cell_width;
    if (!(isnan(rel.x) || isnan(rel.y) || isnan(rel.z))) {
        int lx, hx, ly, hy, lz, hz;
        axis_bounds(rel.x, side, double_width, &lx, &hx);
        axis_bounds(rel.y, side, double_width, &ly, &hy);
        axis_bounds(rel.z, side, double_width, &lz, &hz);
        for (int z = lz; z <= hz; z++) {
            for (int y = ly; y <= hy; y++) {
                for (int x = lx; x <= hx; x++) {
                    int cell = x + y * side + z * side * side;
                    int s = cell_start[cell];
                    if (s < 0) {
                        continue;
                    }
                    int e = cell_end[cell];
                    for (int k = s; k <= e; k++) {
                        int j = indirect ? particle_index[k] : k;
                        if (j == i) {
                            continue;
                        }
                        add_neighbor(self, load3(pos, j), load3(vel, j), r1sq, r2sq, r3sq,
                            &center, &nc, &sep, &vsum, &na);
                    }
                }
            }
        }
    }
    store3(vel_next, i, resolve(self, vel_i, center, nc, sep, vsum, na, s1, s2, s3, max_speed));
}

inline float wrap_axis(float v, float h) {
    if (v < -h) { return h; }
    if (v > h) { return -h; }
    return v;
}

__kernel void integrate(
    const int n,
    const float dt,
    const float half_extent,
    __global float* pos,
    __global const float* vel)
{
    int i = get_global_id(0);
    if (i >= n) {
        return;
    }
    float3 p = load3(pos, i) + load3(vel, i) * dt;
    p.x = wrap_axis(p.x, half_extent);
    p.y = wrap_axis(p.y, half_extent);
    p.z = wrap_axis(p.z, half_extent);
    store3(pos, i, p);
}`

// Argument slots of update_velocity_grid that change per call.
const gridArgIndirect = 5

// Solver owns the OpenCL context, kernels and device buffers for one flock.
type Solver struct {
	context     *cl.Context
	queue       *cl.CommandQueue
	program     *cl.Program
	bruteKernel *cl.Kernel
	gridKernel  *cl.Kernel
	integKernel *cl.Kernel

	posBuf       *cl.MemObject
	velBuf       *cl.MemObject
	velNextBuf   *cl.MemObject
	cellStartBuf *cl.MemObject
	cellEndBuf   *cl.MemObject
	indexBuf     *cl.MemObject

	n          int
	cellCount  int
	deviceName string

	// Host staging buffers
	posHost     []float32
	velHost     []float32
	velNextHost []float32
	startHost   []int32
	endHost     []int32
	indexHost   []int32
}

// NewSolver picks the first GPU device (falling back to a CPU device),
// compiles the flocking kernels and allocates buffers for p.Particles.
func NewSolver(p Params) (*Solver, error) {
	if p.Particles <= 0 {
		return nil, fmt.Errorf("%w: no particles", ErrUnavailable)
	}
	device, err := pickDevice()
	if err != nil {
		return nil, err
	}

	s := &Solver{
		n:          p.Particles,
		cellCount:  p.Geometry.CellCount,
		deviceName: device.Name(),
	}
	if err := s.build(device); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.allocate(); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.bindConstants(p); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func pickDevice() (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: no OpenCL platforms available", ErrUnavailable)
	}
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no suitable OpenCL devices found", ErrUnavailable)
}

// build creates the context, queue, program and kernels. On error the
// caller releases whatever was created through Close.
func (s *Solver) build(device *cl.Device) error {
	var err error
	s.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return fmt.Errorf("creating OpenCL context: %w", err)
	}
	s.queue, err = s.context.CreateCommandQueue(device, 0)
	if err != nil {
		return fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	s.program, err = s.context.CreateProgramWithSource([]string{flockKernelSource})
	if err != nil {
		return fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := s.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		var buildErr cl.BuildError
		if errors.As(err, &buildErr) {
			return fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return fmt.Errorf("building OpenCL program: %w", err)
	}
	if s.bruteKernel, err = s.program.CreateKernel("update_velocity_brute"); err != nil {
		return fmt.Errorf("creating brute force kernel: %w", err)
	}
	if s.gridKernel, err = s.program.CreateKernel("update_velocity_grid"); err != nil {
		return fmt.Errorf("creating grid kernel: %w", err)
	}
	if s.integKernel, err = s.program.CreateKernel("integrate"); err != nil {
		return fmt.Errorf("creating integrate kernel: %w", err)
	}
	return nil
}

func (s *Solver) allocate() error {
	vecBytes := 3 * s.n * int(unsafe.Sizeof(float32(0)))
	intBytes := int(unsafe.Sizeof(int32(0)))

	buffers := []struct {
		dst   **cl.MemObject
		flags cl.MemFlag
		size  int
		name  string
	}{
		{&s.posBuf, cl.MemReadWrite, vecBytes, "position"},
		{&s.velBuf, cl.MemReadOnly, vecBytes, "velocity"},
		{&s.velNextBuf, cl.MemWriteOnly, vecBytes, "next velocity"},
		{&s.cellStartBuf, cl.MemReadOnly, s.cellCount * intBytes, "cell start"},
		{&s.cellEndBuf, cl.MemReadOnly, s.cellCount * intBytes, "cell end"},
		{&s.indexBuf, cl.MemReadOnly, s.n * intBytes, "particle index"},
	}
	for _, b := range buffers {
		buf, err := s.context.CreateEmptyBuffer(b.flags, b.size)
		if err != nil {
			return fmt.Errorf("allocating %s buffer: %w", b.name, err)
		}
		*b.dst = buf
	}

	s.posHost = make([]float32, 3*s.n)
	s.velHost = make([]float32, 3*s.n)
	s.velNextHost = make([]float32, 3*s.n)
	return nil
}

func (s *Solver) bindConstants(p Params) error {
	r := p.Rules
	sq := func(v float64) float32 { return float32(v * v) }

	if err := s.bruteKernel.SetArgs(
		int32(s.n),
		sq(r.CohesionDistance), sq(r.SeparationDistance), sq(r.AlignmentDistance),
		float32(r.CohesionScale), float32(r.SeparationScale), float32(r.AlignmentScale),
		float32(r.MaxSpeed),
		s.posBuf, s.velBuf, s.velNextBuf,
	); err != nil {
		return fmt.Errorf("setting brute force kernel arguments: %w", err)
	}

	g := p.Geometry
	doubleWidth := int32(0)
	if g.DoubleWidth {
		doubleWidth = 1
	}
	if err := s.gridKernel.SetArgs(
		int32(s.n),
		int32(g.Side),
		float32(g.Origin.X),
		float32(g.InvCellWidth),
		doubleWidth,
		int32(1),
		sq(r.CohesionDistance), sq(r.SeparationDistance), sq(r.AlignmentDistance),
		float32(r.CohesionScale), float32(r.SeparationScale), float32(r.AlignmentScale),
		float32(r.MaxSpeed),
		s.cellStartBuf, s.cellEndBuf, s.indexBuf,
		s.posBuf, s.velBuf, s.velNextBuf,
	); err != nil {
		return fmt.Errorf("setting grid kernel arguments: %w", err)
	}
	return nil
}

// UpdateVelocity runs one velocity kernel on the device and reads the result
// into velNext. Grid kernels upload the bucketing tables from grid, which
// must have been built over pos.
func (s *Solver) UpdateVelocity(k Kernel, grid *systems.SpatialGrid, pos, vel, velNext []r3.Vec) error {
	if len(pos) != s.n || len(vel) != s.n || len(velNext) != s.n {
		return fmt.Errorf("unexpected particle buffer size %d, solver sized for %d", len(pos), s.n)
	}

	s.posHost = packVecs(s.posHost, pos)
	s.velHost = packVecs(s.velHost, vel)
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.posBuf, false, 0, s.posHost, nil); err != nil {
		return fmt.Errorf("writing position buffer: %w", err)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.velBuf, false, 0, s.velHost, nil); err != nil {
		return fmt.Errorf("writing velocity buffer: %w", err)
	}

	kernel := s.bruteKernel
	if k != KernelBruteForce {
		if grid == nil {
			return errors.New("grid kernel requires a built grid")
		}
		if err := s.uploadGrid(grid); err != nil {
			return err
		}
		indirect := int32(0)
		if k == KernelScattered {
			indirect = 1
		}
		if err := s.gridKernel.SetArgInt32(gridArgIndirect, indirect); err != nil {
			return fmt.Errorf("setting grid indirection: %w", err)
		}
		kernel = s.gridKernel
	}

	if _, err := s.queue.EnqueueNDRangeKernel(kernel, nil, []int{s.n}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing velocity kernel: %w", err)
	}
	if _, err := s.queue.EnqueueReadBufferFloat32(s.velNextBuf, true, 0, s.velNextHost, nil); err != nil {
		return fmt.Errorf("reading next velocity buffer: %w", err)
	}
	unpackVecs(velNext, s.velNextHost)
	return nil
}

func (s *Solver) uploadGrid(grid *systems.SpatialGrid) error {
	s.startHost = packInts(s.startHost, grid.CellStart)
	s.endHost = packInts(s.endHost, grid.CellEnd)
	s.indexHost = packInts(s.indexHost, grid.ParticleIndex)

	tables := []struct {
		buf  *cl.MemObject
		data []int32
		name string
	}{
		{s.cellStartBuf, s.startHost, "cell start"},
		{s.cellEndBuf, s.endHost, "cell end"},
		{s.indexBuf, s.indexHost, "particle index"},
	}
	for _, t := range tables {
		if len(t.data) == 0 {
			continue
		}
		ptr := unsafe.Pointer(&t.data[0])
		byteLen := len(t.data) * int(unsafe.Sizeof(int32(0)))
		if _, err := s.queue.EnqueueWriteBuffer(t.buf, false, 0, byteLen, ptr, nil); err != nil {
			return fmt.Errorf("writing %s buffer: %w", t.name, err)
		}
	}
	return nil
}

// Integrate advances pos by vel*dt on the device with toroidal wrap.
func (s *Solver) Integrate(pos, vel []r3.Vec, dt, halfExtent float64) error {
	if len(pos) != s.n || len(vel) != s.n {
		return fmt.Errorf("unexpected particle buffer size %d, solver sized for %d", len(pos), s.n)
	}

	s.posHost = packVecs(s.posHost, pos)
	s.velHost = packVecs(s.velHost, vel)
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.posBuf, false, 0, s.posHost, nil); err != nil {
		return fmt.Errorf("writing position buffer: %w", err)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.velBuf, false, 0, s.velHost, nil); err != nil {
		return fmt.Errorf("writing velocity buffer: %w", err)
	}
	if err := s.integKernel.SetArgs(
		int32(s.n), float32(dt), float32(halfExtent), s.posBuf, s.velBuf,
	); err != nil {
		return fmt.Errorf("setting integrate kernel arguments: %w", err)
	}
	if _, err := s.queue.EnqueueNDRangeKernel(s.integKernel, nil, []int{s.n}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing integrate kernel: %w", err)
	}
	if _, err := s.queue.EnqueueReadBufferFloat32(s.posBuf, true, 0, s.posHost, nil); err != nil {
		return fmt.Errorf("reading position buffer: %w", err)
	}
	unpackVecs(pos, s.posHost)
	return nil
}

// Close releases every device object. It is safe to call more than once.
func (s *Solver) Close() {
	for _, buf := range []**cl.MemObject{
		&s.indexBuf, &s.cellEndBuf, &s.cellStartBuf,
		&s.velNextBuf, &s.velBuf, &s.posBuf,
	} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	for _, k := range []**cl.Kernel{&s.integKernel, &s.gridKernel, &s.bruteKernel} {
		if *k != nil {
			(*k).Release()
			*k = nil
		}
	}
	if s.program != nil {
		s.program.Release()
		s.program = nil
	}
	if s.queue != nil {
		s.queue.Release()
		s.queue = nil
	}
	if s.context != nil {
		s.context.Release()
		s.context = nil
	}
}

// DeviceName returns the name of the OpenCL device in use.
func (s *Solver) DeviceName() string {
	return s.deviceName
}
