package workload

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
)

const profileFilePerm = 0o750

// HeapSample is the heap state at one phase of a run.
type HeapSample struct {
	Label string
	InUse uint64
	Sys   uint64
	Idle  uint64
	NumGC uint32
}

// Profiler records heap samples and, when Dir is set, writes heap and CPU
// profiles into it.
type Profiler struct {
	Dir     string
	Samples []HeapSample

	cpu *os.File
}

// NewProfiler creates a profiler writing into dir. An empty dir only samples.
func NewProfiler(dir string) (*Profiler, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, profileFilePerm); err != nil {
			return nil, fmt.Errorf("create profile dir: %w", err)
		}
	}

	return &Profiler{Dir: dir}, nil
}

// StartCPU starts CPU profiling into cpu.prof. It is a no-op without a Dir.
func (p *Profiler) StartCPU() error {
	if p.Dir == "" {
		return nil
	}

	f, err := os.Create(filepath.Join(p.Dir, "cpu.prof"))
	if err != nil {
		return fmt.Errorf("create cpu profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()

		return fmt.Errorf("start cpu profile: %w", err)
	}

	p.cpu = f

	return nil
}

// StopCPU stops a profile started by StartCPU.
func (p *Profiler) StopCPU() error {
	if p.cpu == nil {
		return nil
	}

	pprof.StopCPUProfile()

	err := p.cpu.Close()
	p.cpu = nil

	if err != nil {
		return fmt.Errorf("close cpu profile: %w", err)
	}

	return nil
}

// Sample collects garbage, records the heap under label and writes
// heap_<label>.prof when a Dir is set.
func (p *Profiler) Sample(label string) error {
	runtime.GC()
	runtime.GC()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	p.Samples = append(p.Samples, HeapSample{
		Label: label,
		InUse: m.HeapInuse,
		Sys:   m.HeapSys,
		Idle:  m.HeapIdle,
		NumGC: m.NumGC,
	})

	if p.Dir == "" {
		return nil
	}

	f, err := os.Create(filepath.Join(p.Dir, "heap_"+label+".prof"))
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("write heap profile: %w", err)
	}

	return nil
}
