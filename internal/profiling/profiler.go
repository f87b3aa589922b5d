// Package profiling captures CPU, heap, and execution-trace profiles of a
// single benchgate invocation.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options selects which profiles to write. Empty paths are skipped.
type Options struct {
	CPU   string
	Heap  string
	Trace string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Heap != "" || o.Trace != ""
}

// Profiler owns the open profile files between Start and Stop.
type Profiler struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
	stopped   bool
}

// NewProfiler creates a Profiler for opts. Nothing is written until Start.
func NewProfiler(opts Options) *Profiler {
	return &Profiler{opts: opts}
}

// Start begins CPU profiling and tracing. On error nothing is left running.
func (p *Profiler) Start() error {
	if p.opts.CPU != "" {
		f, err := os.Create(p.opts.CPU)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	if p.opts.Trace != "" {
		f, err := os.Create(p.opts.Trace)
		if err != nil {
			p.stopCPU()
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			p.stopCPU()
			return fmt.Errorf("failed to start trace: %w", err)
		}
		p.traceFile = f
	}

	return nil
}

// Stop flushes running profiles and writes the heap snapshot. Calls after
// the first are no-ops.
func (p *Profiler) Stop() error {
	if p.stopped {
		return nil
	}
	p.stopped = true

	p.stopCPU()
	var errs []error
	if p.traceFile != nil {
		trace.Stop()
		if err := p.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close trace file: %w", err))
		}
		p.traceFile = nil
	}

	if p.opts.Heap != "" {
		if err := writeHeap(p.opts.Heap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Profiler) stopCPU() {
	if p.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	_ = p.cpuFile.Close()
	p.cpuFile = nil
}

func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Live objects only after a collection.
	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return nil
}
