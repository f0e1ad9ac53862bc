// Package config holds the runtime switches of the tracer. Every option can
// come from a YAML file and be overridden by a command line flag.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config is threaded through the tracker; nothing reads process-wide
// switches.
type Config struct {
	// Registry capacities bound the number of objects ever created in a
	// run, released ones included.
	BufferCapacity int `yaml:"buffer_capacity"`
	KernelCapacity int `yaml:"kernel_capacity"`

	PrintKernelBeforeExec bool `yaml:"print_kernel_before_exec"`
	PrintKernelAfterExec  bool `yaml:"print_kernel_after_exec"`
	AfterExecIgnoreConst  bool `yaml:"print_kernel_after_exec_ignore_const"`
	PrintKernelNameOnly   bool `yaml:"print_kernel_name_only"`

	PrintBufferCreation       bool `yaml:"print_buffer_creation"`
	PrintBufferDirection      bool `yaml:"print_buffer_direction"`
	PrintBufferTransfer       bool `yaml:"print_buffer_transfer"`
	PrintBufferRelease        bool `yaml:"print_buffer_release"`
	TransferFirstBytesAsFloat bool `yaml:"print_buffer_transfer_first_bytes_as_float"`

	FullBufferDump      bool   `yaml:"full_buffer_dump"`
	FullBufferSizeLimit uint64 `yaml:"full_buffer_size_limit"`
	FullDumpPath        string `yaml:"full_dump_path"`

	ZeroIsNull  bool `yaml:"zero_handle_is_null"`
	ForceFinish bool `yaml:"force_finish"`

	MultiProcess   bool `yaml:"multi_process"`
	OnlyRootOutput bool `yaml:"only_root_output"`

	// Rank is the process rank in a multi-process job, see DetectRank.
	Rank int `yaml:"-"`
}

const (
	DefaultBufferCapacity      = 1024
	DefaultKernelCapacity      = 256
	DefaultFullBufferSizeLimit = 750
)

// Default returns the stock configuration.
func Default() Config {
	return Config{
		BufferCapacity:        DefaultBufferCapacity,
		KernelCapacity:        DefaultKernelCapacity,
		PrintKernelBeforeExec: true,
		PrintKernelAfterExec:  true,
		FullBufferDump:        true,
		FullBufferSizeLimit:   DefaultFullBufferSizeLimit,
		ZeroIsNull:            true,
		OnlyRootOutput:        true,
	}
}

// Load reads a YAML file on top of Default. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every inconsistent option at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.BufferCapacity <= 0 {
		result = multierror.Append(result, fmt.Errorf("buffer_capacity must be positive, got %d", c.BufferCapacity))
	}
	if c.KernelCapacity <= 0 {
		result = multierror.Append(result, fmt.Errorf("kernel_capacity must be positive, got %d", c.KernelCapacity))
	}
	if c.FullBufferDump && c.FullBufferSizeLimit == 0 {
		result = multierror.Append(result, errors.New("full_buffer_size_limit must be positive when full_buffer_dump is set"))
	}
	if c.FullDumpPath != "" && !c.FullBufferDump {
		result = multierror.Append(result, errors.New("full_dump_path requires full_buffer_dump"))
	}
	if c.AfterExecIgnoreConst && !c.PrintKernelAfterExec {
		result = multierror.Append(result, errors.New("print_kernel_after_exec_ignore_const requires print_kernel_after_exec"))
	}
	if c.TransferFirstBytesAsFloat && !c.PrintBufferTransfer {
		result = multierror.Append(result, errors.New("print_buffer_transfer_first_bytes_as_float requires print_buffer_transfer"))
	}
	return result.ErrorOrNil()
}

// OutputEnabled reports whether this process emits traces. In a
// multi-process job with root-only output, only rank 0 does.
func (c Config) OutputEnabled() bool {
	return !(c.MultiProcess && c.OnlyRootOutput && c.Rank != 0)
}
