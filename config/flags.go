package config

import (
	"github.com/spf13/pflag"
)

type boolOption struct {
	name  string
	usage string
	field func(*Config) *bool
}

type intOption struct {
	name  string
	usage string
	field func(*Config) *int
}

type uint64Option struct {
	name  string
	usage string
	field func(*Config) *uint64
}

type stringOption struct {
	name  string
	usage string
	field func(*Config) *string
}

var boolOptions = []boolOption{
	{"print-kernel-before-exec", "Trace kernel arguments when a kernel is enqueued", func(c *Config) *bool { return &c.PrintKernelBeforeExec }},
	{"print-kernel-after-exec", "Trace kernel arguments when a kernel finishes", func(c *Config) *bool { return &c.PrintKernelAfterExec }},
	{"after-exec-ignore-const", "Skip read-only buffer arguments in after-execution traces", func(c *Config) *bool { return &c.AfterExecIgnoreConst }},
	{"kernel-name-only", "Trace kernel names without arguments", func(c *Config) *bool { return &c.PrintKernelNameOnly }},
	{"print-buffer-creation", "Report buffer creation", func(c *Config) *bool { return &c.PrintBufferCreation }},
	{"print-buffer-direction", "Show the access direction of buffer arguments", func(c *Config) *bool { return &c.PrintBufferDirection }},
	{"print-buffer-transfer", "Report host/device buffer transfers", func(c *Config) *bool { return &c.PrintBufferTransfer }},
	{"print-buffer-release", "Report buffer release", func(c *Config) *bool { return &c.PrintBufferRelease }},
	{"transfer-as-float", "Show the first transferred bytes as float values", func(c *Config) *bool { return &c.TransferFirstBytesAsFloat }},
	{"full-buffer-dump", "Dump whole buffer arguments up to --full-buffer-limit bytes", func(c *Config) *bool { return &c.FullBufferDump }},
	{"zero-is-null", "Treat the zero buffer handle as NULL", func(c *Config) *bool { return &c.ZeroIsNull }},
	{"force-finish", "Synchronize the device before kernel finished events", func(c *Config) *bool { return &c.ForceFinish }},
	{"multi-process", "The traced application runs as a multi-process job", func(c *Config) *bool { return &c.MultiProcess }},
	{"only-root-output", "In multi-process jobs only rank 0 emits traces", func(c *Config) *bool { return &c.OnlyRootOutput }},
}

var intOptions = []intOption{
	{"buffer-capacity", "Maximum number of buffers tracked in a run", func(c *Config) *int { return &c.BufferCapacity }},
	{"kernel-capacity", "Maximum number of kernels tracked in a run", func(c *Config) *int { return &c.KernelCapacity }},
}

var uint64Options = []uint64Option{
	{"full-buffer-limit", "Largest buffer argument, in bytes, dumped in full", func(c *Config) *uint64 { return &c.FullBufferSizeLimit }},
}

var stringOptions = []stringOption{
	{"full-dump-path", "Write full buffer dumps to this file instead of stdout", func(c *Config) *string { return &c.FullDumpPath }},
}

// AddFlags registers one flag per option, bound to c, with the current
// values of c as defaults.
func AddFlags(fs *pflag.FlagSet, c *Config) {
	for _, o := range boolOptions {
		p := o.field(c)
		fs.BoolVar(p, o.name, *p, o.usage)
	}
	for _, o := range intOptions {
		p := o.field(c)
		fs.IntVar(p, o.name, *p, o.usage)
	}
	for _, o := range uint64Options {
		p := o.field(c)
		fs.Uint64Var(p, o.name, *p, o.usage)
	}
	for _, o := range stringOptions {
		p := o.field(c)
		fs.StringVar(p, o.name, *p, o.usage)
	}
}

// Override copies into dst the options whose flag was set on the command
// line. from is the Config the flags were bound to by AddFlags.
func Override(dst *Config, from *Config, fs *pflag.FlagSet) {
	changed := make(map[string]bool)
	fs.Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	for _, o := range boolOptions {
		if changed[o.name] {
			*o.field(dst) = *o.field(from)
		}
	}
	for _, o := range intOptions {
		if changed[o.name] {
			*o.field(dst) = *o.field(from)
		}
	}
	for _, o := range uint64Options {
		if changed[o.name] {
			*o.field(dst) = *o.field(from)
		}
	}
	for _, o := range stringOptions {
		if changed[o.name] {
			*o.field(dst) = *o.field(from)
		}
	}
}
