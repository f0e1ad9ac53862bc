// Package bindings resolves the native compute API entry points the
// tracker interposes on.
package bindings

import "errors"

// DefaultLibraries are tried in order by Open when no path is given.
var DefaultLibraries = []string{"libOpenCL.so.1", "libOpenCL.so", "/System/Library/Frameworks/OpenCL.framework/OpenCL"}

// DefaultSymbols are the API functions whose calls feed tracker events.
var DefaultSymbols = []string{
	"clCreateBuffer",
	"clCreateSubBuffer",
	"clEnqueueWriteBuffer",
	"clEnqueueReadBuffer",
	"clReleaseMemObject",
	"clCreateKernel",
	"clCreateKernelsInProgram",
	"clSetKernelArg",
	"clEnqueueNDRangeKernel",
	"clFinish",
	"clGetKernelInfo",
	"clGetKernelArgInfo",
}

// ErrUnsupported is returned on platforms without dynamic loading.
var ErrUnsupported = errors.New("dynamic symbol resolution is not supported on this platform")
