//go:build darwin || freebsd || linux

package bindings

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ebitengine/purego"

	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

// Library is a dlopen'ed native API implementation.
type Library struct {
	Path   string
	handle uintptr
}

// Open loads the first of paths that can be opened, or one of
// DefaultLibraries when paths is empty.
func Open(paths ...string) (*Library, error) {
	if len(paths) == 0 {
		paths = DefaultLibraries
	}
	var errs []error
	for _, p := range paths {
		h, err := purego.Dlopen(p, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		slog.Debug("loaded native library", "path", p)
		return &Library{Path: p, handle: h}, nil
	}
	return nil, fmt.Errorf("cannot load any of %v: %w", paths, errors.Join(errs...))
}

// Resolve looks up names in the library. Symbols that cannot be found are
// returned in missing and left out of the bindings.
func (l *Library) Resolve(names []string) (b tracker.Bindings, missing []string) {
	b = make(tracker.Bindings, len(names))
	// a zero handle is RTLD_DEFAULT to dlsym
	if l.handle == 0 {
		return b, append(missing, names...)
	}
	for _, name := range names {
		addr, err := purego.Dlsym(l.handle, name)
		if err != nil || addr == 0 {
			slog.Debug("symbol not found", "lib", l.Path, "symbol", name, "err", err)
			missing = append(missing, name)
			continue
		}
		b[name] = addr
	}
	return b, missing
}

// Close unloads the library. Addresses handed out by Resolve are no longer
// valid afterwards.
func (l *Library) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	return err
}
