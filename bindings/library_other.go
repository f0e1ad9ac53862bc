//go:build !(darwin || freebsd || linux)

package bindings

import "github.com/vuvietnguyenit/gpu-kernel-trace/tracker"

type Library struct {
	Path string
}

func Open(...string) (*Library, error) { return nil, ErrUnsupported }

func (l *Library) Resolve(names []string) (tracker.Bindings, []string) {
	return tracker.Bindings{}, names
}

func (l *Library) Close() error { return nil }
