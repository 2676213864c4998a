//go:build !linux

package fbdev

import "github.com/go-errors/errors"

func open(path string, _ bool) (*Device, error) {
	return nil, errors.Errorf("fbdev: %s: framebuffer devices are only supported on linux", path)
}
