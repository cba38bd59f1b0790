//go:build !unix

package sharedstore

import "os"

type mapping struct{}

func mapFile(f *os.File, size int64) (*mapping, error) {
	return nil, ErrUnsupportedPlatform
}

func (m *mapping) Bytes() []byte { return nil }
func (m *mapping) Sync() error   { return ErrUnsupportedPlatform }
func (m *mapping) Close() error  { return ErrUnsupportedPlatform }
