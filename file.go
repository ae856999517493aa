// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/ctfreader/ctfmeta/log"
)

// MmapByteSource is a ByteSource backed by a memory-mapped file
// (spec.md §1 "out of scope" byte-source adapters; grounded on the
// teacher's File.New, which mmaps the binary under inspection).
type MmapByteSource struct {
	data   mmap.MMap
	f      *os.File
	logger *log.Helper
}

// Options configures an MmapByteSource.
type Options struct {
	// Logger is a custom logger; defaults to an error-level stderr logger.
	Logger log.Logger
}

func newLogger(opts *Options) *log.Helper {
	if opts != nil && opts.Logger != nil {
		return log.NewHelper(opts.Logger)
	}
	stdlog := log.NewStdLogger(os.Stderr)
	return log.NewHelper(log.NewFilter(stdlog, log.FilterLevel(log.LevelError)))
}

// NewMmapByteSource memory-maps name read-only and returns a ByteSource
// over its contents.
func NewMmapByteSource(name string, opts *Options) (*MmapByteSource, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &MmapByteSource{data: data, f: f, logger: newLogger(opts)}, nil
}

// Close unmaps and closes the underlying file.
func (s *MmapByteSource) Close() error {
	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			s.logger.Warnf("unmap failed: %v", err)
		}
	}
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

// Map implements ByteSource over the whole mapped region: every request is
// served from the already-resident mapping, so it never actually grows
// anything, it only validates and slices (spec.md §1 Non-goals: I/O
// scheduling is out of scope; the map is already entirely in memory).
func (s *MmapByteSource) Map(bitOffset int64, minBits int) (avail int, data []byte, bitShift int, err error) {
	return mapBuffer(s.data, bitOffset, minBits)
}

// mapBuffer implements the byte-aligned-source half of the ByteSource
// contract shared by MmapByteSource and BufferByteSource.
func mapBuffer(buf []byte, bitOffset int64, minBits int) (avail int, data []byte, bitShift int, err error) {
	if bitOffset < 0 {
		return -1, nil, 0, ErrOutsideBoundary
	}
	byteOff := bitOffset / 8
	shift := int(bitOffset % 8)
	if byteOff > int64(len(buf)) {
		return -1, nil, 0, ErrOutsideBoundary
	}
	remaining := buf[byteOff:]
	availBits := len(remaining)*8 - shift
	if availBits < minBits {
		return -1, nil, 0, ErrOutsideBoundary
	}
	return availBits, remaining, shift, nil
}

// BufferByteSource is a ByteSource over an in-memory buffer, used by tests
// and by callers that already hold the whole stream in memory.
type BufferByteSource struct {
	buf []byte
}

// NewBufferByteSource wraps buf as a ByteSource.
func NewBufferByteSource(buf []byte) *BufferByteSource {
	return &BufferByteSource{buf: buf}
}

// Map implements ByteSource.
func (s *BufferByteSource) Map(bitOffset int64, minBits int) (avail int, data []byte, bitShift int, err error) {
	return mapBuffer(s.buf, bitOffset, minBits)
}
