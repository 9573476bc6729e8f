// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.
package slabstore

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mmapRegion reserves a zero-initialized, anonymous backing region of the
// given length. The returned slice is not visible to the garbage
// collector; it must be released with munmapRegion.
func mmapRegion(length int) ([]byte, error) {
	data, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("slabstore: cannot mmap %d bytes: %w", length, err)
	}
	return data, nil
}

// munmapRegion releases a region obtained from mmapRegion.
func munmapRegion(data []byte) error {
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("slabstore: cannot munmap %d bytes: %w", len(data), err)
	}
	return nil
}
