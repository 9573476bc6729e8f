// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package fuzzutil

import "math/rand"

// MakeRandomSeeds returns a handful of deterministic byte streams of
// varying lengths, suitable as f.Add seed corpus entries for a fuzz test
// built on NewTestRun. Short streams exercise a handful of operations;
// long ones exercise many in sequence, including operations that run
// out of bytes partway through (ByteConsumer zero-fills in that case).
func MakeRandomSeeds() [][]byte {
	r := rand.New(rand.NewSource(1))
	lengths := []int{0, 1, 10, 50, 100, 500, 1000}
	seeds := make([][]byte, len(lengths))
	for i, length := range lengths {
		seeds[i] = randomBytes(r, length)
	}
	return seeds
}

func randomBytes(r *rand.Rand, size int) []byte {
	bytes := make([]byte, size)
	r.Read(bytes)
	return bytes
}
