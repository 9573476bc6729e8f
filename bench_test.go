package slabpool

import "testing"

func BenchmarkBufferPush(b *testing.B) {
	a := NewDefault()
	defer a.Close()

	buf := NewBuffer(a)
	defer buf.Release()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Push(1)
	}
}

func Benchmark4KiBBufferWithCapacity(b *testing.B) {
	a := NewDefault()
	defer a.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf := NewBufferWithCapacity(a, 4096)
		buf.Release()
	}
}

func BenchmarkAllocate16Bytes(b *testing.B) {
	a := NewDefault()
	defer a.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		alloc := a.Allocate(16)
		alloc.Release()
	}
}
