package ra_ring_buffer_go

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"
)

func producer(buffer RaRingBufferInterface[byte], iterations int, data []byte, wg *sync.WaitGroup, totalElements *int) {
	defer wg.Done()

	pos := int64(0)
	for i := 0; i < iterations; i++ {
		n := buffer.Write(data, pos)
		if n == 0 {
			runtime.Gosched()
			continue
		}

		pos += int64(n)
		*totalElements += n
	}
}

func consumer(buffer RaRingBufferInterface[byte], iterations int, dataSize int, wg *sync.WaitGroup, totalElements *int) {
	defer wg.Done()

	p := make([]byte, dataSize)

	pos := int64(0)
	for i := 0; i < iterations; i++ {
		if !buffer.CanRead(pos, dataSize) {
			runtime.Gosched()
			continue
		}

		n := buffer.Read(p, pos, true)
		pos += int64(n)
		*totalElements += n
	}
}

func benchmarkRaRingBuffer(buffer RaRingBufferInterface[byte], iterations int, dataSize int) {
	var wg sync.WaitGroup

	data := make([]byte, dataSize)

	start := time.Now()

	var elementsWritten, elementsRead int

	wg.Add(2)
	go producer(buffer, iterations, data, &wg, &elementsWritten)
	go consumer(buffer, iterations, dataSize, &wg, &elementsRead)
	wg.Wait()

	elapsed := time.Since(start)
	throughput := float64(iterations) / elapsed.Seconds()

	writeGB := float64(elementsWritten) / (1 << 30)
	readGB := float64(elementsRead) / (1 << 30)

	writeGBPs := writeGB / elapsed.Seconds()
	readGBPs := readGB / elapsed.Seconds()

	fmt.Printf("Throughput: %.2f operations/sec\n", throughput)

	fmt.Printf("Write: %.2f GB/sec\n", writeGBPs)
	fmt.Printf("Read: %.2f GB/sec\n", readGBPs)
}

func BenchmarkRaRingBuffer(b *testing.B) {
	iterations := b.N
	const dataSize = 1024
	const bufferSize = 1 << 20

	buffer := NewRaRingBuffer[byte](bufferSize, 8192)

	benchmarkRaRingBuffer(buffer, iterations, dataSize)
}
