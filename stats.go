package actionstream

import "time"

// Stats holds the monotonically increasing counters and time-valued
// fields a caller polls for progress and diagnostics, alongside a
// synchronous host memory sample.
type Stats struct {
	BytesProcessed      int64
	PacketsProcessed    int64
	PartialPackets      int64
	LargeElements       int64
	TreeBatches         int64
	MaxPacketSize       int64
	PeakMemory          int64
	TotalProcessingTime time.Duration
	StartTime           time.Time

	// HostMemoryPercent and HostMemoryUsedBytes are sampled once per
	// ProcessChunk call via gopsutil; they reflect the whole host, not
	// just this process or this parser's own allocations.
	HostMemoryPercent  float64
	HostMemoryUsedBytes uint64
}

// reset clears all counters and rearms start_time, keeping nothing else.
func (s *Stats) reset(now time.Time) {
	*s = Stats{StartTime: now}
}

func (s *Stats) recordPacket(size int) {
	s.PacketsProcessed++
	if int64(size) > s.MaxPacketSize {
		s.MaxPacketSize = int64(size)
	}
}

func (s *Stats) recordLargeElement() {
	s.LargeElements++
}

func (s *Stats) recordPartialPacket() {
	s.PartialPackets++
}

func (s *Stats) recordBatch() {
	s.TreeBatches++
}

func (s *Stats) recordMemorySample(currentBytes int64, percent float64, usedBytes uint64) {
	if currentBytes > s.PeakMemory {
		s.PeakMemory = currentBytes
	}
	s.HostMemoryPercent = percent
	s.HostMemoryUsedBytes = usedBytes
}
