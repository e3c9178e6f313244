package actionstream

// governor tracks the live byte counters (retained buffer, in-progress
// packet, in-progress batch) and checks them against the configured caps.
// It does not own any buffers itself; the parser feeds it observed sizes
// as processing proceeds.
type governor struct {
	cfg *Config

	bufferBytes       int
	pendingPacketBytes int
	pendingBatchBytes  int
}

func newGovernor(cfg *Config) *governor {
	return &governor{cfg: cfg}
}

func (g *governor) setBufferBytes(n int) {
	g.bufferBytes = n
}

func (g *governor) bufferOverrun() bool {
	return g.bufferBytes > g.cfg.MaxBufferBytes
}

func (g *governor) setPendingPacketBytes(n int) {
	g.pendingPacketBytes = n
}

func (g *governor) packetTooLarge() bool {
	return g.pendingPacketBytes > g.cfg.MaxPacketBytes
}

func (g *governor) addPendingBatchBytes(n int) {
	g.pendingBatchBytes += n
}

func (g *governor) resetPendingBatchBytes() {
	g.pendingBatchBytes = 0
}

func (g *governor) batchThresholdCrossed(count int) bool {
	return count >= g.cfg.MaxBatchCount || g.pendingBatchBytes >= g.cfg.MaxBatchBytes
}

func (g *governor) resetPendingPacketBytes() {
	g.pendingPacketBytes = 0
}
