package actionstream

// PacketHandler processes one complete actionpacket. data is valid only for
// the duration of the call; sizeHint equals len(data) and is provided so
// handlers that only need the size can avoid touching the slice.
type PacketHandler func(actionCode string, data []byte, sizeHint int) error

// NodeBatchHandler processes one bounded batch of node-descriptor bytes
// from inside a "t" (tree) actionpacket. Each entry in descriptors is one
// complete JSON object; batchIndex counts batches from zero within the
// enclosing packet.
type NodeBatchHandler func(descriptors [][]byte, batchIndex int) error

// ErrorHandler receives every reported condition, recoverable or not. It
// never aborts the parser itself; the parser decides independently
// whether a condition latches the absorbing error state.
type ErrorHandler func(kind ErrorKind, message string, recovered bool)
