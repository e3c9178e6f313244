// Package actionstream turns a sequence of raw byte chunks into a
// sequence of actionpacket callbacks.
//
// A typical caller owns a long-lived connection (an HTTP response body,
// a websocket, a replayed log) and feeds whatever bytes arrive into
// ProcessChunk as they arrive, regardless of where JSON tokens happen to
// fall across chunk boundaries:
//
//	p := actionstream.NewParser(
//		actionstream.WithMaxPacketBytes(4<<20),
//		actionstream.WithDiagnostics(true),
//	)
//	p.SetPacketHandler("f", handleFileChange)
//	p.SetDefaultPacketHandler(handleOther)
//	p.SetNodeBatchHandler(ingestNodeBatch)
//	p.SetErrorHandler(func(kind actionstream.ErrorKind, msg string, recovered bool) {
//		log.Printf("actionstream: %s (recovered=%v): %s", kind, recovered, msg)
//	})
//
//	for {
//		n, err := conn.Read(buf)
//		if err != nil {
//			break
//		}
//		p.ProcessChunk(buf[:n])
//		if p.HasError() {
//			break
//		}
//	}
//
// ProcessChunk never blocks on I/O. It does not stop a chunk from growing
// the retained buffer past the bound set by WithMaxBufferBytes; when the
// bytes it retains after a call exceed that bound it reports
// ErrBufferOverrun and latches the error state. A single Parser is
// not safe for concurrent use and must not be re-entered from within a
// handler it invokes.
package actionstream
