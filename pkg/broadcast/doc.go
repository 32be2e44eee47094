// Package broadcast provides type-safe, non-blocking fan-out of messages to
// in-process subscribers.
//
// Basic usage:
//
//	b := broadcast.NewMemoryBroadcaster[string](10)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"})
//
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Data)
//	}
//
// By default a subscriber whose buffer is full is dropped. For state
// snapshots use WithConflation, which keeps the subscriber and discards its
// oldest pending message instead, and WithReplayLatest, which hands the most
// recent message to late subscribers:
//
//	states := broadcast.NewMemoryBroadcaster[State](1,
//		broadcast.WithConflation(),
//		broadcast.WithReplayLatest(),
//	)
//
// Subscribers are removed when their context is cancelled, when they are
// closed, or when the broadcaster is closed.
package broadcast
