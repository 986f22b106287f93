// Package driver runs a compiled graph as a conversation.
//
// A Driver owns one thread. It invokes the graph, and whenever the graph
// suspends on an interrupt it asks an Input for a line of text and resumes
// the thread with that value bound to the pending interrupt. It stops when
// the graph reaches END.
//
//	d := driver.New(compiled, store)
//	out, err := d.Start(ctx, age.State{}, driver.NewTerminal(os.Stdin, os.Stdout))
//
// The driver moves between three statuses:
//
//	Running -> AwaitingInput   the graph suspended with a prompt
//	AwaitingInput -> Running   the input produced a value
//	Running -> Done            the graph reached END
//
// Continue picks up an existing thread from its latest checkpoint. What
// happens when the thread is unknown to the store is decided by the
// MissingCheckpoint policy.
package driver
