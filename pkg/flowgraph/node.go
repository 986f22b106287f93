package flowgraph

// END is the terminal node identifier.
// Use it as an edge or router target to finish the thread.
const END = "__end__"

// NodeFunc is the signature for all node functions.
//
// A node receives the execution context and the current state and returns
// the updated state. State is passed by value: modify the copy and return
// it. A node that needs human input calls Interrupt and, if that returns an
// error, returns the error unchanged.
//
// Example:
//
//	func askAge(ctx flowgraph.Context, s AgeState) (AgeState, error) {
//	    answer, err := flowgraph.Interrupt(ctx, "Please enter your age:")
//	    if err != nil {
//	        return s, err
//	    }
//	    s.Input = answer
//	    return s, nil
//	}
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc picks the next node from state. Routers must be pure and
// return one of the targets declared with AddConditionalEdge, or END.
//
// Example:
//
//	func route(ctx flowgraph.Context, s AgeState) string {
//	    if s.Valid {
//	        return flowgraph.END
//	    }
//	    return "ask_age"
//	}
type RouterFunc[S any] func(ctx Context, state S) string
