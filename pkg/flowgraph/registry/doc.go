// Package registry provides a thread-safe, ordered registry of named values.
//
// It backs the workflow catalog and the LLM toolbox, both of which need
// lookup by name and a stable listing order:
//
//	tools := registry.New[llm.Tool]()
//	tools.MustRegister("add_expense", addExpense)
//
//	for name, tool := range tools.All() {
//	    fmt.Println(name, tool.Description)
//	}
//
// Names are unique; Register returns ErrDuplicate for a second value under
// the same name.
package registry
