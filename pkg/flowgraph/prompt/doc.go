/*
Package prompt renders the text sent to the model.

Prompts are plain strings with ${name} placeholders:

	var research = prompt.New("research", "Summarize what is publicly known about ${person} at ${company}.")

	text, err := research.Render(map[string]any{"person": s.Person, "company": s.Company})

Render is strict: a placeholder with no value is an *UndefinedVariableError,
so a typo in a workflow surfaces in tests instead of reaching the model.
RenderLenient keeps unknown placeholders as-is and never fails; use it for
text that comes from the user or configuration.

A bare dollar sign that is not followed by a brace ("$5 budget") is
left alone.

Templates are immutable and safe for concurrent use.
*/
package prompt
