// Package workflows holds what the conversational workflows share: their
// dependencies, input validation, and the conversion of model failures
// into assistant turns.
//
// Each workflow lives in its own subpackage and exports Name, State, Build
// and Summary. Package catalog registers all of them by name.
package workflows
