// Package transition is the stage transition API: it previews and commits
// the move of a project to its next stage.
//
// Preview resolves the cascade without side effects. Advance resolves the
// same cascade, merges it into the destination bucket without overwriting
// operator values, moves the project forward and persists it with an
// optimistic version check. A concurrent advance of the same project
// surfaces as ErrConflict and is never retried here.
package transition
