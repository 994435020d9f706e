// Package runtime folds build steps into a file tree and compiles the tree into a
// sandbox mount descriptor.
//
// Both stages are pure: inputs are never modified, and a materialization that
// changes nothing returns the very same *domain.Tree it was given. Callers use
// that pointer identity to decide whether downstream work (mount compilation,
// sandbox publication, notifications) is needed.
package runtime
