/*
Package forge turns the free-text output of a code generator into build steps and a
project file tree.

A generator answers with pseudo-XML: one wrapper tag describing the project and action
tags describing files to write and shell commands to run. Forge parses that text into an
ordered list of steps, folds the pending file steps into a path-addressed tree, and
compiles the tree into a mount descriptor an execution sandbox can load.

# Pipeline

  - Parse: text becomes steps. Nothing is fatal; unrecognized text yields fewer steps.
  - Apply: pending CreateFile steps are written into a copy of the tree.
  - Mount: the tree becomes a nested name → file/directory mapping.

Each stage is pure. A pass that changes nothing returns the same *domain.Tree it was
given, so callers can compare pointers to skip downstream work.

# Usage

	eng := forge.New(forge.WithLogger(logger))

	project := domain.NewProject("demo", "a todo app")
	project, res := eng.Ingest(ctx, project, generatorText)
	for _, d := range res.Skipped {
		log.Printf("skipped: %v", d)
	}

	mount := eng.Mount(project.Tree)

Long-lived sessions live in pkg/workspace (in-process, observable) and pkg/session
(persisted through a ports.ProjectStore).
*/
package forge
