/*
Package domain contains the core domain models of forge.

It defines the vocabulary shared by the parser, the materializer and every adapter.
The package is kept pure and free of I/O or persistence concerns.

# Key Entities

  - Step: one typed, statused build instruction extracted from generator text.
  - FileItem / Tree: the materialized project structure, addressed by path.
  - MountDescriptor: the nested file/directory mapping handed to an execution sandbox.
  - Project: the persisted snapshot of a session (steps + tree).
  - ProjectDiff: the delta between two project snapshots, used for streaming updates.
*/
package domain
