/*
Package ports defines the driven ports (interfaces) of forge.

These interfaces decouple parsing and materialization from the outside world,
allowing sessions to be stored, locked, mounted and fed by interchangeable adapters.

# Key Interfaces

  - ProjectStore: persists and loads session projects.
  - DistributedLocker: coordinates concurrent session access across replicas.
  - Sandbox: receives mount descriptors.
  - Generator: the prompt-completion backend.
  - TranscriptStore: keeps raw generator responses.
*/
package ports
