// Package sandbox provides ports.Sandbox implementations: a directory on disk,
// an in-memory recorder, and Lazy, which boots any sandbox on first use and owns
// it until Close.
package sandbox
