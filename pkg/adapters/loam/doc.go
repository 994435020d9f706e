// Package loam stores generator transcripts in a Loam document repository.
package loam
