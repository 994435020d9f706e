/*
Package session implements session management and persistence orchestration.

A session is one project being generated: the accumulated steps of every generator
response and the file tree they produced. The Manager serializes access per session
ID, so responses for one session are applied in arrival order, and optionally takes
a distributed lock so several replicas can share one store.
*/
package session
