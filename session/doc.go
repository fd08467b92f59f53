// Package session holds per-user conversation state: the memoized remote
// agent and thread ids, the set of remote message ids already shown, image
// files referenced by the conversation and the local turn history.
//
// Sessions are process local. InMemoryStore keeps them keyed by id and prunes
// idle ones; nothing is persisted.
package session
