// Package artifact caches image files downloaded from the agent service.
//
// Files are keyed by session so that a front-end only ever serves bytes the
// session itself was shown. The cache lives in process memory and is dropped
// together with the session.
package artifact
