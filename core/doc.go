// Package core provides the foundational domain types shared by the chat
// front-ends. It defines the core abstractions for:
//
//   - Parts and messages (remote content as it was returned by the agent service)
//   - Turns (the local record used to redisplay a conversation)
//   - Runs (one remote agent execution against a thread and its status)
//   - Agent specifications and the errors surfaced by a chat turn
//
// The package keeps implementation concerns (remote transport, rendering,
// session bookkeeping) out of scope so every front-end can share it.
package core
