package types

// Version is the canonical project version. The CLI, persisted record
// layout, and event payloads share this version (lockstep versioning).
const Version = "0.3.0"
