// Package handle manages operator lifetimes across a boundary where the
// caller and the core do not share a memory-management model: one side
// garbage-collected, the other holding real resources.
//
// Instead of exposing addresses, the registry issues opaque monotonic
// tokens and keeps a token-to-operator table. Resolution looks a token
// up on every call; release removes the entry before tearing the
// operator down, making release linearizable with respect to resolve and
// double release a clean lookup error rather than a double free. Tokens
// are never reused, so a handle kept past its release can never alias a
// newer operator.
package handle
