// Package genai is a minimal client for the Gemini File Search surface of
// the Generative Language API: file search stores, file upload and import,
// long-running operations, and grounded content generation. It speaks the
// v1beta REST protocol directly with typed request/response structs and
// authenticates every call with the per-session API key.
package genai
