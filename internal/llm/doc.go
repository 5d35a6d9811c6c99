// Package llm runs chat completions against a locally hosted language model.
// It locates model files on disk, loads a handle to an OpenAI-compatible
// inference server at most once per process and exposes the result through
// the small Completer interface.
package llm
