// Package openaicompat implements provider.Provider against any backend
// speaking the OpenAI Chat Completions protocol (OpenAI, vLLM, LiteLLM,
// llama.cpp server, and compatible proxies).
package openaicompat
