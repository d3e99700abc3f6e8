package main

// Exit codes
const (
	ExitSuccess           = 0 // Success
	ExitError             = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError       = 2 // Configuration error (no workspace, invalid config)
	ExitDataError         = 3 // Data error (unreadable source or document file)
	ExitOllamaUnavailable = 4 // Ollama not reachable
	ExitModelNotFound     = 5 // Embedding model not pulled
)
