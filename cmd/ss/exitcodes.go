package main

// Exit codes
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error (invalid arguments, upstream failure)
	ExitConfigError   = 2 // Configuration error (unreadable config or alias store)
	ExitAliasNotFound = 3 // Alias not in the alias store
	ExitNoDownloadURL = 4 // Paper has neither an open-access link nor an arXiv ID
)
