package main

// Defaults for CLI commands.
const (
	DefaultDueDays     = 7
	DefaultSearchLimit = 5
	DefaultHistorySize = 20
)

// Valid import formats and conflict strategies.
var (
	validFormats    = []string{"auto", "json", "csv"}
	validStrategies = []string{"skip", "overwrite"}
)
