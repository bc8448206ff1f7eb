package commands

// Flags are the global zonectl flags shared by every subcommand.
type Flags struct {
	LogLevel string
	JSON     bool
}
