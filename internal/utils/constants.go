package utils

const (
	// LoggerInitializationFailedMessageFormat reports a failure to construct the application logger.
	LoggerInitializationFailedMessageFormat = "initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal errors returned by the command line interface.
	ApplicationExecutionFailedMessage = "snapshot failed"
)

// Configuration file locations.
const (
	// ConfigFileName is the name of the local configuration file in the project root.
	ConfigFileName = ".snapshot.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".snapshot"
	// GlobalConfigFileName is the name of the global configuration file.
	GlobalConfigFileName = "config.yaml"
)

// DefaultOutputFileName is the artifact written into the project root.
const DefaultOutputFileName = "project_structure_and_contents.txt"
