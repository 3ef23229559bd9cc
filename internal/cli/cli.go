// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/snapshot/internal/config"
	"github.com/temirov/snapshot/internal/services/clipboard"
	"github.com/temirov/snapshot/internal/snapshot"
	"github.com/temirov/snapshot/internal/tokenizer"
	"github.com/temirov/snapshot/internal/types"
	"github.com/temirov/snapshot/internal/utils"
)

const (
	outputFlagName       = "output"
	outputFlagShorthand  = "o"
	configFlagName       = "config"
	copyFlagName         = "copy"
	tokensFlagName       = "tokens"
	modelFlagName        = "model"
	verboseFlagName      = "verbose"
	verboseFlagShorthand = "v"
	versionFlagName      = "version"
	globalFlagName       = "global"
	forceFlagName        = "force"

	versionTemplate        = "snapshot version: %s\n"
	confirmationTemplate   = "Project structure and file contents have been written to '%s'\n"
	initConfirmationFormat = "Configuration written to %s\n"
	rootUse                = "snapshot"
	rootShortDescription   = "write a tree and file contents snapshot of the current directory"
	initUse                = "init"
	initShortDescription   = "write a default configuration file"

	// rootLongDescription provides detailed help for the root command.
	rootLongDescription = `snapshot walks the current directory, renders an ASCII tree of its structure
and appends the contents of Python, YAML and Docker files into ` + utils.DefaultOutputFileName + `.
Paths matched by the root .gitignore and the .git directory are left out.
Defaults can be stored in ` + utils.ConfigFileName + ` or ~/` + utils.GlobalConfigDirectoryName + `/` + utils.GlobalConfigFileName + `.`
	// rootUsageExample demonstrates root command usage.
	rootUsageExample = `  # Snapshot the current project
  snapshot

  # Write to a different file and report the token count
  snapshot --output context.txt --tokens

  # Copy the snapshot to the clipboard
  snapshot --copy`
	// initLongDescription provides detailed help for the init command.
	initLongDescription = `Write a default configuration file to ./` + utils.ConfigFileName + `
or, with --global, to ~/` + utils.GlobalConfigDirectoryName + `/` + utils.GlobalConfigFileName + `.`

	outputFlagDescription  = "artifact file name inside the project root"
	configFlagDescription  = "configuration file to read instead of " + utils.ConfigFileName
	copyFlagDescription    = "copy the artifact to the system clipboard"
	tokensFlagDescription  = "report the artifact token count"
	modelFlagDescription   = "tokenizer model to use for token counting"
	verboseFlagDescription = "log excluded entries and other debug details"
	versionFlagDescription = "display application version"
	globalFlagDescription  = "write the global configuration file"
	forceFlagDescription   = "overwrite an existing configuration file"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	warningTokenCountMessage    = "failed to count artifact tokens"
	warningCopyMessage          = "failed to copy artifact to clipboard"
	tokenCountMessage           = "artifact token count"
	snapshotSummaryMessage      = "snapshot complete"
)

// CounterFactory builds a token counter for the configured model.
type CounterFactory func(tokenizer.Config) (tokenizer.Counter, string, error)

// Dependencies carries the collaborators of the root command. Zero values are
// replaced with production implementations.
type Dependencies struct {
	Logger         *zap.Logger
	LogLevel       *zap.AtomicLevel
	Copier         clipboard.Copier
	CounterFactory CounterFactory
	ExecutablePath string
}

func (dependencies Dependencies) withDefaults() Dependencies {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Copier == nil {
		dependencies.Copier = clipboard.NewService()
	}
	if dependencies.CounterFactory == nil {
		dependencies.CounterFactory = tokenizer.NewCounter
	}
	if dependencies.ExecutablePath == "" {
		dependencies.ExecutablePath = snapshot.CurrentExecutable()
	}
	return dependencies
}

// Execute runs the snapshot application.
func Execute(logger *zap.Logger, logLevel *zap.AtomicLevel) error {
	rootCommand := NewRootCommand(Dependencies{Logger: logger, LogLevel: logLevel})
	return rootCommand.ExecuteContext(context.Background())
}

// snapshotOptions stores the values of the root command flags.
type snapshotOptions struct {
	outputFileName    string
	configurationPath string
	copyEnabled       bool
	tokensEnabled     bool
	tokenModel        string
	verbose           bool
	showVersion       bool
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	dependencies = dependencies.withDefaults()
	var options snapshotOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if options.verbose && dependencies.LogLevel != nil {
				dependencies.LogLevel.SetLevel(zapcore.DebugLevel)
			}
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			return runSnapshot(command, dependencies, options)
		},
	}

	rootCommand.Flags().StringVarP(&options.outputFileName, outputFlagName, outputFlagShorthand, utils.DefaultOutputFileName, outputFlagDescription)
	rootCommand.Flags().StringVar(&options.configurationPath, configFlagName, "", configFlagDescription)
	rootCommand.Flags().BoolVar(&options.copyEnabled, copyFlagName, false, copyFlagDescription)
	rootCommand.Flags().BoolVar(&options.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	rootCommand.Flags().StringVar(&options.tokenModel, modelFlagName, "", modelFlagDescription)
	rootCommand.Flags().BoolVar(&options.showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().BoolVarP(&options.verbose, verboseFlagName, verboseFlagShorthand, false, verboseFlagDescription)

	rootCommand.AddCommand(createInitCommand())
	rootCommand.CompletionOptions.DisableDefaultCmd = true
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand() *cobra.Command {
	var globalTarget bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if globalTarget {
				target = config.InitTargetGlobal
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(command.OutOrStdout(), initConfirmationFormat, destinationPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&globalTarget, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// runSnapshot resolves configuration, writes the artifact and performs the optional
// clipboard and token steps.
func runSnapshot(command *cobra.Command, dependencies Dependencies, options snapshotOptions) error {
	logger := dependencies.Logger
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}

	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.configurationPath,
	})
	if configurationError != nil {
		return configurationError
	}
	applicationConfiguration = applyFlagOverrides(command, applicationConfiguration, options)
	if validationError := applicationConfiguration.Validate(); validationError != nil {
		return validationError
	}

	result, snapshotError := snapshot.Run(command.Context(), snapshot.Options{
		Root:            workingDirectory,
		OutputFileName:  applicationConfiguration.OutputFileName(),
		ExtraExclusions: applicationConfiguration.Exclude,
		ExecutablePath:  dependencies.ExecutablePath,
		Logger:          logger,
	})
	if snapshotError != nil {
		return snapshotError
	}
	logger.Debug(snapshotSummaryMessage,
		zap.Int("tree_lines", result.TreeLineCount),
		zap.Int("files", result.CollectedFileCount),
		zap.String("size", utils.FormatFileSize(result.SizeBytes)))

	if applicationConfiguration.TokensEnabled() {
		reportTokenCount(logger, dependencies.CounterFactory, applicationConfiguration.TokenModel(), result)
	}
	if applicationConfiguration.CopyEnabled() {
		if copyError := dependencies.Copier.Copy(result.Artifact); copyError != nil {
			logger.Warn(warningCopyMessage, zap.Error(copyError))
		}
	}

	fmt.Fprintf(command.OutOrStdout(), confirmationTemplate, result.ArtifactPath)
	return nil
}

// applyFlagOverrides lets explicitly set flags win over configuration files.
func applyFlagOverrides(command *cobra.Command, applicationConfiguration config.ApplicationConfiguration, options snapshotOptions) config.ApplicationConfiguration {
	flags := command.Flags()
	if flags.Changed(outputFlagName) {
		applicationConfiguration.Output = options.outputFileName
	}
	if flags.Changed(copyFlagName) {
		copyEnabled := options.copyEnabled
		applicationConfiguration.Copy = &copyEnabled
	}
	if flags.Changed(tokensFlagName) {
		tokensEnabled := options.tokensEnabled
		applicationConfiguration.Tokens.Enabled = &tokensEnabled
	}
	if flags.Changed(modelFlagName) {
		applicationConfiguration.Tokens.Model = options.tokenModel
	}
	return applicationConfiguration
}

func reportTokenCount(logger *zap.Logger, counterFactory CounterFactory, model string, result types.SnapshotResult) {
	counter, resolvedModel, counterError := counterFactory(tokenizer.Config{Model: model})
	if counterError != nil {
		logger.Warn(warningTokenCountMessage, zap.Error(counterError))
		return
	}
	tokenCount, countError := tokenizer.CountText(counter, result.Artifact)
	if countError != nil {
		logger.Warn(warningTokenCountMessage, zap.Error(countError))
		return
	}
	logger.Info(tokenCountMessage,
		zap.Int("tokens", tokenCount),
		zap.String("model", resolvedModel))
}
