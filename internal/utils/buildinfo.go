package utils

import (
	"runtime/debug"
)

const (
	unknownVersion      = "unknown"
	developmentVersion  = "(devel)"
	revisionSettingKey  = "vcs.revision"
	modifiedSettingKey  = "vcs.modified"
	shortRevisionLength = 12
	dirtyRevisionSuffix = "-dirty"
)

// GetApplicationVersion reports the module version recorded by the Go toolchain.
// Development builds fall back to the VCS revision embedded at build time.
func GetApplicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if !buildInfoAvailable {
		return unknownVersion
	}
	if buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}
	return revisionFromSettings(buildInfo.Settings)
}

func revisionFromSettings(settings []debug.BuildSetting) string {
	revision := ""
	modified := false
	for _, setting := range settings {
		switch setting.Key {
		case revisionSettingKey:
			revision = setting.Value
		case modifiedSettingKey:
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return unknownVersion
	}
	if len(revision) > shortRevisionLength {
		revision = revision[:shortRevisionLength]
	}
	if modified {
		revision += dirtyRevisionSuffix
	}
	return revision
}
