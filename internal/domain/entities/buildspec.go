package entities

// BuildSpec represents a build-and-packaging configuration from YAML.
// It is constructed once per build invocation and never persisted back.
type BuildSpec struct {
	Name           string
	Version        string
	Description    string
	EntryPoint     string
	ModulesRoot    string
	SearchPaths    []string
	Assets         []AssetMapping
	HiddenPackages []string
	HiddenImports  []string
	Icons          IconSet
	OutputName     string
	Console        bool
	Bundle         BundleMetadata
	Tools          []string
	InstallHook    InstallHook
}

// AssetMapping maps a source path to a destination inside the distributable.
// Assets are copied verbatim, never transformed.
type AssetMapping struct {
	Source string
	Dest   string
}

// IconSet holds per-platform icon paths. A platform with no entry gets no icon.
type IconSet struct {
	Darwin  string
	Windows string
}

// IconFor returns the icon path for a platform, or "" when none applies.
func (i IconSet) IconFor(platform Platform) string {
	switch platform {
	case PlatformDarwin:
		return i.Darwin
	case PlatformWindows:
		return i.Windows
	default:
		return ""
	}
}

// BundleMetadata is the fixed key set attached to the macOS application bundle.
type BundleMetadata struct {
	DisplayName    string
	Identifier     string
	HighResolution bool
}

// InstallHook is an optional dependency-installation script declared by a spec.
type InstallHook struct {
	Script         string
	TimeoutMinutes int
}
