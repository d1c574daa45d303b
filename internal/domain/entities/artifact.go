package entities

// Artifact represents a produced distributable.
type Artifact struct {
	Name     string
	Version  string
	Platform Platform
	Path     string
	Type     string // "launcher", "bundle"
}
