package gateways

import (
	"os/exec"
)

// ToolStatus reports whether one external tool resolves on the search path.
type ToolStatus struct {
	Name  string
	Path  string
	Found bool
}

// ToolchainProbe checks that the external executables the packaged
// application shells out to at run time resolve via the inherited search
// path. The pipeline never modifies PATH; this probe only reads it.
type ToolchainProbe struct {
	lookPath func(string) (string, error)
}

// NewToolchainProbe creates a probe backed by the process search path.
func NewToolchainProbe() *ToolchainProbe {
	return &ToolchainProbe{lookPath: exec.LookPath}
}

// Probe resolves every tool and reports each result.
func (p *ToolchainProbe) Probe(tools []string) []ToolStatus {
	statuses := make([]ToolStatus, 0, len(tools))
	for _, tool := range tools {
		path, err := p.lookPath(tool)
		statuses = append(statuses, ToolStatus{
			Name:  tool,
			Path:  path,
			Found: err == nil,
		})
	}
	return statuses
}

// Missing returns the names of tools that do not resolve.
func (p *ToolchainProbe) Missing(tools []string) []string {
	var missing []string
	for _, status := range p.Probe(tools) {
		if !status.Found {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
