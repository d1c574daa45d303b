package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/namecards/bindery/internal/domain/entities"
)

// HookExecutor runs the dependency-installation hook a build spec may
// declare. Hooks run before packaging, never during it: the pack pipeline
// itself performs no script execution and no network access.
type HookExecutor struct {
	defaultTimeout time.Duration
}

// NewHookExecutor creates a new hook executor
func NewHookExecutor() *HookExecutor {
	return &HookExecutor{
		defaultTimeout: 15 * time.Minute,
	}
}

// ExecuteScriptConfig contains configuration for executing a shell script.
type ExecuteScriptConfig struct {
	Script      string
	WorkingDir  string
	Env         map[string]string
	Timeout     time.Duration
	Description string
}

// ExecuteResult contains the result of script execution
type ExecuteResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// ExecuteScript runs a shell script with the given configuration
func (he *HookExecutor) ExecuteScript(ctx context.Context, config ExecuteScriptConfig) *ExecuteResult {
	startTime := time.Now()
	result := &ExecuteResult{}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = he.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Use /bin/sh for maximum compatibility
	//nolint:gosec // G204: Script execution is intentional and controlled by spec configuration
	cmd := exec.CommandContext(execCtx, "/bin/sh", "-c", config.Script)

	if config.WorkingDir != "" {
		cmd.Dir = config.WorkingDir
	}

	// The hook inherits the full host environment so installed toolchains
	// resolve exactly as they would in the operator's shell.
	env := os.Environ()
	for key, value := range config.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if config.Description != "" {
		fmt.Fprintf(os.Stderr, "Executing: %s\n", config.Description)
	}

	err := cmd.Run()
	result.Duration = time.Since(startTime)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		var exitErr *exec.ExitError
		//nolint:gocritic // ifElseChain: checking different error types, not suitable for switch
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else if execCtx.Err() == context.DeadlineExceeded {
			result.Error = fmt.Errorf("script execution timeout after %v", timeout)
			result.ExitCode = -1
		} else {
			result.ExitCode = -1
		}
		return result
	}

	result.Success = true
	result.ExitCode = 0
	return result
}

// RunInstallHook executes the install hook of a build spec, if any.
func (he *HookExecutor) RunInstallHook(ctx context.Context, spec *entities.BuildSpec) error {
	if strings.TrimSpace(spec.InstallHook.Script) == "" {
		return fmt.Errorf("spec %s declares no install hook", spec.Name)
	}

	env := map[string]string{
		"SPEC":         spec.Name,
		"VERSION":      spec.Version,
		"MODULES_ROOT": spec.ModulesRoot,
	}
	if len(spec.SearchPaths) > 0 {
		env["VENDOR_DIR"] = spec.SearchPaths[0]
	}

	timeout := he.defaultTimeout
	if spec.InstallHook.TimeoutMinutes > 0 {
		timeout = time.Duration(spec.InstallHook.TimeoutMinutes) * time.Minute
	}

	result := he.ExecuteScript(ctx, ExecuteScriptConfig{
		Script:      spec.InstallHook.Script,
		WorkingDir:  spec.ModulesRoot,
		Env:         env,
		Timeout:     timeout,
		Description: "install hook",
	})

	if !result.Success {
		return fmt.Errorf("install hook failed (exit %d): %w\nStderr: %s",
			result.ExitCode, result.Error, result.Stderr)
	}

	if result.Stdout != "" {
		fmt.Fprintf(os.Stderr, "Install hook output: %s\n", result.Stdout)
	}
	fmt.Fprintf(os.Stderr, "Install hook completed in %v\n", result.Duration)

	return nil
}
