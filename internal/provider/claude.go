package provider

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/brianndofor/trialrev/internal/config"
)

// ClaudeRunner shells out to a local CLI that reads a prompt on stdin and
// prints the completion. Args may contain {MODEL}, replaced per request.
type ClaudeRunner struct {
	command string
	args    []string
}

func NewClaudeRunner(cfg config.ModelConfig) *ClaudeRunner {
	command := cfg.Command
	if command == "" {
		command = "claude"
	}
	return &ClaudeRunner{command: command, args: cfg.Args}
}

func (c *ClaudeRunner) Complete(ctx context.Context, req Request) (string, error) {
	cmd := exec.CommandContext(ctx, c.command, c.renderArgs(req.Model)...)
	cmd.Stdin = strings.NewReader(req.Prompt)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("provider command cancelled: %w", ctxErr)
		}
		return "", fmt.Errorf("provider command failed: %w\n%s", err, stderr.String())
	}
	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: %s produced empty output", ErrEmptyCompletion, c.command)
	}
	return out, nil
}

func (c *ClaudeRunner) renderArgs(model string) []string {
	args := make([]string, 0, len(c.args))
	for i := 0; i < len(c.args); i++ {
		arg := c.args[i]
		if strings.Contains(arg, "{MODEL}") {
			if model == "" {
				// drop "--model {MODEL}" pairs entirely
				if len(args) > 0 && strings.HasPrefix(args[len(args)-1], "--") {
					args = args[:len(args)-1]
				}
				continue
			}
			arg = strings.ReplaceAll(arg, "{MODEL}", model)
		}
		args = append(args, arg)
	}
	return args
}

func (c *ClaudeRunner) HealthCheck(ctx context.Context) error {
	if _, err := exec.LookPath(c.command); err != nil {
		return fmt.Errorf("provider not found: %s", c.command)
	}
	cmd := exec.CommandContext(ctx, c.command, "--version")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("provider health check timed out")
		}
		return fmt.Errorf("provider health check failed: %w\n%s", err, stderr.String())
	}
	return nil
}
