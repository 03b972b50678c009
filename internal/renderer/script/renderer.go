package script

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"zabbix-chatops/internal/models"
)

// Renderer runs an external chart generator:
//
//	<interpreter> <script> <alert name> <threshold> <unit> <host> <output path>
//
// The resolution chart uses ResolutionScript when set.
type Renderer struct {
	Interpreter      string
	Script           string
	ResolutionScript string
}

func NewRenderer(interpreter, script, resolutionScript string) *Renderer {
	if resolutionScript == "" {
		resolutionScript = script
	}
	return &Renderer{Interpreter: interpreter, Script: script, ResolutionScript: resolutionScript}
}

func (r *Renderer) Render(ctx context.Context, req models.RenderRequest) error {
	script := r.Script
	if req.Resolved {
		script = r.ResolutionScript
	}

	cmd := exec.CommandContext(ctx, r.Interpreter, script,
		req.AlertName,
		strconv.FormatFloat(req.Threshold, 'f', -1, 64),
		req.Unit,
		req.Host,
		req.OutputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("chart script %s failed: %w: %s", script, err, bytes.TrimSpace(stderr.Bytes()))
	}
	if _, err := os.Stat(req.OutputPath); err != nil {
		return fmt.Errorf("chart script %s produced no output: %w", script, err)
	}
	return nil
}
