package tagger

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/cognicore/ingredients/pkg/ingredients/internalerr"
)

// DefaultCRFBinary is the CRF++ test program.
const DefaultCRFBinary = "crf_test"

// CRF runs CRF++'s crf_test against a trained model. The export text is
// written to a temporary file for each call, so concurrent calls do not
// share anything.
type CRF struct {
	Binary  string
	Model   string
	Timeout time.Duration

	fingerprint string
}

// NewCRF checks that the model exists and fingerprints it.
func NewCRF(binary, model string, timeout time.Duration) (*CRF, error) {
	if binary == "" {
		binary = DefaultCRFBinary
	}
	data, err := os.ReadFile(model)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", internalerr.ErrModelMissing, model)
		}
		return nil, fmt.Errorf("read model %s: %w", model, err)
	}
	sum := blake3.Sum256(data)

	return &CRF{
		Binary:      binary,
		Model:       model,
		Timeout:     timeout,
		fingerprint: "crf:" + hex.EncodeToString(sum[:]),
	}, nil
}

// Fingerprint returns the blake3 digest of the model file read by NewCRF.
func (c *CRF) Fingerprint() string {
	return c.fingerprint
}

// Tag runs crf_test --verbose=1 --model <model> <tmpfile>.
func (c *CRF) Tag(ctx context.Context, input string) (string, error) {
	if _, err := os.Stat(c.Model); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", internalerr.ErrModelMissing, c.Model)
		}
		return "", fmt.Errorf("stat model %s: %w", c.Model, err)
	}

	f, err := os.CreateTemp("", "ingredients-*.crf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(input); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	binary := c.Binary
	if binary == "" {
		binary = DefaultCRFBinary
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "--verbose=1", "--model", c.Model, f.Name())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		invErr := &InvocationError{
			Tagger: binary,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			invErr.Err = ctxErr
		} else {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				invErr.ExitCode = exitErr.ExitCode()
			}
		}
		return "", invErr
	}

	return stdout.String(), nil
}
