// Package photo is the boundary to the two external image collaborators:
// the degradation filter that turns evidence photos into barely readable
// case artifacts, and the QR decoder. Both run as external tools; this
// package only shells out and interprets their output.
package photo

import (
	"fmt"
	"os/exec"
	"strings"

	"cultgo/backend/internal/gameerr"
)

// Obscurer produces a degraded copy of a photo and returns its path.
type Obscurer interface {
	Obscure(path string) (string, error)
}

// QRDecoder extracts the text payload of a QR code in a photo, returning
// ok=false when the photo has none.
type QRDecoder interface {
	Decode(path string) (string, bool)
}

// ToolObscurer invokes an external command that reads the input path as
// its argument and prints the output path on stdout.
type ToolObscurer struct {
	Command string
}

func (t *ToolObscurer) Obscure(path string) (string, error) {
	out, err := exec.Command(t.Command, path).Output()
	if err != nil {
		return "", gameerr.Wrap(gameerr.ErrExternalFailure, "obscure_failed",
			fmt.Errorf("running %s: %w", t.Command, err))
	}
	result := strings.TrimSpace(string(out))
	if result == "" {
		return "", gameerr.New(gameerr.ErrExternalFailure, "obscure_failed")
	}
	return result, nil
}

// ToolQRDecoder invokes an external command that prints the decoded QR
// payload on stdout, or nothing when no QR is found.
type ToolQRDecoder struct {
	Command string
}

func (t *ToolQRDecoder) Decode(path string) (string, bool) {
	out, err := exec.Command(t.Command, path).Output()
	if err != nil {
		return "", false
	}
	payload := strings.TrimSpace(string(out))
	return payload, payload != ""
}
