// SPDX-License-Identifier: EPL-2.0

package pd

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// BootstrapName is the file name of the generated bootstrap patch.
const BootstrapName = "_quadbinaural_bootstrap.pd"

//go:embed bootstrap.pd.tmpl
var bootstrapSource string

var bootstrapTmpl = template.Must(template.New("bootstrap").Parse(bootstrapSource))

// BootstrapPatch renders the patch that listens on port and forwards every
// FUDI message to the receiver named by its first atom.
func BootstrapPatch(port int) ([]byte, error) {
	var buf bytes.Buffer
	if err := bootstrapTmpl.Execute(&buf, struct{ Port int }{Port: port}); err != nil {
		return nil, fmt.Errorf("render bootstrap: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBootstrap(dir string, port int) (string, error) {
	data, err := BootstrapPatch(port)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, BootstrapName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write bootstrap: %w", err)
	}
	return path, nil
}
