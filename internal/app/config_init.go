package app

import (
	"fmt"
	"io"
	"os"

	"github.com/tturner/cipmsg/internal/config"
)

// RunConfigInit writes an example configuration to path.
func RunConfigInit(out io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.WriteDefaultClientConfig(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote example configuration to %s\n", path)
	return nil
}
