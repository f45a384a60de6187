package point_loader

import (
	"bytes"
	"log"
	"os/exec"

	"github.com/pkg/errors"
)

// ConvertToAscii invokes the configured converter binary to turn an input
// file in an unsupported format into an ASCII point file at outputPath. The
// converter contract is <converter> <input> <output>.
func ConvertToAscii(converterPath string, inputPath string, outputPath string) error {
	runCmd := exec.Command(converterPath, inputPath, outputPath)

	var cmdStdout, cmdStderr bytes.Buffer
	runCmd.Stdout = &cmdStdout
	runCmd.Stderr = &cmdStderr

	if err := runCmd.Run(); err != nil {
		log.Println("run failed", runCmd.String(), "cmd-stdout", cmdStdout.String(), "cmd-stderr", cmdStderr.String(), err.Error())
		return errors.Wrapf(err, "converting %s with %s", inputPath, converterPath)
	}

	return nil
}
