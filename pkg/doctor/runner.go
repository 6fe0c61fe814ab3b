package doctor

import (
	"bytes"
	"os"
	"os/exec"
)

// Runner is the process and filesystem access the checks need.
// Tests substitute a fake.
type Runner interface {
	LookPath(file string) (string, error)
	// Output runs name and returns stdout, or stderr when stdout is empty.
	Output(name string, args ...string) (string, error)
	// Shell runs command with sh -c and returns combined output.
	Shell(command string) ([]byte, error)
	Exists(path string) bool
}

// SystemRunner runs real processes.
type SystemRunner struct{}

func (SystemRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (SystemRunner) Output(name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	// Some tools print their version on stderr.
	if stdout.Len() == 0 || (err != nil && stderr.Len() > 0) {
		return stderr.String(), err
	}
	return stdout.String(), err
}

func (SystemRunner) Shell(command string) ([]byte, error) {
	return exec.Command("sh", "-c", command).CombinedOutput()
}

func (SystemRunner) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
