//go:build !unix

package localmedia

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
