// SPDX-License-Identifier: EPL-2.0

package pd

import (
	"strconv"

	"github.com/ik5/quadbinaural/engine"
)

func processArgs(p engine.Params, flags []string, bootstrap string) []string {
	args := []string{
		"-nogui",
		"-noprefs",
		"-r", strconv.Itoa(p.SampleRate),
		"-inchannels", strconv.Itoa(p.InputChannels),
		"-outchannels", strconv.Itoa(p.OutputChannels),
		"-blocksize", strconv.Itoa(p.BlockSize()),
	}
	args = append(args, flags...)
	return append(args, "-open", bootstrap)
}
