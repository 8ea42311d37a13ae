// SPDX-License-Identifier: EPL-2.0

package aiff

import "errors"

var (
	ErrNotAiffFile = errors.New("aiff: not an AIFF file")
	ErrNoFormat    = errors.New("aiff: missing COMM chunk")
)
