// SPDX-License-Identifier: EPL-2.0

package orientation

import "errors"

var (
	ErrComponents = errors.New("orientation: look vector needs exactly 3 components")
)
