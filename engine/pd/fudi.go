// SPDX-License-Identifier: EPL-2.0

package pd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ik5/quadbinaural/engine"
)

var atomEscaper = strings.NewReplacer(
	`\`, `\\`,
	" ", `\ `,
	";", `\;`,
	",", `\,`,
	"$", `\$`,
	"\t", `\ `,
	"\n", `\ `,
)

// encode renders one FUDI message terminated by ";\n".
func encode(receiver string, args ...any) ([]byte, error) {
	if receiver == "" {
		return nil, fmt.Errorf("%w: empty receiver", engine.ErrUnsupportedArg)
	}

	var b strings.Builder
	b.WriteString(atomEscaper.Replace(receiver))
	for i, a := range args {
		atom, err := formatAtom(a)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		b.WriteByte(' ')
		b.WriteString(atom)
	}
	b.WriteString(";\n")

	return []byte(b.String()), nil
}

func formatAtom(a any) (string, error) {
	switch v := a.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("%w: empty symbol", engine.ErrUnsupportedArg)
		}
		return atomEscaper.Replace(v), nil
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case fmt.Stringer:
		return formatAtom(v.String())
	default:
		return "", fmt.Errorf("%w: %T", engine.ErrUnsupportedArg, a)
	}
}

func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", engine.ErrUnsupportedArg, f)
	}
	return strconv.FormatFloat(f, 'g', -1, bits), nil
}
