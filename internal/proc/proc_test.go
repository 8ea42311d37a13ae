// SPDX-License-Identifier: EPL-2.0

package proc

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ik5/quadbinaural/logger"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStart_ForwardsOutput(t *testing.T) {
	t.Parallel()

	var out syncBuffer
	p, err := Start("echo", "sh", []string{"-c", "echo hello from child"}, logger.NewWriter(&out, true))
	require.NoError(t, err)

	select {
	case <-p.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit")
	}
	require.NoError(t, p.Err())
	require.NoError(t, p.Stop(0))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "hello from child")
	}, time.Second, 10*time.Millisecond)
}

func TestStop_KillsAfterGrace(t *testing.T) {
	t.Parallel()

	p, err := Start("sleep", "sleep", []string{"30"}, nil)
	require.NoError(t, err)
	require.Positive(t, p.Pid())
	require.NoError(t, p.Err())

	require.NoError(t, p.Stop(10*time.Millisecond))
	select {
	case <-p.Exited():
	default:
		t.Fatal("process still running after Stop")
	}
}

func TestStart_MissingBinary(t *testing.T) {
	t.Parallel()

	_, err := Start("ghost", "/nonexistent/binary-for-test", nil, nil)
	require.Error(t, err)
}
