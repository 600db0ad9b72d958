//go:build e2e && unix

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEscapeClosesThenQuits(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.CreateTestWorkspace()
	require.NoError(t, err)
	require.NoError(t, tf.StartApp())
	require.True(t, tf.Ready())

	require.NoError(t, tf.Type("auth"))
	require.True(t, tf.SeePlain("Authentication"))

	// First escape closes the panel, the second leaves the program.
	require.NoError(t, tf.SendKeys(KeyEsc))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, tf.SendKeys(KeyEsc))

	exited, _ := tf.WaitExit(3 * time.Second)
	require.True(t, exited, "app did not exit after escape")
}

func TestCtrlCExits(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.CreateTestWorkspace()
	require.NoError(t, err)
	require.NoError(t, tf.StartApp())
	require.True(t, tf.Ready())

	require.NoError(t, tf.SendKeys(KeyCtrlC))
	exited, err := tf.WaitExit(2 * time.Second)
	require.True(t, exited, "app did not exit after ctrl+c")
	require.NoError(t, err)
}
