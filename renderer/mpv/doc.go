// SPDX-License-Identifier: EPL-2.0

// Package mpv implements renderer.Renderer by driving mpv through its JSON IPC
// socket with github.com/dexterlb/mpvipc.
//
// mpv is started lazily on the first Prepare as
//
//	mpv --idle=yes --pause --keep-open=yes --no-terminal --input-ipc-server=<socket>
//
// Every command is bounded by a context and fails with ErrClosed as soon as
// mpv hangs up. Events such as file-loaded are queued for Prepare.
package mpv
