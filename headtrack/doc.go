// SPDX-License-Identifier: EPL-2.0

// Package headtrack carries look vectors from a head-mounted display or a
// phone to the player over a websocket.
//
// A client sends one text frame per sample, either as an object
//
//	{"x": 0.2, "y": -0.1, "z": 0.97}
//
// or as a bare array [0.2, -0.1, 0.97]. Server decodes the frames and
// publishes them on a buffered channel where a newer vector replaces the
// oldest pending one, so a slow consumer always sees the latest heading.
package headtrack
