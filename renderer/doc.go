// SPDX-License-Identifier: EPL-2.0

// Package renderer defines the media renderer the player drives for video.
//
// A video source is one of three variants:
//
//	renderer.Path("/media/clip.mp4")                 // local file
//	renderer.URI("https://example.com/clip.mp4")     // network stream
//	renderer.Resource{FS: assets, Name: "clip.mp4"}  // bundled file
//
// Every variant resolves to a single location string through Locate, so
// implementations only deal with one kind of input.
package renderer
