// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader applies scripts delivered through the bridge.
//
// A [ScriptLoader] is the host's load trigger: given a path it checks
// that the path names a regular file of reasonable size, fingerprints
// the content with BLAKE3, and hands the resulting [Script] to the
// host's [ApplyFunc]. Every attempt is recorded in a bounded history
// for status displays.
//
// Loads happen on the host's main loop, one at a time. A load started
// from inside an ApplyFunc fails with [ErrReentrantLoad] instead of
// recursing.
//
// [CommandApply] builds an ApplyFunc that runs an external program with
// the script path appended, for hosts that execute scripts in a
// separate process (for example "blender --background --python").
package loader
