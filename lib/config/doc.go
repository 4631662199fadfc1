// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package config holds the bridge's preferences: where to listen, which
// sIBL GUI executable to launch, how delivered scripts are applied, and
// how to log.
//
// Preferences come from at most one file, named by the
// SIBL_BRIDGE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). Without either, [Default] is used; the file is
// optional. Files ending in .json or .jsonc are read as JSON with
// comments, anything else as YAML. No environment variable overrides a
// value from the file.
//
// ${HOME} and ${VAR:-default} patterns are expanded in the GUI
// executable path and the load command after loading.
//
// The add-on's preference rules live here as well: [CoerceHost] reduces
// an arbitrary host string to something the bridge may bind, and
// [GUIConfig.SetExecutable] accepts only paths that can be executed.
//
// Key exports:
//
//   - [Config] -- bridge, gui, load and log sections
//   - [Default], [Load] and [LoadFile]
//   - [Config.BridgeConfig] -- the listener configuration for package bridge
package config
