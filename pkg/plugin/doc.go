// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package plugin defines the contract between the bot host and its plugins.
//
// A plugin never touches host internals. On Start it receives an Emitter and
// describes everything it wants done as Action values: registering command
// handlers, sending protocol messages, logging, or asking the host to
// terminate. The host applies those actions in the order each plugin emitted
// them.
//
// Handlers are bound to a protocol command through a Registration with an
// optional Guard. The host invokes every registration whose guard accepts an
// inbound event, each as an independent unit of work.
package plugin
