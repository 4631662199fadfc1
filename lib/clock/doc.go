// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source behind the bridge's
// poll schedule.
//
// The Poll Consumer runs on a fixed interval. Production code passes
// Real(); tests pass Fake() and drive the schedule one tick at a time:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go consumer.Run(ctx, c, bridge.DefaultPollInterval)
//	c.WaitForTickers(1)                  // Run has registered its ticker
//	c.Advance(bridge.DefaultPollInterval) // exactly one poll
//
// WaitForTickers closes the race between a goroutine registering its
// ticker and the test advancing time.
package clock
