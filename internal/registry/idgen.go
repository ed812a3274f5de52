// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package registry

import "github.com/google/uuid"

// newQueryID returns an opaque, unique, printable query id distinct from
// any server-side id the driver assigns.
func newQueryID() string {
	return uuid.NewString()
}
