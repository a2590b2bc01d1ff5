// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import "errors"

var ErrSupervisorClosed = errors.New("session supervisor closed")
