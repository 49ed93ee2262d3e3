// Package ir provides the canonical value and event types for eventnav.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - numbers are int64
//   - Timestamps travel as unix seconds (IRInt) once they leave ir.Event
//   - All JSON tags use snake_case
//   - Partition and record keys are exposed as canonical strings (KeyString)
package ir
