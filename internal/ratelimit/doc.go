// Package ratelimit implements a fixed-window request limiter backed by Redis.
//
// Each key gets Config.Requests hits per Config.Window. The window starts on
// the first hit and its counter expires with it, so no background cleanup is
// needed. The HTTP middleware keys requests by client IP and fails open when
// the store is unavailable.
package ratelimit
