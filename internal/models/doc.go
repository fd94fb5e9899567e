// Package models defines the values that cross process boundaries in tracklift.
//
// The package contains two categories of types:
//
// 1. Agent-side values, owned by the settings store and the scanning context
//   - [Settings] : where RPC calls land and which playlist receives tracks
//   - [SettingsPatch] : partial update merged over the stored [Settings]
//   - [Track] : a (title, artist) pair found in a page, keyed case-insensitively
//
// 2. Backend values, produced by the session broker and the playlist writer
//   - [Session] : the live OAuth credential set (never sent to the agent)
//   - [SessionStatus] : what GET /api/session reports about the [Session]
//   - [AddTrackRequest] / [AddResult] : one playlist append and its outcome
//   - [PlayedSong] : a row of station play history
//
// Settings and Session are disjoint: no credential is ever stored in [Settings].
package models
