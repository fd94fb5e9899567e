// Package bus is the request/response channel between tracklift processes.
//
// A scanner or the popup sends typed requests to the agent; the agent answers each with
// exactly one response. Requests form a closed set:
//
//	GET_SETTINGS                → Settings
//	SET_SETTINGS {settings}     → Settings (after merge)
//	GET_SESSION                 → {authenticated, user?, tokenExpiresAt?, error?}
//	START_LOGIN                 → {started, authorizeUrl}
//	ADD_TRACK {track}           → AddResult
//
// Any other type is answered with an empty object.
//
// Frames are JSON. A request is {id, type, settings?, track?}; a response is
// {id, payload} or {id, error}. Ids are random UUIDs, and responses may arrive in any
// order.
//
// [Pipe] connects two ends in one process. [WebSocketHandler] and [DialWebSocket]
// carry the same frames between processes.
package bus
