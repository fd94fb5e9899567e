// Package server is the backend's HTTP surface.
//
// # Router Infrastructure
//
// [BasicRouter] wraps [http.ServeMux] with a method check and a [Middleware] stack. Every route gets
// [Logging] and [Recover], so a panicking handler answers 500 and the server keeps serving.
//
// # Routes
//
//	GET  /api/session    session status, always 200
//	GET  /api/login      {authorizeUrl} for an agent-initiated login
//	POST /api/add-track  match a track and append it to a playlist
//	GET  /login          302 to the provider (browser flow)
//	GET  /callback       code exchange, see [CallbackHandler]
//	GET  /top-tracks     the user's top tracks as HTML
//	GET  /songs/{date}   station plays on a day
//	GET  /wakeup         keep-alive
//
// Errors from /api routes are JSON objects with a single "error" field. add-track maps missing
// arguments to 400, an absent or rejected session to 401 and a search without results to 404.
package server
