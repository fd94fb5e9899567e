// Package ui implements the popup: a small bubbletea program that talks to the agent over the bus.
//
// The popup shows the session status ("Connected as <name>" or why not) and two fields, the backend base URL
// and the target playlist ID. Both are loaded with GET_SETTINGS when the program starts.
//
// The [Model] follows bubbletea's Init/Update/View pattern. Every agent call runs as a [tea.Cmd] and comes back
// as a [Msg] carrying its result or error.
//
// Keys: tab/shift+tab move between fields, ctrl+s saves, ctrl+l opens the login page, ctrl+r rechecks the session
// and esc quits.
package ui
