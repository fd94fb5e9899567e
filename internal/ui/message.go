package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tracklift/internal/models"
)

// MsgKind enumerates all message types in the popup.
type MsgKind int

// Msg represents all possible results of agent calls (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSettingsLoaded MsgKind = iota
	MsgSettingsSaved
	MsgSessionChecked
	MsgLoginStarted
)

// settingsLoadedMsg is the constructor for [MsgSettingsLoaded]
func settingsLoadedMsg(settings models.Settings, err error) Msg {
	return Msg{kind: MsgSettingsLoaded, data: settings, err: err}
}

// settingsSavedMsg is the constructor for [MsgSettingsSaved]
func settingsSavedMsg(settings models.Settings, err error) Msg {
	return Msg{kind: MsgSettingsSaved, data: settings, err: err}
}

// sessionCheckedMsg is the constructor for [MsgSessionChecked]
func sessionCheckedMsg(status models.SessionStatus, err error) Msg {
	return Msg{kind: MsgSessionChecked, data: status, err: err}
}

// loginStartedMsg is the constructor for [MsgLoginStarted]
func loginStartedMsg(started models.LoginStarted, err error) Msg {
	return Msg{kind: MsgLoginStarted, data: started, err: err}
}
