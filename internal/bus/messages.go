package bus

import (
	"encoding/json"

	"github.com/desertthunder/tracklift/internal/models"
)

// Message types on the wire.
const (
	TypeGetSettings = "GET_SETTINGS"
	TypeSetSettings = "SET_SETTINGS"
	TypeGetSession  = "GET_SESSION"
	TypeStartLogin  = "START_LOGIN"
	TypeAddTrack    = "ADD_TRACK"
)

// Request is one of [GetSettings], [SetSettings], [GetSession], [StartLogin], [AddTrack] or [Unknown].
type Request interface {
	Type() string
	isRequest()
}

type GetSettings struct{}

type SetSettings struct {
	Settings models.SettingsPatch
}

type GetSession struct{}

type StartLogin struct{}

type AddTrack struct {
	Track models.Track
}

// Unknown carries a type tag outside the closed set.
type Unknown struct {
	Kind string
}

func (GetSettings) Type() string { return TypeGetSettings }
func (SetSettings) Type() string { return TypeSetSettings }
func (GetSession) Type() string  { return TypeGetSession }
func (StartLogin) Type() string  { return TypeStartLogin }
func (AddTrack) Type() string    { return TypeAddTrack }
func (u Unknown) Type() string   { return u.Kind }

func (GetSettings) isRequest() {}
func (SetSettings) isRequest() {}
func (GetSession) isRequest()  {}
func (StartLogin) isRequest()  {}
func (AddTrack) isRequest()    {}
func (Unknown) isRequest()     {}

// RequestFrame is the JSON form of a request.
type RequestFrame struct {
	ID       string                `json:"id"`
	Type     string                `json:"type"`
	Settings *models.SettingsPatch `json:"settings,omitempty"`
	Track    *models.Track         `json:"track,omitempty"`
}

// ResponseFrame is the JSON form of a response: exactly one of Payload or Error is set.
type ResponseFrame struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// EncodeRequest builds the frame for req.
func EncodeRequest(id string, req Request) RequestFrame {
	f := RequestFrame{ID: id, Type: req.Type()}
	switch r := req.(type) {
	case SetSettings:
		patch := r.Settings
		f.Settings = &patch
	case AddTrack:
		track := r.Track
		f.Track = &track
	}
	return f
}

// Request decodes the frame into its typed request. Missing bodies decode as zero values.
func (f RequestFrame) Request() Request {
	switch f.Type {
	case TypeGetSettings:
		return GetSettings{}
	case TypeSetSettings:
		var patch models.SettingsPatch
		if f.Settings != nil {
			patch = *f.Settings
		}
		return SetSettings{Settings: patch}
	case TypeGetSession:
		return GetSession{}
	case TypeStartLogin:
		return StartLogin{}
	case TypeAddTrack:
		var track models.Track
		if f.Track != nil {
			track = *f.Track
		}
		return AddTrack{Track: track}
	default:
		return Unknown{Kind: f.Type}
	}
}

// RemoteError is a failure reported by the other side of the bus.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}
