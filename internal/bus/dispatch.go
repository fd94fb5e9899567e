package bus

import (
	"context"

	"github.com/desertthunder/tracklift/internal/models"
)

// Handler answers each request kind.
type Handler interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	SetSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error)
	GetSession(ctx context.Context) (models.SessionStatus, error)
	StartLogin(ctx context.Context) (models.LoginStarted, error)
	AddTrack(ctx context.Context, track models.Track) (*models.AddResult, error)
}

// Dispatch routes req to h and returns the success payload.
//
// Unknown request types succeed with an empty object.
func Dispatch(ctx context.Context, h Handler, req Request) (any, error) {
	switch r := req.(type) {
	case GetSettings:
		return h.GetSettings(ctx)
	case SetSettings:
		return h.SetSettings(ctx, r.Settings)
	case GetSession:
		return h.GetSession(ctx)
	case StartLogin:
		return h.StartLogin(ctx)
	case AddTrack:
		return h.AddTrack(ctx, r.Track)
	default:
		return struct{}{}, nil
	}
}
