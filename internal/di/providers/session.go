package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/id"
	"github.com/driftwatch/driftwatch/internal/logger"
	"github.com/driftwatch/driftwatch/internal/render"
)

// Session identifies one driftwatch invocation.
type Session struct {
	ID string
}

// ProvideSession provides the invocation's session identity.
func ProvideSession(i do.Injector) (*Session, error) {
	log := do.MustInvoke[*logger.Logger](i)

	sid, err := id.NewSession()
	if err != nil {
		return nil, err
	}

	log.Debug("Session created", "session", sid)
	return &Session{ID: sid}, nil
}

// ProvideRenderer provides the event renderer writing to stdout.
func ProvideRenderer(i do.Injector) (*render.Renderer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	session := do.MustInvoke[*Session](i)

	return render.New(os.Stdout, render.Options{
		Format:      cfg.Render.Format,
		Session:     session.ID,
		WithSession: cfg.Render.WithSession,
	}), nil
}
