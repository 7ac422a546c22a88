package menu

import (
	"context"
	"log/slog"

	"github.com/mchmarny/menugate/pkg/server"
)

// Path is where the resolved menu is served.
const Path = "/menu"

// Run serves the resolved menu and blocks until the context is canceled or an error occurs.
// When the loader can report readiness it backs the server's readiness probe.
func Run(ctx context.Context, l Loader, rec Recorder, opt ...server.Option) error {
	opt = append(opt, server.WithHandler(Path, Handler(l, rec)))

	if rc, ok := l.(server.ReadinessChecker); ok {
		opt = append(opt, server.WithReadiness(rc))
	}

	slog.Info("serving menu", "path", Path)

	return server.New(opt...).Serve(ctx)
}
