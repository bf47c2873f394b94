package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

// Handler mounts one resource's routes on the shared router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

type RouteFunc func(*httprouter.Router)

func (f RouteFunc) RegisterRoutes(r *httprouter.Router) { f(r) }

// Pinger is a backing dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a driver call such as (*mongo.Client).Ping.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
