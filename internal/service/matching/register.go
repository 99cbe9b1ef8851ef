package matching

import (
	"google.golang.org/grpc"

	"github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/app"
)

// Registrar ties the Match service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterMatchServiceServer(s, NewMatchService(r.appCtx))
}
