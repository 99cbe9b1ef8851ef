package interest

import (
	"google.golang.org/grpc"

	"github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/app"
)

// Registrar ties the Interest service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Interest service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterInterestServiceServer(s, NewInterestService(r.appCtx))
}
