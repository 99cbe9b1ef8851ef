package chat

import (
	"google.golang.org/grpc"

	"github.com/oggyb/connecta/internal/api"
)

// Registrar ties the Chat service into the gRPC server. The same Service
// instance also backs the websocket transport.
type Registrar struct {
	service *Service
}

func NewRegistrar(service *Service) *Registrar {
	return &Registrar{service: service}
}

func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterChatServiceServer(s, r.service)
}
