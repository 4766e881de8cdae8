package websocket

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/model-compare/utils/log"
)

// Handler upgrades the "/ws" endpoint and blocks until the client leaves.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(s.ctx, conn, newClientID(), s.handlePrompt)
	if !s.hub.Register(client) {
		client.Close()
		return nil
	}
	defer s.hub.Unregister(client)

	log.WithCtx(client.Context()).Info("websocket client connected", zap.String("remote", c.RealIP()))
	client.Run()

	<-client.Context().Done()
	return nil
}
