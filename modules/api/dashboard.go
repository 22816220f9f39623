package api

import "github.com/dmitrymomot/emailcraft/handler"

func (s *server) stats(ctx handler.Context, _ struct{}) handler.Response {
	stats, err := s.dashboard.Stats(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(stats)
}
