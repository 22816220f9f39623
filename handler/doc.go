// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and an already-bound request struct and
// returns a Response. Wrap turns it into an http.HandlerFunc, running the
// configured binders first and sending any binding, handler or render error
// to the error handler:
//
//	type getRequest struct {
//		ID string `path:"id"`
//	}
//
//	r.Get("/api/contacts/{id}", handler.Wrap(
//		func(ctx handler.Context, req getRequest) handler.Response {
//			c, err := contacts.GetByID(ctx, req.ID)
//			if err != nil {
//				return handler.JSONError(err)
//			}
//			return handler.JSON(c)
//		},
//		handler.WithBinders[handler.Context, getRequest](binder.Path(chi.URLParam)),
//		handler.WithErrorHandler[handler.Context, getRequest](onError),
//	))
//
// Every JSON body uses the same envelope: {"data": ..., "meta": ..., "error":
// {"code", "message", "details"}}.
package handler
