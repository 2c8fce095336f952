// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"cryptodash/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/snapshot",
				Handler: SnapshotHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/status",
				Handler: StatusHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/refresh",
				Handler: RefreshHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/focus",
				Handler: GetFocusHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/focus",
				Handler: SetFocusHandler(serverCtx),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/focus",
				Handler: ResetFocusHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/focus/exchanges",
				Handler: ExchangesHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/focus/detail",
				Handler: DetailHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/others",
				Handler: OthersHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/cards",
				Handler: CardsHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api"),
	)

	server.AddRoute(rest.Route{
		Method:  http.MethodGet,
		Path:    "/ws",
		Handler: serverCtx.Stream.ServeHTTP,
	})
}
