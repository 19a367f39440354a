package server

import (
	"context"
	"embed"
	nethttp "net/http"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/trials_intel/app/trials_intel/internal/service"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/config"
)

//go:embed assets/*
var assets embed.FS

const (
	OperationSearch     = "/trials.v1.Trials/Search"
	OperationAnalyze    = "/trials.v1.Trials/Analyze"
	OperationVisionDemo = "/trials.v1.Trials/VisionDemo"
	OperationStatus     = "/trials.v1.Trials/Status"
)

func NewHTTPServer(c config.ServerConfig, s *service.TrialsService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c.Addr != "" {
		opts = append(opts, http.Address(c.Addr))
	}
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)
	RegisterTrialsHTTPServer(srv, s)

	srv.HandleFunc("/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/" {
			nethttp.NotFound(w, r)
			return
		}
		serveAsset(w, indexPage, logger)
	})

	return srv
}

const indexPage = "assets/index.html"

// serveAsset 输出内嵌页面，读取失败返回 500
func serveAsset(w nethttp.ResponseWriter, name string, logger log.Logger) {
	content, err := assets.ReadFile(name)
	if err != nil {
		log.NewHelper(logger).Errorf("读取页面 %s 失败: %v", name, err)
		nethttp.Error(w, "page unavailable", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(content); err != nil {
		log.NewHelper(logger).Warnf("写出页面 %s 失败: %v", name, err)
	}
}

// RegisterTrialsHTTPServer 注册 /api 路由
func RegisterTrialsHTTPServer(srv *http.Server, s *service.TrialsService) {
	r := srv.Route("/")
	r.POST("/api/search", handle(OperationSearch, bindBody, s.Search))
	r.POST("/api/analyze", handle(OperationAnalyze, bindBody, s.Analyze))
	r.GET("/api/vision-demo", handle(OperationVisionDemo, bindQuery, s.VisionDemo))
	r.GET("/api/status", handle(OperationStatus, bindQuery, s.Status))
}

func bindBody(ctx http.Context, v any) error  { return ctx.Bind(v) }
func bindQuery(ctx http.Context, v any) error { return ctx.BindQuery(v) }

// handle 解码请求并经过中间件链调用业务方法
func handle[Req, Reply any](op string, bind func(http.Context, any) error, fn func(context.Context, *Req) (*Reply, error)) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in Req
		if err := bind(ctx, &in); err != nil {
			return err
		}
		http.SetOperation(ctx, op)
		h := ctx.Middleware(func(c context.Context, req any) (any, error) {
			return fn(c, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
