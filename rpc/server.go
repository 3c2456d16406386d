package rpc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/annchain/badium/common/goroutine"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const ShutdownTimeoutSeconds = 5

type RpcServer struct {
	router *gin.Engine
	server *http.Server
	port   string
	C      *RpcController

	listener net.Listener
}

func NewRpcServer(port string, controller *RpcController) *RpcServer {
	router := controller.NewRouter()
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}
	return &RpcServer{
		port:   port,
		router: router,
		server: server,
		C:      controller,
	}
}

func (srv *RpcServer) Router() *gin.Engine {
	return srv.router
}

// Start listens on the configured port and serves in the background.
func (srv *RpcServer) Start() error {
	ln, err := net.Listen("tcp", srv.server.Addr)
	if err != nil {
		return err
	}
	srv.listener = ln
	logrus.Infof("Listening Http on %s", ln.Addr())
	goroutine.New(func() {
		if err := srv.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("Error in Http server")
		}
	})
	return nil
}

// Addr is the bound address once started.
func (srv *RpcServer) Addr() string {
	if srv.listener == nil {
		return srv.server.Addr
	}
	return srv.listener.Addr().String()
}

func (srv *RpcServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeoutSeconds*time.Second)
	defer cancel()
	if err := srv.server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Error while shutting down the Http server")
	}
	logrus.Infof("Http server Stopped")
}

func (srv *RpcServer) Name() string {
	return fmt.Sprintf("RpcServer at port %s", srv.port)
}
