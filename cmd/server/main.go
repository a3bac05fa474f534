package main

import (
	"github.com/necronomicon/backend/internal/server"
	"github.com/necronomicon/backend/internal/util"
	"github.com/necronomicon/backend/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()
	util.SetupLogger("server")
	defer logger.Close()

	server.Init()
}
