package main

import (
	"github.com/degreepass/verification_service/config"
	"github.com/degreepass/verification_service/internal/api"
)

func main() {
	cfg := config.LoadConfig()
	api.StartServer(cfg)
}
