// Package main is the entry point for the forcegate gateway
package main

import (
	"github.com/forcegate/forcegate/cmd"
	"github.com/forcegate/forcegate/internal/config"
	"github.com/forcegate/forcegate/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	cmd.Execute(cfg)
}
