//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/thaiduongngo/cool-asa/internal/config"
)

func CreateApplication(cfg *config.Config) (*Application, error) {
	wire.Build(newApplication)
	return nil, nil
}
