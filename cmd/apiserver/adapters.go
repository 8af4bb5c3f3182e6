package main

import (
	"context"
	"errors"

	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/database/neo4j"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/storage/minio"
)

// Adapters for HealthHandler
type neo4jHealthAdapter struct {
	driver *neo4j.Driver
}

func (a *neo4jHealthAdapter) Name() string {
	return "neo4j"
}

func (a *neo4jHealthAdapter) Check(ctx context.Context) error {
	return a.driver.HealthCheck(ctx)
}

type minioHealthAdapter struct {
	client *minio.Client
}

func (a *minioHealthAdapter) Name() string {
	return "minio"
}

func (a *minioHealthAdapter) Check(ctx context.Context) error {
	status, err := a.client.HealthCheck(ctx)
	if err != nil {
		return err
	}
	if !status.Healthy {
		return errors.New(status.Error)
	}
	return nil
}
