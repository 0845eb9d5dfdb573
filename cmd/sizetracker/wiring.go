package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/storacha/sizetracker/internal/config"
	"github.com/storacha/sizetracker/internal/db/sizehistory"
	"github.com/storacha/sizetracker/internal/objectstore"
	"github.com/storacha/sizetracker/internal/plotter"
	"github.com/storacha/sizetracker/internal/sampler"
)

type components struct {
	cfg       *config.Config
	sampler   *sampler.Sampler
	generator *plotter.Generator
}

func buildComponents(ctx context.Context) (*components, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	policy, err := plotter.ParseEmptyWindowPolicy(cfg.EmptyWindowPolicy)
	if err != nil {
		return nil, fmt.Errorf("parsing empty window policy: %w", err)
	}

	// Create DynamoDB client
	dynamoClient := dynamodb.NewFromConfig(cfg.AWSConfig, func(o *dynamodb.Options) {
		if cfg.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpoint)
		}
	})
	table := sizehistory.NewDynamoSizeHistoryTable(dynamoClient, cfg.TableName, cfg.MaxSizeIndexName)

	store, err := objectstore.New(objectstore.Options{
		Backend:   cfg.ObjectStore,
		AWSConfig: cfg.AWSConfig,
		Endpoint:  cfg.AWSEndpoint,
		Minio: objectstore.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Region:    cfg.AWSConfig.Region,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store: %w", err)
	}

	return &components{
		cfg:     cfg,
		sampler: sampler.New(store, table, cfg.BucketName),
		generator: plotter.New(table, store, cfg.BucketName,
			plotter.WithWindow(cfg.RecentWindow()),
			plotter.WithObjectKey(cfg.PlotObjectKey),
			plotter.WithEmptyWindowPolicy(policy),
		),
	}, nil
}
