// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tutor wires the tutoring service together: HTTP routing, the LLM
// client, the Weaviate-backed retrieval layer, the session registry, and
// observability infrastructure.
package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mentora-ai/mentora/services/llm"
	"github.com/mentora-ai/mentora/services/tutor/material"
	"github.com/mentora-ai/mentora/services/tutor/observability"
	"github.com/mentora-ai/mentora/services/tutor/retrieval"
	"github.com/mentora-ai/mentora/services/tutor/routes"
	"github.com/mentora-ai/mentora/services/tutor/session"
)

// Config controls service construction. Zero values fall back to the
// environment and then to defaults.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// WeaviateURL is the full base URL of the Weaviate instance.
	WeaviateURL string

	// OTelEndpoint is the OTLP gRPC collector address. Empty disables
	// tracing export.
	OTelEndpoint string

	// SessionConfigPath optionally points at a YAML file with session
	// engine tuning. Empty uses built-in defaults.
	SessionConfigPath string

	// GinMode sets the gin mode (debug, release, test).
	GinMode string

	// EnableMetrics exposes /metrics.
	EnableMetrics bool
}

// Service is the tutor service lifecycle.
type Service interface {
	// Run starts the HTTP server and blocks until it stops.
	Run() error

	// Router exposes the gin engine for tests.
	Router() *gin.Engine
}

type service struct {
	cfg     Config
	router  *gin.Engine
	cleanup func(context.Context)
}

// New builds a fully wired service. It connects to Weaviate, ensures the
// chunk schema, configures the LLM backend from the environment, and mounts
// the route tree.
func New(cfg Config) (Service, error) {
	if cfg.Port == "" {
		cfg.Port = os.Getenv("TUTOR_PORT")
	}
	if cfg.Port == "" {
		cfg.Port = "12310"
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	cleanup, err := initTracer(cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setup OTLP tracer: %w", err)
	}
	observability.InitMetrics()

	weaviateClient, err := newWeaviateClient(cfg.WeaviateURL)
	if err != nil {
		return nil, err
	}
	if err := retrieval.EnsureSchema(context.Background(), weaviateClient); err != nil {
		return nil, err
	}

	llmClient, err := llm.NewClientFromEnv()
	if err != nil {
		return nil, fmt.Errorf("initialize LLM client: %w", err)
	}

	sessionCfg := session.DefaultConfig()
	if cfg.SessionConfigPath != "" {
		sessionCfg, err = session.LoadConfig(cfg.SessionConfigPath)
		if err != nil {
			return nil, err
		}
	}

	store := material.NewStore()
	indexer := retrieval.NewIndexer(weaviateClient)

	registry := session.NewRegistry(func(ctx context.Context, sessionId, userId string) (*session.StateMachine, error) {
		bundle, err := store.Get(sessionId)
		if err != nil {
			return nil, err
		}
		return session.NewStateMachine(ctx, session.Deps{
			SessionId: sessionId,
			UserId:    userId,
			Questions: bundle.Questions,
			AnswerDoc: bundle.AnswerDoc,
			Retriever: retrieval.NewWeaviateRetriever(weaviateClient, sessionId),
			Generator: llmClient,
			Config:    sessionCfg,
		}), nil
	})

	router := gin.Default()
	router.Use(otelgin.Middleware("tutor-service"))
	routes.SetupRoutes(router, routes.Deps{
		Registry:      registry,
		Store:         store,
		Indexer:       indexer,
		Deleter:       indexer,
		EnableMetrics: cfg.EnableMetrics,
	})

	return &service{cfg: cfg, router: router, cleanup: cleanup}, nil
}

func (s *service) Run() error {
	defer s.cleanup(context.Background())
	slog.Info("Starting tutor service", "port", s.cfg.Port)
	return s.router.Run(":" + s.cfg.Port)
}

func (s *service) Router() *gin.Engine { return s.router }

// newWeaviateClient parses the configured URL and connects. The URL is
// sanitized first; container runtimes sometimes pass quoted values through
// literally.
func newWeaviateClient(rawURL string) (*weaviate.Client, error) {
	if rawURL == "" {
		rawURL = os.Getenv("WEAVIATE_SERVICE_URL")
	}
	rawURL = strings.Trim(rawURL, "\"' ")
	if rawURL == "" {
		rawURL = "http://localhost:8080"
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid Weaviate URL %q", rawURL)
	}
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsed.Host,
		Scheme: parsed.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create Weaviate client: %w", err)
	}
	return client, nil
}

// initTracer configures the global OTLP trace pipeline. An empty endpoint
// installs nothing and returns a no-op cleanup, so local runs work without
// a collector.
func initTracer(endpoint string) (func(context.Context), error) {
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		return func(context.Context) {}, nil
	}

	ctx := context.Background()
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("tutor-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}
