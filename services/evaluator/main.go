// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/attestix/redline/pkg/extensions"
	"github.com/attestix/redline/pkg/logging"
	"github.com/attestix/redline/services/evaluator/arena"
	"github.com/attestix/redline/services/evaluator/engine"
	"github.com/attestix/redline/services/evaluator/hybrid"
	"github.com/attestix/redline/services/evaluator/observability"
	"github.com/attestix/redline/services/evaluator/routes"
	"github.com/attestix/redline/services/llm"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "redline-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("evaluator-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// buildLLMClient selects an LLM backend from LLM_BACKEND_TYPE.
//
// Returns (nil, nil) when no backend is configured; the service then
// runs rule-only with hybrid blending and the arena disabled.
func buildLLMClient() (llm.LLMClient, error) {
	switch os.Getenv("LLM_BACKEND_TYPE") {
	case "openai":
		slog.Info("Using OpenAI LLM backend")
		return llm.NewOpenAIClient()
	case "ollama":
		slog.Info("Using Ollama LLM backend")
		return llm.NewOllamaClient()
	case "":
		slog.Info("LLM_BACKEND_TYPE not set. Running rule-only (no hybrid judge, no arena).")
		return nil, nil
	default:
		slog.Warn("LLM_BACKEND_TYPE unrecognized, running rule-only",
			"backend", os.Getenv("LLM_BACKEND_TYPE"))
		return nil, nil
	}
}

func main() {
	port := os.Getenv("EVALUATOR_PORT")
	if port == "" {
		port = "12310"
	}

	appLogger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "evaluator",
		JSON:    true,
	})
	defer appLogger.Close()
	slog.SetDefault(appLogger.Slog())

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	// Rule set: embedded defaults, or an external directory with
	// hot reload when RULES_DIR is set.
	var evaluator *engine.Evaluator
	rulesDir := os.Getenv("RULES_DIR")
	if rulesDir != "" {
		set, err := engine.LoadRuleSet(rulesDir)
		if err != nil {
			log.Fatalf("FATAL: could not load rules from %s: %v", rulesDir, err)
		}
		evaluator = engine.NewEvaluatorWithRules(set)
		slog.Info("Loaded detection rules from directory", "dir", rulesDir)
	} else {
		evaluator, err = engine.NewEvaluator()
		if err != nil {
			log.Fatalf("FATAL: could not initialize the evaluation engine: %v", err)
		}
	}
	provider := engine.NewProvider(evaluator)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if rulesDir != "" {
		go func() {
			if err := engine.WatchRules(ctx, rulesDir, provider); err != nil {
				slog.Error("rule watcher stopped", "error", err)
			}
		}()
	}

	log.Println("Configuring the LLM Client")
	llmClient, err := buildLLMClient()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	var judge hybrid.Judge
	var generator arena.Generator
	if llmClient != nil {
		judge = llm.NewLLMJudge(llmClient, llm.GenerationParams{})
		generator = llm.NewNarrativeGenerator(llmClient, llm.GenerationParams{})
	}
	blender, err := hybrid.NewBlender(judge, hybrid.DefaultWeights(), slog.Default())
	if err != nil {
		log.Fatalf("Failed to initialize hybrid blender: %v", err)
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("evaluator-service"))

	routes.SetupRoutes(router, routes.Deps{
		Provider:      provider,
		Blender:       blender,
		Generator:     generator,
		ArenaDefaults: arena.DefaultConfig(),
		AuthProvider:  &extensions.NopAuthProvider{},
	})

	log.Println("Starting the evaluator server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
