package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/appconfig"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/llm"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/memory"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/retriever"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/services"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kendra"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()

	// load config file
	ccfgg := &appconfig.AppConfig{}
	err := config.LoadConfig("config.ini", ccfgg)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	ccfgg.SetDefaults()
	if err := ccfgg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	ctx := getCancellableContext()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(ccfgg.Region))
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}

	docs := retriever.NewKendraRetriever(kendra.NewFromConfig(awsCfg), ccfgg.KendraIndexID)
	store := memory.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), ccfgg.MemoryTable)

	var bedrock llm.LLMClient
	if ccfgg.BedrockModelID != "" {
		bedrock = llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), ccfgg.BedrockModelID)
	}

	var other llm.LLMClient
	switch {
	case ccfgg.OllamaModel != "":
		ollamaClient, err := api.ClientFromEnvironment()
		if err != nil {
			logger.Fatal("Failed to create Ollama client", zap.Error(err))
		}
		other = llm.NewOllamaClient(ollamaClient, ccfgg.OllamaModel)
	case ccfgg.SMEndpointName != "":
		other = llm.NewSageMakerClient(sagemakerruntime.NewFromConfig(awsCfg), ccfgg.SMEndpointName)
	}

	chatService := services.ProvideChatService(ccfgg, store, docs, bedrock, other)
	router := services.NewRouter(ccfgg, chatService)

	srv := &http.Server{
		Addr:    ccfgg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", ccfgg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// catch SIGINT -> cancel
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
