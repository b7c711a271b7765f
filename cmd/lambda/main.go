package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"search-aggregator/internal/app"
	"search-aggregator/internal/handler"
	"search-aggregator/internal/models"
	"search-aggregator/pkg/logger"
)

const (
	// Headroom left for serializing the response before the invocation ends
	safetyMargin     = 3 * time.Second
	maxSearchTimeout = 70 * time.Second
)

var baseHeaders = map[string]string{
	"Content-Type":                 "application/json; charset=utf-8",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type",
	"Access-Control-Allow-Methods": "GET,OPTIONS",
}

// LambdaHandler handles API Gateway search events
type LambdaHandler struct {
	searcher handler.Searcher
}

func NewLambdaHandler(searcher handler.Searcher) *LambdaHandler {
	return &LambdaHandler{searcher: searcher}
}

// Handler is the main Lambda handler function
func (h *LambdaHandler) Handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if event.HTTPMethod == "OPTIONS" {
		return events.APIGatewayProxyResponse{StatusCode: 204, Headers: baseHeaders}, nil
	}

	params := url.Values{}
	for k, v := range event.QueryStringParameters {
		params.Set(k, v)
	}

	req, err := handler.ParseRequest(params)
	if err != nil {
		status, body := handler.StatusFor(err)
		return respond(status, body), nil
	}

	// Leave a safety margin before the invocation deadline
	timeout := maxSearchTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline) - safetyMargin; remaining < timeout {
			timeout = max(remaining, time.Second)
		}
	}
	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := h.searcher.Search(searchCtx, req.Provider, req.Query, req.Options)
	if err != nil {
		status, body := handler.StatusFor(err)
		logger.Warn("search request failed", zap.Int("status", status), zap.Error(err))
		return respond(status, body), nil
	}

	logger.Info("search request completed",
		zap.String("provider", req.Provider),
		zap.Int("results", len(resp.Results)),
		zap.Duration("duration", time.Since(start)))
	return respond(200, resp), nil
}

func respond(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = 500
		body, _ = json.Marshal(models.ErrorResponse{Error: "Failed to serialize response"})
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    baseHeaders,
		Body:       string(body),
	}
}

func main() {
	a, err := app.New(context.Background(), os.Getenv("SEARCH_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	lambda.Start(NewLambdaHandler(a.Manager).Handler)
}
