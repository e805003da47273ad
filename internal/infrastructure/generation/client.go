// Package generation 提供生成服务客户端
// 回复生成、说话人选择与好感度估计都由同一个带外生成服务承担
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sekaichat/internal/application/affection"
	"sekaichat/internal/application/autoreply"
	"sekaichat/internal/config"
	"sekaichat/pkg/metrics"
)

var tracer = otel.Tracer("generation")

// Client 生成服务 HTTP 客户端
// 实现 autoreply.SpeakerSelector、autoreply.Generator 与 affection.DeltaEstimator
type Client struct {
	baseURL      string
	defaultModel string
	apiKey       string
	httpClient   *http.Client
}

// NewClient 创建生成服务客户端
func NewClient(cfg *config.GenerationConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		defaultModel: cfg.DefaultModel,
		apiKey:       cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type selectSpeakerRequest struct {
	ConversationID string `json:"conversation_id"`
}

type selectSpeakerResponse struct {
	// Speaker 为 null 表示本轮无人发言
	Speaker *autoreply.Speaker `json:"speaker"`
}

// SelectSpeaker 请求下一位说话人，(nil, nil) 表示无人发言
func (c *Client) SelectSpeaker(ctx context.Context, conversationID string) (*autoreply.Speaker, error) {
	ctx, span := tracer.Start(ctx, "generation.SelectSpeaker",
		trace.WithAttributes(attribute.String("conversation_id", conversationID)))
	defer span.End()

	var resp selectSpeakerResponse
	if err := c.post(ctx, "/v1/select-speaker", "select", &selectSpeakerRequest{
		ConversationID: conversationID,
	}, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if resp.Speaker != nil {
		span.SetAttributes(attribute.String("speaker.id", resp.Speaker.ID))
	}
	return resp.Speaker, nil
}

type generateReplyRequest struct {
	*autoreply.GenerateRequest
	Model string `json:"model"`
}

// GenerateReply 请求一次回复生成
func (c *Client) GenerateReply(ctx context.Context, req *autoreply.GenerateRequest) (*autoreply.Reply, error) {
	ctx, span := tracer.Start(ctx, "generation.GenerateReply",
		trace.WithAttributes(
			attribute.String("conversation_id", req.ConversationID),
			attribute.String("character_id", req.CharacterID),
			attribute.Int("auto_call_count", req.AutoCallCount),
		))
	defer span.End()

	model := req.SelectedModel
	if model == "" {
		model = c.defaultModel
	}

	var reply autoreply.Reply
	if err := c.post(ctx, "/v1/generate-reply", "reply", &generateReplyRequest{
		GenerateRequest: req,
		Model:           model,
	}, &reply); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &reply, nil
}

type estimateDeltaRequest struct {
	ConversationID string `json:"conversation_id"`
	CharacterID    string `json:"character_id"`
	CurrentLevel   int    `json:"current_level"`
	CurrentType    string `json:"current_type"`
	Transcript     string `json:"transcript"`
}

type estimateDeltaResponse struct {
	Delta int `json:"delta"`
}

// EstimateAffectionDelta 请求好感度增量估计
func (c *Client) EstimateAffectionDelta(ctx context.Context, est *affection.DeltaEstimate) (int, error) {
	ctx, span := tracer.Start(ctx, "generation.EstimateAffectionDelta",
		trace.WithAttributes(
			attribute.String("conversation_id", est.ConversationID),
			attribute.String("character_id", est.CharacterID),
		))
	defer span.End()

	var resp estimateDeltaResponse
	if err := c.post(ctx, "/v1/estimate-affection", "affection", &estimateDeltaRequest{
		ConversationID: est.ConversationID,
		CharacterID:    est.CharacterID,
		CurrentLevel:   est.CurrentLevel,
		CurrentType:    string(est.CurrentType),
		Transcript:     est.Transcript,
	}, &resp); err != nil {
		span.RecordError(err)
		return 0, err
	}
	return resp.Delta, nil
}

// post 发送 JSON 请求并解码响应，kind 用于指标分类
func (c *Client) post(ctx context.Context, path, kind string, reqBody, respBody interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("generation base url is empty")
	}

	start := time.Now()
	status := "ok"
	defer func() {
		metrics.GenerationCallsTotal.WithLabelValues(kind, status).Inc()
		metrics.GenerationCallDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	data, err := json.Marshal(reqBody)
	if err != nil {
		status = "error"
		return fmt.Errorf("failed to marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		status = "error"
		return fmt.Errorf("failed to create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		status = "error"
		return fmt.Errorf("generation request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		status = "error"
		return fmt.Errorf("generation request failed: status=%d path=%s", httpResp.StatusCode, path)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(respBody); err != nil {
		status = "error"
		return fmt.Errorf("failed to decode generation response: %w", err)
	}
	return nil
}
