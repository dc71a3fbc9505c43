package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/appconfig"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/chat"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/llm"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/memory"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/retriever"
	"github.com/gin-gonic/gin"
)

// ChatService is the request entry point. It holds the prebuilt client
// handles; per-request work never constructs clients.
type ChatService struct {
	ccfgg   *appconfig.AppConfig
	store   memory.SessionStore
	docs    retriever.Retriever
	bedrock llm.LLMClient // nil when Bedrock is not configured
	other   llm.LLMClient // SageMaker endpoint or local Ollama; nil when not configured
}

func ProvideChatService(ccfgg *appconfig.AppConfig, store memory.SessionStore, docs retriever.Retriever, bedrock, other llm.LLMClient) *ChatService {
	return &ChatService{
		ccfgg:   ccfgg,
		store:   store,
		docs:    docs,
		bedrock: bedrock,
		other:   other,
	}
}

type queryRequest struct {
	Query      string `json:"query"`
	UUID       string `json:"uuid"`
	UseBedrock *bool  `json:"USE_BEDROCK"`
}

// HandleQuery serves POST /backendapp. The whole request runs under the
// configured end-to-end deadline; each pipeline step additionally carries
// its own call timeout.
func (s *ChatService) HandleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	req.UUID = strings.TrimSpace(req.UUID)
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if req.UUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uuid is required"})
		return
	}

	model, err := s.selectModel(req.UseBedrock)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.ccfgg.RequestDeadline())
	defer cancel()

	flow := chat.New(s.store, s.docs, model, req.UUID, chat.Params{
		Window:        s.ccfgg.MemoryWindow,
		TopK:          s.ccfgg.RetrieverTopK,
		ContextLength: s.ccfgg.LLMContextLength,
		CallTimeout:   s.ccfgg.CallTimeout(),
	}).Run(ctx, req.Query)

	if flowErr := flow.Err(); flowErr != nil {
		// A store failure on the final append must not cost the user the
		// answer that was already generated; memory just stays one turn
		// behind.
		if flow.Answer() != "" && errors.Is(flowErr, memory.ErrStoreUnavailable) {
			c.JSON(http.StatusOK, flow.Answer())
			return
		}

		c.JSON(statusFor(flowErr), gin.H{"error": publicMessage(flowErr)})
		return
	}

	c.JSON(http.StatusOK, flow.Answer())
}

// selectModel maps the request's USE_BEDROCK flag (or the configured default
// when the flag is absent) onto one of the prebuilt handles.
func (s *ChatService) selectModel(useBedrock *bool) (llm.LLMClient, error) {
	wantBedrock := s.ccfgg.UseBedrock
	if useBedrock != nil {
		wantBedrock = *useBedrock
	}

	if wantBedrock {
		if s.bedrock == nil {
			return nil, errors.New("bedrock backend is not configured")
		}
		return s.bedrock, nil
	}

	if s.other == nil {
		return nil, errors.New("no non-bedrock backend is configured")
	}
	return s.other, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, memory.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, retriever.ErrRetrievalUnavailable),
		errors.Is(err, llm.ErrGenerationUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, memory.ErrStoreUnavailable):
		return "session memory unavailable"
	case errors.Is(err, retriever.ErrRetrievalUnavailable):
		return "document retrieval unavailable"
	case errors.Is(err, llm.ErrGenerationUnavailable):
		return "model generation unavailable"
	default:
		return "internal error"
	}
}
