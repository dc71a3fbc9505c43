package chat

import (
	"context"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/llm"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/memory"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/prompts"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/retriever"
	"go.uber.org/zap"
)

// Params bound the flow's external calls. Zero values fall back to the
// workshop defaults.
type Params struct {
	Window        int           // turns of history the prompts see
	TopK          int           // passages requested from the index
	ContextLength int           // rune budget for the context block
	CallTimeout   time.Duration // per external call
}

// ConversationFlow runs one request through the pipeline:
// load history → condense question → retrieve documents → generate answer →
// append turn. Steps chain; the first failure is recorded and every later
// step becomes a no-op. Memory is only written on the success path, so a
// failed generation leaves prior history untouched.
type ConversationFlow struct {
	store memory.SessionStore
	docs  retriever.Retriever
	model llm.LLMClient

	sessionID string
	params    Params

	// flow outputs
	err      error
	followUp string
	history  []memory.Turn
	question string
	snippets []retriever.Snippet
	answer   string
}

func New(store memory.SessionStore, docs retriever.Retriever, model llm.LLMClient, sessionID string, params Params) *ConversationFlow {
	if params.Window <= 0 {
		params.Window = 3
	}
	if params.TopK <= 0 {
		params.TopK = 2
	}
	if params.ContextLength <= 0 {
		params.ContextLength = 2048
	}

	return &ConversationFlow{
		store:     store,
		docs:      docs,
		model:     model,
		sessionID: sessionID,
		params:    params,
	}
}

func (f *ConversationFlow) LoadHistory(ctx context.Context) *ConversationFlow {
	if f.err != nil {
		return f
	}

	callCtx, cancel := f.callCtx(ctx)
	defer cancel()

	history, err := f.store.Load(callCtx, f.sessionID)
	if err != nil {
		logger.Error("Failed to load session history", zap.String("session", f.sessionID), zap.Error(err))
		f.err = err
		return f
	}

	f.history = memory.Window(history, f.params.Window)
	return f
}

func (f *ConversationFlow) CondenseQuestion(ctx context.Context, followUp string) *ConversationFlow {
	if f.err != nil {
		return f
	}
	f.followUp = followUp

	callCtx, cancel := f.callCtx(ctx)
	defer cancel()

	question, err := async.Await(prompts.CondenseQuestion(callCtx, f.model, f.history, followUp))
	if err != nil {
		logger.Error("Failed to condense question", zap.String("session", f.sessionID), zap.Error(err))
		f.err = err
		return f
	}

	f.question = question
	return f
}

func (f *ConversationFlow) RetrieveContext(ctx context.Context) *ConversationFlow {
	if f.err != nil {
		return f
	}

	callCtx, cancel := f.callCtx(ctx)
	defer cancel()

	snippets, err := f.docs.Retrieve(callCtx, f.question, f.params.TopK)
	if err != nil {
		logger.Error("Failed to retrieve documents", zap.String("session", f.sessionID), zap.Error(err))
		f.err = err
		return f
	}

	// Zero matches is fine; generation proceeds on history alone.
	f.snippets = snippets
	return f
}

func (f *ConversationFlow) GenerateAnswer(ctx context.Context) *ConversationFlow {
	if f.err != nil {
		return f
	}

	callCtx, cancel := f.callCtx(ctx)
	defer cancel()

	answer, err := async.Await(prompts.GenerateAnswer(callCtx, f.model, f.question, f.snippets, f.history, f.params.ContextLength))
	if err != nil {
		logger.Error("Failed to generate answer", zap.String("session", f.sessionID), zap.Error(err))
		f.err = err
		return f
	}

	f.answer = answer
	return f
}

// SaveTurn appends the (follow-up, answer) pair. A failure here still leaves
// the generated answer available through Answer(); the caller decides whether
// the response survives the store failure.
func (f *ConversationFlow) SaveTurn(ctx context.Context) *ConversationFlow {
	if f.err != nil {
		return f
	}

	callCtx, cancel := f.callCtx(ctx)
	defer cancel()

	err := f.store.Append(callCtx, f.sessionID, memory.Turn{Question: f.followUp, Answer: f.answer})
	if err != nil {
		logger.Error("Failed to append turn to session memory", zap.String("session", f.sessionID), zap.Error(err))
		f.err = err
	}

	return f
}

// Run executes the whole pipeline for one utterance.
func (f *ConversationFlow) Run(ctx context.Context, followUp string) *ConversationFlow {
	return f.
		LoadHistory(ctx).
		CondenseQuestion(ctx, followUp).
		RetrieveContext(ctx).
		GenerateAnswer(ctx).
		SaveTurn(ctx)
}

func (f *ConversationFlow) Answer() string {
	return f.answer
}

func (f *ConversationFlow) Question() string {
	return f.question
}

func (f *ConversationFlow) Err() error {
	return f.err
}

func (f *ConversationFlow) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.params.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, f.params.CallTimeout)
}
