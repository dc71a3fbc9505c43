package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kendra"
	"github.com/aws/aws-sdk-go-v2/service/kendra/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubKendraAPI struct {
	lastInput *kendra.RetrieveInput
	output    *kendra.RetrieveOutput
	err       error
}

func (s *stubKendraAPI) Retrieve(_ context.Context, params *kendra.RetrieveInput, _ ...func(*kendra.Options)) (*kendra.RetrieveOutput, error) {
	s.lastInput = params
	return s.output, s.err
}

func TestKendraRetrieverRanksInServiceOrder(t *testing.T) {
	stub := &stubKendraAPI{
		output: &kendra.RetrieveOutput{
			ResultItems: []types.RetrieveResultItem{
				{
					Content:     aws.String("Refunds within 30 days."),
					DocumentURI: aws.String("s3://docs/refund-policy.pdf"),
				},
				{
					Content:       aws.String("Returns require a receipt."),
					DocumentTitle: aws.String("Returns FAQ"),
				},
			},
		},
	}

	r := NewKendraRetriever(stub, "index-1")
	snippets, err := r.Retrieve(context.Background(), "refund policy", 2)
	require.NoError(t, err)

	require.Len(t, snippets, 2)
	assert.Equal(t, Snippet{Source: "s3://docs/refund-policy.pdf", Excerpt: "Refunds within 30 days.", Rank: 1}, snippets[0])
	assert.Equal(t, Snippet{Source: "Returns FAQ", Excerpt: "Returns require a receipt.", Rank: 2}, snippets[1])

	require.NotNil(t, stub.lastInput)
	assert.Equal(t, "index-1", *stub.lastInput.IndexId)
	assert.Equal(t, "refund policy", *stub.lastInput.QueryText)
	assert.Equal(t, int32(2), *stub.lastInput.PageSize)
}

func TestKendraRetrieverDeduplicatesPassages(t *testing.T) {
	stub := &stubKendraAPI{
		output: &kendra.RetrieveOutput{
			ResultItems: []types.RetrieveResultItem{
				{
					Content:     aws.String("Refunds within 30 days."),
					DocumentURI: aws.String("s3://docs/refund-policy.pdf"),
				},
				{
					Content:     aws.String("Refunds within 30 days."),
					DocumentURI: aws.String("s3://docs/refund-policy-copy.pdf"),
				},
				{
					Content:       aws.String("Returns require a receipt."),
					DocumentTitle: aws.String("Returns FAQ"),
				},
			},
		},
	}

	r := NewKendraRetriever(stub, "index-1")
	snippets, err := r.Retrieve(context.Background(), "refund policy", 3)
	require.NoError(t, err)

	require.Len(t, snippets, 2)
	assert.Equal(t, "Refunds within 30 days.", snippets[0].Excerpt)
	assert.Equal(t, 1, snippets[0].Rank)
	assert.Equal(t, "Returns require a receipt.", snippets[1].Excerpt)
	assert.Equal(t, 2, snippets[1].Rank)
}

func TestKendraRetrieverNoMatches(t *testing.T) {
	stub := &stubKendraAPI{output: &kendra.RetrieveOutput{}}

	r := NewKendraRetriever(stub, "index-1")
	snippets, err := r.Retrieve(context.Background(), "nothing matches this", 2)

	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestKendraRetrieverUnavailable(t *testing.T) {
	stub := &stubKendraAPI{err: errors.New("throttled")}

	r := NewKendraRetriever(stub, "index-1")
	_, err := r.Retrieve(context.Background(), "refund policy", 2)

	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}
