package retriever

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/go-collection-boot/linq"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kendra"
	"github.com/aws/aws-sdk-go-v2/service/kendra/types"
)

type kendraAPI interface {
	Retrieve(ctx context.Context, params *kendra.RetrieveInput, optFns ...func(*kendra.Options)) (*kendra.RetrieveOutput, error)
}

// KendraRetriever fetches passages through the Amazon Kendra Retrieve API.
// Relevance ordering is owned entirely by the service.
type KendraRetriever struct {
	client  kendraAPI
	indexID string
}

func NewKendraRetriever(client kendraAPI, indexID string) *KendraRetriever {
	return &KendraRetriever{
		client:  client,
		indexID: indexID,
	}
}

func (r *KendraRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error) {
	out, err := r.client.Retrieve(ctx, &kendra.RetrieveInput{
		IndexId:   aws.String(r.indexID),
		QueryText: aws.String(query),
		PageSize:  aws.Int32(int32(topK)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: kendra retrieve: %v", ErrRetrievalUnavailable, err)
	}

	// Kendra may return the same passage under more than one result item.
	items := linq.Distinct(out.ResultItems, func(item types.RetrieveResultItem) string {
		return aws.ToString(item.Content)
	})

	snippets := make([]Snippet, 0, len(items))
	for i, item := range items {
		source := aws.ToString(item.DocumentURI)
		if source == "" {
			source = aws.ToString(item.DocumentTitle)
		}
		if source == "" {
			source = aws.ToString(item.DocumentId)
		}

		snippets = append(snippets, Snippet{
			Source:  source,
			Excerpt: aws.ToString(item.Content),
			Rank:    i + 1,
		})
	}

	return snippets, nil
}
