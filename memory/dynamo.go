package memory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const sessionKeyAttr = "SessionId"
const turnsAttr = "Turns"

type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore keeps one item per session in a DynamoDB table, with the turn
// history held as a list attribute.
type DynamoStore struct {
	client dynamoAPI
	table  string
}

func NewDynamoStore(client dynamoAPI, table string) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  table,
	}
}

func (s *DynamoStore) Load(ctx context.Context, sessionID string) ([]Turn, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			sessionKeyAttr: &types.AttributeValueMemberS{Value: sessionID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get item: %v", ErrStoreUnavailable, err)
	}

	if out.Item == nil {
		return []Turn{}, nil
	}

	list, ok := out.Item[turnsAttr]
	if !ok {
		return []Turn{}, nil
	}

	var turns []Turn
	if err := attributevalue.Unmarshal(list, &turns); err != nil {
		return nil, fmt.Errorf("%w: decode turns: %v", ErrStoreUnavailable, err)
	}

	return turns, nil
}

// Append adds one turn with a single list_append update. The store applies
// updates to one item serially, so two concurrent appends for the same
// session both land; only their relative order is up to the store.
func (s *DynamoStore) Append(ctx context.Context, sessionID string, turn Turn) error {
	item, err := attributevalue.MarshalMap(turn)
	if err != nil {
		return fmt.Errorf("%w: encode turn: %v", ErrStoreUnavailable, err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			sessionKeyAttr: &types.AttributeValueMemberS{Value: sessionID},
		},
		UpdateExpression: aws.String("SET #t = list_append(if_not_exists(#t, :empty), :turn)"),
		ExpressionAttributeNames: map[string]string{
			"#t": turnsAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":turn": &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberM{Value: item},
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: update item: %v", ErrStoreUnavailable, err)
	}

	return nil
}
