package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/pronova-xy/checkout-service/models"
)

// DynamoGetItemAPI is the subset of the DynamoDB client the store needs.
type DynamoGetItemAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoConfigStore keeps each configuration document as one item of a
// table keyed by doc_id.
type DynamoConfigStore struct {
	client             DynamoGetItemAPI
	table              string
	paymentDocID       string
	webhookSecretDocID string
}

func NewDynamoConfigStore(client DynamoGetItemAPI, table, paymentDocID, webhookSecretDocID string) *DynamoConfigStore {
	return &DynamoConfigStore{
		client:             client,
		table:              table,
		paymentDocID:       paymentDocID,
		webhookSecretDocID: webhookSecretDocID,
	}
}

func (s *DynamoConfigStore) GetPaymentConfig(ctx context.Context) (*models.PaymentConfig, error) {
	var doc models.PaymentConfig
	if err := s.getDocument(ctx, s.paymentDocID, &doc); err != nil {
		return nil, err
	}
	if doc.StripeKey == "" {
		return nil, fmt.Errorf("document %s has no stripe_key: %w", s.paymentDocID, ErrNotFound)
	}
	return &doc, nil
}

func (s *DynamoConfigStore) GetWebhookSecret(ctx context.Context) (string, error) {
	var doc models.WebhookSecretDocument
	if err := s.getDocument(ctx, s.webhookSecretDocID, &doc); err != nil {
		return "", err
	}
	if doc.StripeWebhookSecret == "" {
		return "", fmt.Errorf("document %s has no stripe_webhook_secret: %w", s.webhookSecretDocID, ErrNotFound)
	}
	return doc.StripeWebhookSecret, nil
}

func (s *DynamoConfigStore) getDocument(ctx context.Context, docID string, out interface{}) error {
	key, err := attributevalue.MarshalMap(map[string]string{"doc_id": docID})
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}

	res, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.table,
		Key:            key,
		ConsistentRead: boolPtr(true),
	})
	if err != nil {
		return fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(res.Item) == 0 {
		return fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}

	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("unmarshal document %s: %w", docID, err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
