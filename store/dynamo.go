package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/midiscan/model"
	"github.com/pkg/errors"
)

// BatchGetItem accepts at most this many keys per request.
const maxBatchKeys = 100

// wait between rounds of unprocessed keys, doubling up to maxRetryWait
const (
	defaultRetryWait = 50 * time.Millisecond
	maxRetryWait     = 2 * time.Second
)

type item struct {
	PK        string `dynamodbav:"PK"`
	Key       string `dynamodbav:"Key,omitempty"`
	CreatedAt string `dynamodbav:"CreatedAt"`
	Payload   string `dynamodbav:"Payload"`
}

// Dynamo stores every result as one item keyed by PK holding the json
// encoded result.
type Dynamo struct {
	client    dynamodbiface.DynamoDBAPI
	table     string
	now       func() time.Time
	retryWait time.Duration
}

func NewDynamo(client dynamodbiface.DynamoDBAPI, table string) *Dynamo {
	return &Dynamo{client: client, table: table, now: time.Now, retryWait: defaultRetryWait}
}

// NewDynamoSession opens a session for region. A non empty endpoint points the
// client at a local DynamoDB.
func NewDynamoSession(region, endpoint, table string) (*Dynamo, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not create a DynamoDB session")
	}
	return NewDynamo(dynamodb.New(sess), table), nil
}

func (d *Dynamo) Put(ctx context.Context, id string, res model.AnalysisResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return errors.Wrapf(err, "encode %s", id)
	}
	av, err := dynamodbattribute.MarshalMap(item{
		PK:        id,
		Key:       res.Key,
		CreatedAt: d.now().UTC().Format(time.RFC3339),
		Payload:   string(payload),
	})
	if err != nil {
		return errors.Wrapf(err, "marshal item %s", id)
	}
	_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	})
	return errors.Wrapf(err, "put %s", id)
}

func (d *Dynamo) Get(ctx context.Context, id string) (model.AnalysisResult, error) {
	out, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       keyFor(id),
	})
	if err != nil {
		return model.AnalysisResult{}, errors.Wrapf(err, "get %s", id)
	}
	if len(out.Item) == 0 {
		return model.AnalysisResult{}, ErrNotFound
	}
	_, res, err := fromItem(out.Item)
	return res, err
}

// GetMany batches ids into BatchGetItem requests and retries unprocessed keys,
// backing off between rounds, until the table has answered for all of them or
// ctx is done.
func (d *Dynamo) GetMany(ctx context.Context, ids []string) (map[string]model.AnalysisResult, error) {
	res := make(map[string]model.AnalysisResult, len(ids))
	for start := 0; start < len(ids); start += maxBatchKeys {
		end := start + maxBatchKeys
		if end > len(ids) {
			end = len(ids)
		}

		var keys []map[string]*dynamodb.AttributeValue
		for _, id := range ids[start:end] {
			keys = append(keys, keyFor(id))
		}
		request := map[string]*dynamodb.KeysAndAttributes{d.table: {Keys: keys}}

		wait := d.retryWait
		for round := 0; len(request) > 0; round++ {
			if round > 0 {
				if err := sleep(ctx, wait); err != nil {
					return nil, errors.Wrap(err, "batch get")
				}
				wait *= 2
				if wait > maxRetryWait {
					wait = maxRetryWait
				}
			}
			out, err := d.client.BatchGetItemWithContext(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, errors.Wrap(err, "batch get")
			}
			for _, av := range out.Responses[d.table] {
				id, r, err := fromItem(av)
				if err != nil {
					return nil, err
				}
				res[id] = r
			}
			request = out.UnprocessedKeys
		}
	}
	return res, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func keyFor(id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"PK": {S: aws.String(id)},
	}
}

func fromItem(av map[string]*dynamodb.AttributeValue) (string, model.AnalysisResult, error) {
	var it item
	if err := dynamodbattribute.UnmarshalMap(av, &it); err != nil {
		return "", model.AnalysisResult{}, errors.Wrap(err, "unmarshal item")
	}
	res, err := decode([]byte(it.Payload))
	if err != nil {
		return "", model.AnalysisResult{}, errors.Wrapf(err, "decode %s", it.PK)
	}
	return it.PK, res, nil
}
