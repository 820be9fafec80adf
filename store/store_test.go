package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/midiscan/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(key string) model.AnalysisResult {
	return model.AnalysisResult{
		Key:            key,
		Chords:         []model.Chord{},
		RhythmPatterns: model.RhythmPattern{{Interval: 0.25, Count: 2}},
		Events:         []model.NoteEvent{{Note: 60, Velocity: 10, End: 1, Program: -1, Role: "piano"}},
		TrackMapping:   model.RoleMapping{"track_0": "piano"},
		Metadata:       map[string]any{"analysis_id": "x"},
	}
}

// fakeDynamo keeps items in memory and answers at most batchLimit keys per
// BatchGetItem call, returning the rest as unprocessed.
type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI

	mu         sync.Mutex
	items      map[string]map[string]*dynamodb.AttributeValue
	batchLimit int
	batchCalls int
}

func newFake() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]*dynamodb.AttributeValue), batchLimit: 1000}
}

func (f *fakeDynamo) PutItemWithContext(ctx aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if aws.StringValue(in.TableName) != "results" {
		return nil, errors.New("ResourceNotFoundException")
	}
	f.items[aws.StringValue(in.Item["PK"].S)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItemWithContext(ctx aws.Context, in *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[aws.StringValue(in.Key["PK"].S)]}, nil
}

func (f *fakeDynamo) BatchGetItemWithContext(ctx aws.Context, in *dynamodb.BatchGetItemInput, _ ...request.Option) (*dynamodb.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++

	out := &dynamodb.BatchGetItemOutput{
		Responses:       make(map[string][]map[string]*dynamodb.AttributeValue),
		UnprocessedKeys: make(map[string]*dynamodb.KeysAndAttributes),
	}
	for table, ka := range in.RequestItems {
		if len(ka.Keys) > 100 {
			return nil, errors.New("too many keys")
		}
		keys := ka.Keys
		if len(keys) > f.batchLimit {
			out.UnprocessedKeys[table] = &dynamodb.KeysAndAttributes{Keys: keys[f.batchLimit:]}
			keys = keys[:f.batchLimit]
		}
		for _, k := range keys {
			if it, ok := f.items[aws.StringValue(k["PK"].S)]; ok {
				out.Responses[table] = append(out.Responses[table], it)
			}
		}
	}
	return out, nil
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	res := result("C major")
	require.NoError(t, m.Put(ctx, "a", res))
	res.TrackMapping["track_0"] = "changed"

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "C major", got.Key)
	assert.Equal(t, "piano", got.TrackMapping["track_0"])
	assert.Equal(t, "piano", got.Events[0].Role)

	many, err := m.GetMany(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	assert.Len(t, many, 1)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("id-%d", i)
			assert.NoError(t, m.Put(ctx, id, result("A minor")))
			_, err := m.Get(ctx, id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, m.Len())
}

func TestDynamoPutGet(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	d := NewDynamo(fake, "results")
	d.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, d.Put(ctx, "abc", result("D minor")))
	item := fake.items["abc"]
	assert.Equal(t, "D minor", aws.StringValue(item["Key"].S))
	assert.Equal(t, "2024-03-01T12:00:00Z", aws.StringValue(item["CreatedAt"].S))

	got, err := d.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, result("D minor"), got)

	_, err = d.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, NewDynamo(fake, "other").Put(ctx, "abc", result("D minor")))
}

func TestDynamoGetManyBatchesAndRetries(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	fake.batchLimit = 40
	d := NewDynamo(fake, "results")
	d.retryWait = time.Millisecond

	var ids []string
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("id-%03d", i)
		ids = append(ids, id)
		if i%2 == 0 {
			require.NoError(t, d.Put(ctx, id, result("E major")))
		}
	}

	got, err := d.GetMany(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, got, 75)
	assert.Equal(t, "E major", got["id-148"].Key)
	// 100 keys take three calls at 40 per call, the remaining 50 take two
	assert.Equal(t, 5, fake.batchCalls)
}

func TestDynamoGetManyBacksOffUntilContextDone(t *testing.T) {
	fake := newFake()
	// every key comes back unprocessed
	fake.batchLimit = 0
	d := NewDynamo(fake, "results")
	d.retryWait = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := d.GetMany(ctx, []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// waits of 5, 10, 20, 40ms fit about five calls into 100ms
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Greater(t, fake.batchCalls, 1)
	assert.Less(t, fake.batchCalls, 10)
}

func TestNewDynamoSession(t *testing.T) {
	d, err := NewDynamoSession("us-east-1", "http://localhost:8000", "results")
	require.NoError(t, err)
	assert.Equal(t, "results", d.table)
}
