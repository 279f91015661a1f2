/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitykv/datastore"
)

const (
	attrPK    = "PK"
	attrSK    = "SK"
	attrValue = "V"
)

// API is the subset of the DynamoDB client the store calls.
type API interface {
	GetItem(ctx context.Context, in *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, in *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, in *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
}

// record is the item layout: the store name partitions the table and the
// encoded key is the binary sort key, so Query order equals key order.
type record struct {
	PK string `dynamodbav:"PK"`
	SK []byte `dynamodbav:"SK"`
	V  []byte `dynamodbav:"V"`
}

// Store keeps one logical store in one partition of a shared table.
type Store struct {
	client API
	table  string
	name   string
	opts   Options
}

var _ datastore.Store = (*Store)(nil)

// New returns the store name inside table.
func New(client API, table, name string, opts ...Option) *Store {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{client: client, table: table, name: name, opts: o}
}

// Opener opens stores of table on demand.
func Opener(client API, table string, opts ...Option) datastore.Opener {
	return func(_ context.Context, name string) (datastore.Store, error) {
		return New(client, table, name, opts...), nil
	}
}

func (s *Store) Name() string { return s.name }

func (s *Store) key(k []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: s.name},
		attrSK: &types.AttributeValueMemberB{Value: k},
	}
}

func decodeRecord(item map[string]types.AttributeValue) (record, error) {
	var r record
	if err := attributevalue.UnmarshalMap(item, &r); err != nil {
		return record{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return r, nil
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &s.table,
		Key:            s.key(key),
		ConsistentRead: aws.Bool(s.opts.ConsistentRead),
	})
	if err != nil {
		return nil, false, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, false, nil
	}
	r, err := decodeRecord(out.Item)
	if err != nil {
		return nil, false, err
	}
	return r.V, true, nil
}

func (s *Store) Insert(ctx context.Context, key, value []byte) ([]byte, bool, error) {
	item, err := attributevalue.MarshalMap(record{PK: s.name, SK: key, V: value})
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal item: %w", err)
	}
	out, err := s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:    &s.table,
		Item:         item,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, false, fmt.Errorf("PutItem failed: %w", err)
	}
	return s.previous(out.Attributes)
}

func (s *Store) Remove(ctx context.Context, key []byte) ([]byte, bool, error) {
	out, err := s.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:    &s.table,
		Key:          s.key(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return s.previous(out.Attributes)
}

func (s *Store) previous(attrs map[string]types.AttributeValue) ([]byte, bool, error) {
	if len(attrs) == 0 {
		return nil, false, nil
	}
	r, err := decodeRecord(attrs)
	if err != nil {
		return nil, false, err
	}
	return r.V, true, nil
}

// keyCondition builds the key condition for the inclusive bounds.
func (s *Store) keyCondition(start, end []byte) (string, map[string]types.AttributeValue) {
	vals := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: s.name},
	}
	cond := "PK = :pk"
	switch {
	case start != nil && end != nil:
		cond += " AND SK BETWEEN :start AND :end"
		vals[":start"] = &types.AttributeValueMemberB{Value: start}
		vals[":end"] = &types.AttributeValueMemberB{Value: end}
	case start != nil:
		cond += " AND SK >= :start"
		vals[":start"] = &types.AttributeValueMemberB{Value: start}
	case end != nil:
		cond += " AND SK <= :end"
		vals[":end"] = &types.AttributeValueMemberB{Value: end}
	}
	return cond, vals
}

func (s *Store) Range(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	// DynamoDB rejects BETWEEN with reversed bounds.
	if start != nil && end != nil && string(start) > string(end) {
		return nil
	}
	cond, vals := s.keyCondition(start, end)
	in := &sdk.QueryInput{
		TableName:                 &s.table,
		KeyConditionExpression:    &cond,
		ExpressionAttributeValues: vals,
		ConsistentRead:            aws.Bool(s.opts.ConsistentRead),
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(s.opts.PageSize),
	}
	return s.pages(ctx, in, func(out *sdk.QueryOutput) (bool, error) {
		for _, item := range out.Items {
			r, err := decodeRecord(item)
			if err != nil {
				return false, err
			}
			if !fn(r.SK, r.V) {
				return false, nil
			}
		}
		return true, nil
	})
}

func (s *Store) edge(ctx context.Context, forward bool) ([]byte, bool, error) {
	cond, vals := s.keyCondition(nil, nil)
	out, err := s.queryWithRetry(ctx, &sdk.QueryInput{
		TableName:                 &s.table,
		KeyConditionExpression:    &cond,
		ExpressionAttributeValues: vals,
		ConsistentRead:            aws.Bool(s.opts.ConsistentRead),
		ScanIndexForward:          aws.Bool(forward),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, false, err
	}
	if len(out.Items) == 0 {
		return nil, false, nil
	}
	r, err := decodeRecord(out.Items[0])
	if err != nil {
		return nil, false, err
	}
	return r.SK, true, nil
}

func (s *Store) First(ctx context.Context) ([]byte, bool, error) { return s.edge(ctx, true) }

func (s *Store) Last(ctx context.Context) ([]byte, bool, error) { return s.edge(ctx, false) }

func (s *Store) Len(ctx context.Context) (int, error) {
	cond, vals := s.keyCondition(nil, nil)
	in := &sdk.QueryInput{
		TableName:                 &s.table,
		KeyConditionExpression:    &cond,
		ExpressionAttributeValues: vals,
		ConsistentRead:            aws.Bool(s.opts.ConsistentRead),
		Select:                    types.SelectCount,
	}
	n := 0
	err := s.pages(ctx, in, func(out *sdk.QueryOutput) (bool, error) {
		n += int(out.Count)
		return true, nil
	})
	return n, err
}

// Bytes sums key and value sizes over the partition.
func (s *Store) Bytes(ctx context.Context) (int64, error) {
	var n int64
	err := s.Range(ctx, nil, nil, func(k, v []byte) bool {
		n += int64(len(k) + len(v))
		return true
	})
	return n, err
}

func (s *Store) Close() error { return nil }

// pages runs in page by page until the last page or until fn returns false.
func (s *Store) pages(ctx context.Context, in *sdk.QueryInput, fn func(*sdk.QueryOutput) (bool, error)) error {
	stats := PageStats{Store: s.name, StartTime: time.Now()}
	for {
		out, err := s.queryWithRetry(ctx, in)
		if err != nil {
			return err
		}
		stats.PagesProcessed++
		stats.ItemsProcessed += int64(len(out.Items))
		if out.Items == nil {
			stats.ItemsProcessed += int64(out.Count)
		}
		more, err := fn(out)
		if s.opts.PageHandler != nil {
			s.opts.PageHandler(stats)
		}
		if err != nil || !more {
			return err
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// queryWithRetry executes a query with linear backoff on transient errors.
func (s *Store) queryWithRetry(ctx context.Context, in *sdk.QueryInput) (*sdk.QueryOutput, error) {
	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := s.client.Query(ctx, in)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return nil, fmt.Errorf("query error: %w", err)
		}
		if attempt < s.opts.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * s.opts.RetryBackoff):
			}
		}
	}
	return nil, fmt.Errorf("query failed after %d retries: %w", s.opts.MaxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable.
func isRetryableError(err error) bool {
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
	)
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}
	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
