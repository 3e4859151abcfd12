package dynamodb

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/sessiongate/internal/store"
)

func TestWrapAWSErrorNil(t *testing.T) {
	require.NoError(t, wrapAWSError(nil, "failed to put item"))
}

func TestWrapAWSErrorThrottling(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "typed provisioned throughput", err: &types.ProvisionedThroughputExceededException{}},
		{name: "throttling exception string", err: errors.New("operation error DynamoDB: PutItem, ThrottlingException: rate exceeded")},
		{name: "request limit exceeded string", err: errors.New("RequestLimitExceeded: throughput exceeds account limit")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapAWSError(tt.err, "failed to put item")
			require.ErrorIs(t, wrapped, store.ErrThrottled)
		})
	}
}

func TestWrapAWSErrorPassthrough(t *testing.T) {
	cause := errors.New("operation error DynamoDB: PutItem, ValidationException")

	wrapped := wrapAWSError(cause, "failed to put item")
	require.NotErrorIs(t, wrapped, store.ErrThrottled)
	require.ErrorIs(t, wrapped, cause)
}
