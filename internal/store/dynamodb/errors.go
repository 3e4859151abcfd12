package dynamodb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/wolfeidau/sessiongate/internal/store"
)

// wrapAWSError wraps AWS SDK errors, mapping throttling to store.ErrThrottled
// so callers (and the retry loop) can branch on it.
func wrapAWSError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var provisionedErr *types.ProvisionedThroughputExceededException
	if errors.As(err, &provisionedErr) {
		return fmt.Errorf("%s: %w: %v", msg, store.ErrThrottled, err)
	}

	// AWS SDK v2 doesn't always use typed errors for all throttle variants
	errMsg := err.Error()
	if strings.Contains(errMsg, "ThrottlingException") ||
		strings.Contains(errMsg, "RequestLimitExceeded") ||
		strings.Contains(errMsg, "Throttling") {
		return fmt.Errorf("%s: %w: %v", msg, store.ErrThrottled, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
