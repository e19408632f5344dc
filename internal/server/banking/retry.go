package banking

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/tauschring/kontor/internal/server/models"
)

// TransferWithRetry runs Transfer and retries up to maxRetries times when
// it loses an optimistic-lock race. Each attempt re-reads all account
// state, so retrying is safe: a conflicted attempt leaves no trace.
// Every other failure is permanent and returned as-is.
func (s *Service) TransferWithRetry(ctx context.Context, p TransferParams, maxRetries uint64) (*models.Transaction, error) {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewConstant(25*time.Millisecond))

	var tx *models.Transaction
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := s.Transfer(ctx, p)
		if err != nil {
			if errors.Is(err, ErrTransactionConflict) {
				s.logger.Warn(ctx, "transfer conflict, retrying",
					"sender", p.SenderCode, "receiver", p.ReceiverCode)
				return retry.RetryableError(err)
			}
			return err
		}
		tx = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}
