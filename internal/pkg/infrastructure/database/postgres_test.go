package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/matryer/is"
)

func TestTxErrorClassifiesBeginAndCommitFailures(t *testing.T) {
	is := is.New(t)

	err := txError("failed to delete instance", fmt.Errorf("failed to acquire connection: %w", context.DeadlineExceeded))
	is.True(errors.Is(err, ngsierrors.ErrStorageTimeout)) // an expired deadline should be a timeout
	is.True(errors.Is(err, ngsierrors.ErrStorageFailure))

	err = txError("failed to delete instance", errors.New("conn closed"))
	is.True(errors.Is(err, ngsierrors.ErrStorageFailure))
	is.True(!errors.Is(err, ngsierrors.ErrStorageTimeout))

	err = txError("failed to delete instance", &pgconn.PgError{Code: "57014"})
	is.True(errors.Is(err, ngsierrors.ErrStorageTimeout)) // query_canceled
}

func TestTxErrorKeepsKindOfTransactionErrors(t *testing.T) {
	is := is.New(t)

	notFound := ngsierrors.NewNotFoundError("entity urn:ngsi-ld:Sensor:01 not found")
	is.Equal(txError("failed to delete entity history", notFound), notFound)

	conflict := ngsierrors.NewStorageConflictError("failed to delete attribute", &pgconn.PgError{Code: "23503"})
	is.Equal(txError("failed to delete attribute history", conflict), conflict)

	timeout := ngsierrors.NewStorageTimeoutError("failed to delete instance", context.DeadlineExceeded)
	is.Equal(txError("failed to delete instance", timeout), timeout)

	is.NoErr(txError("failed to delete instance", nil))
}
