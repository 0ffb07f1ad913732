package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapWriteErrorTranslatesUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "account_mappings_catalog_id_component_id_key"}

	err := mapWriteError(pgErr)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "account_mappings_catalog_id_component_id_key")

	// pgx surfaces driver errors wrapped, so unwrapping has to work too.
	err = mapWriteError(fmt.Errorf("exec: %w", pgErr))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMapWriteErrorPassesThroughOtherErrors(t *testing.T) {
	assert.NoError(t, mapWriteError(nil))

	wantErr := errors.New("connection reset")
	assert.Same(t, wantErr, mapWriteError(wantErr))

	notUnique := &pgconn.PgError{Code: "23503"}
	assert.Same(t, notUnique, mapWriteError(notUnique))
}
