package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestNewPool_InvalidDSN(t *testing.T) {
	if _, err := NewPool(context.Background(), "postgres://%zz"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestIsNotFoundError(t *testing.T) {
	if !isNotFoundError(fmt.Errorf("scan: %w", pgx.ErrNoRows)) {
		t.Error("wrapped ErrNoRows should be not found")
	}
	if isNotFoundError(errors.New("boom")) || isNotFoundError(nil) {
		t.Error("unexpected not found")
	}
}
