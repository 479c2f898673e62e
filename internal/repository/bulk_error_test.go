package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestBulkWriteError(t *testing.T) {
	bwe := mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{{WriteError: mongo.WriteError{Index: 1, Code: 11000, Message: "duplicate key"}}},
	}

	err := bulkWriteError("failed to bulk update stock", bwe)
	assert.ErrorIs(t, err, ErrPartialWrite)
	var got mongo.BulkWriteException
	assert.ErrorAs(t, err, &got)

	err = bulkWriteError("failed to bulk update stock", context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrPartialWrite)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
