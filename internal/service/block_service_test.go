package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

type blockStoreStub struct {
	rows map[string]models.BlockedSlot
}

func newBlockStoreStub() *blockStoreStub {
	return &blockStoreStub{rows: map[string]models.BlockedSlot{}}
}

func (s *blockStoreStub) Create(ctx context.Context, block *models.BlockedSlot) (bool, error) {
	key := block.Date + "|" + block.Time
	if existing, ok := s.rows[key]; ok {
		*block = existing
		return false, nil
	}
	block.ID = int64(len(s.rows) + 1)
	s.rows[key] = *block
	return true, nil
}

func (s *blockStoreStub) List(ctx context.Context, facultyID int64, date string) ([]models.BlockedSlot, error) {
	return nil, nil
}

func (s *blockStoreStub) Delete(ctx context.Context, facultyID int64, date, slot string) (int64, error) {
	key := date + "|" + slot
	if _, ok := s.rows[key]; !ok {
		return 0, nil
	}
	delete(s.rows, key)
	return 1, nil
}

func TestBlockServiceIdempotentBlock(t *testing.T) {
	svc := NewBlockService(newBlockStoreStub(), testCatalog, nil, nil)
	ctx := context.Background()
	req := dto.BlockRequest{FacultyID: 7, Date: "2024-05-01", Time: "12:15 PM", Reason: " office hours "}

	block, created, err := svc.Block(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, block.Reason)
	assert.Equal(t, "office hours", *block.Reason)

	again, created, err := svc.Block(ctx, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, block.ID, again.ID)
}

func TestBlockServiceValidation(t *testing.T) {
	svc := NewBlockService(newBlockStoreStub(), testCatalog, nil, nil)
	ctx := context.Background()

	_, _, err := svc.Block(ctx, dto.BlockRequest{FacultyID: 7, Date: "2024-05-01"})
	require.Error(t, err)
	assert.Equal(t, "facultyId, date, time are required.", appErrors.FromError(err).Message)

	_, _, err = svc.Block(ctx, dto.BlockRequest{FacultyID: 7, Date: "2024-05-01", Time: "3:00 PM"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.List(ctx, dto.BlockListQuery{})
	require.Error(t, err)
	assert.Equal(t, "facultyId required", appErrors.FromError(err).Message)

	list, err := svc.List(ctx, dto.BlockListQuery{FacultyID: 7})
	require.NoError(t, err)
	assert.NotNil(t, list)
}

func TestBlockServiceUnblock(t *testing.T) {
	store := newBlockStoreStub()
	svc := NewBlockService(store, testCatalog, nil, nil)
	ctx := context.Background()
	req := dto.BlockRequest{FacultyID: 7, Date: "2024-05-01", Time: "12:15 PM"}

	_, _, err := svc.Block(ctx, req)
	require.NoError(t, err)

	removed, err := svc.Unblock(ctx, req)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Unblock(ctx, req)
	require.NoError(t, err)
	assert.False(t, removed)
}
