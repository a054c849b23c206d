package auction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElanScarton/leilao-api/internal/database"
	"github.com/ElanScarton/leilao-api/internal/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.NewTestDatabase()
	require.NoError(t, err)
	return NewService(db)
}

func validCreateRequest() *CreateRequest {
	return &CreateRequest{
		Title:          "100 steel beams",
		Description:    "Structural steel, delivered on site",
		ReferencePrice: 1000,
		StartTime:      time.Now().Add(time.Hour),
		EndTime:        time.Now().Add(6 * time.Hour),
		DeliveryTime:   time.Now().Add(30 * 24 * time.Hour),
		ProductID:      "SKU-042",
		SupplierIDs:    []string{"supplier-a", "supplier-b"},
	}
}

func TestCreateAuction(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.CreateAuction("requester-1", validCreateRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, created.AuctionID)
	assert.Equal(t, types.StatusDraft, created.Status)
	assert.Equal(t, "requester-1", created.RequesterID)
	assert.Nil(t, created.FinalPrice)

	suppliers, err := svc.GetDB().ListAssignedSuppliers(created.AuctionID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"supplier-a", "supplier-b"}, suppliers)
}

func TestCreateAuctionValidation(t *testing.T) {
	svc := newTestService(t)

	t.Run("end before start", func(t *testing.T) {
		req := validCreateRequest()
		req.EndTime = req.StartTime.Add(-time.Minute)
		_, err := svc.CreateAuction("requester-1", req)
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
	})

	t.Run("start in the past", func(t *testing.T) {
		req := validCreateRequest()
		req.StartTime = time.Now().Add(-time.Minute)
		_, err := svc.CreateAuction("requester-1", req)
		assert.ErrorIs(t, err, ErrStartNotFuture)
	})

	t.Run("non-positive reference price", func(t *testing.T) {
		req := validCreateRequest()
		req.ReferencePrice = 0
		_, err := svc.CreateAuction("requester-1", req)
		assert.ErrorIs(t, err, ErrInvalidReference)
	})
}

func TestListAuctionsByEffectiveStatus(t *testing.T) {
	svc := newTestService(t)

	upcoming := validCreateRequest()
	_, err := svc.CreateAuction("requester-1", upcoming)
	require.NoError(t, err)

	// Force one auction into an already-open window by editing the stored row;
	// creation validation forbids past start times.
	open, err := svc.CreateAuction("requester-1", validCreateRequest())
	require.NoError(t, err)
	open.StartTime = time.Now().Add(-time.Hour)
	require.NoError(t, svc.GetDB().db.Save(open).Error)

	now := time.Now()

	inProgress, err := svc.ListAuctions(types.StatusInProgress, now)
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, open.AuctionID, inProgress[0].AuctionID)

	published, err := svc.ListAuctions(types.StatusPublished, now)
	require.NoError(t, err)
	assert.Len(t, published, 1)

	all, err := svc.ListAuctions("", now)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCancelAuction(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.CreateAuction("requester-1", validCreateRequest())
	require.NoError(t, err)

	t.Run("only the owner may cancel", func(t *testing.T) {
		_, err := svc.CancelAuction("someone-else", created.AuctionID)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("owner cancels a live auction", func(t *testing.T) {
		cancelled, err := svc.CancelAuction("requester-1", created.AuctionID)
		require.NoError(t, err)
		assert.Equal(t, types.StatusCancelled, cancelled.Status)
	})

	t.Run("cancel is not repeatable", func(t *testing.T) {
		_, err := svc.CancelAuction("requester-1", created.AuctionID)
		assert.ErrorIs(t, err, ErrAlreadyTerminal)
	})

	t.Run("unknown auction", func(t *testing.T) {
		_, err := svc.CancelAuction("requester-1", "no-such-auction")
		assert.ErrorIs(t, err, ErrAuctionNotFound)
	})
}

func TestCancelExpiredAuctionRejected(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.CreateAuction("requester-1", validCreateRequest())
	require.NoError(t, err)

	// Move the whole window into the past: effectively FINISHED.
	created.StartTime = time.Now().Add(-2 * time.Hour)
	created.EndTime = time.Now().Add(-time.Hour)
	require.NoError(t, svc.GetDB().db.Save(created).Error)

	_, err = svc.CancelAuction("requester-1", created.AuctionID)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestAssignSuppliers(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.CreateAuction("requester-1", validCreateRequest())
	require.NoError(t, err)

	err = svc.AssignSuppliers("requester-1", created.AuctionID, []string{"supplier-c"})
	require.NoError(t, err)

	suppliers, err := svc.GetDB().ListAssignedSuppliers(created.AuctionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"supplier-c"}, suppliers)

	t.Run("frozen once bidding opens", func(t *testing.T) {
		created.StartTime = time.Now().Add(-time.Minute)
		require.NoError(t, svc.GetDB().db.Save(created).Error)

		err := svc.AssignSuppliers("requester-1", created.AuctionID, []string{"supplier-d"})
		assert.ErrorIs(t, err, ErrAuctionNotOpen)
	})

	t.Run("only the owner may assign", func(t *testing.T) {
		err := svc.AssignSuppliers("someone-else", created.AuctionID, []string{"supplier-d"})
		assert.ErrorIs(t, err, ErrNotOwner)
	})
}
