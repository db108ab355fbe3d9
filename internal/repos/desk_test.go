package repos_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/repos"
	"github.com/draftdesk/draftdesk-backend/internal/repos/testutil"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

func seedDesk(t *testing.T, tx *gorm.DB, userID uuid.UUID) *types.Desk {
	t.Helper()
	repo := repos.NewDeskRepo(tx, testutil.Logger(t))
	desk := &types.Desk{
		ID:          uuid.New(),
		UserID:      userID,
		Topic:       "Supply chain resilience",
		Context:     "Audience: operations leaders",
		Platform:    "LinkedIn",
		ContentType: "News Roundup",
		ContentID:   uuid.New(),
		Status:      types.NewGenerationStatus(types.PhaseNotRunning, types.StatusSuccess, "Desk created."),
	}
	created, err := repo.Create(context.Background(), tx, []*types.Desk{desk})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return created[0]
}

func TestDeskRepoCreateAndGet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := repos.NewDeskRepo(db, testutil.Logger(t))

	desk := seedDesk(t, tx, uuid.New())

	got, err := repo.GetByID(context.Background(), tx, desk.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Topic != desk.Topic || got.ContentType != desk.ContentType {
		t.Errorf("GetByID = %+v, want %+v", got, desk)
	}
	if got.Status.Phase != types.PhaseNotRunning || got.Status.Message != "Desk created." {
		t.Errorf("initial status = %+v, want not_running/Desk created.", got.Status)
	}
}

func TestDeskRepoGetByIDNotFound(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := repos.NewDeskRepo(db, testutil.Logger(t))

	_, err := repo.GetByID(context.Background(), tx, uuid.New())
	if !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("GetByID error = %v, want ErrNotFound", err)
	}
}

func TestDeskRepoUpdateStatusTouchesOnlyStatusColumns(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := repos.NewDeskRepo(db, testutil.Logger(t))

	desk := seedDesk(t, tx, uuid.New())

	status := types.NewGenerationStatus(types.PhaseContent, types.StatusProcessing, "Starting content generation...")
	if err := repo.UpdateStatus(context.Background(), tx, desk.ID, status); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, err := repo.GetByID(context.Background(), tx, desk.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != status {
		t.Errorf("status = %+v, want %+v", got.Status, status)
	}
	if got.Topic != desk.Topic || got.Platform != desk.Platform || got.ContentID != desk.ContentID {
		t.Errorf("non-status columns changed: %+v", got)
	}
}

func TestDeskRepoUpdateFieldsProtectsIdentity(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := repos.NewDeskRepo(db, testutil.Logger(t))

	userID := uuid.New()
	desk := seedDesk(t, tx, userID)

	err := repo.UpdateFields(context.Background(), tx, desk.ID, map[string]interface{}{
		"topic":   "Reshoring trends",
		"user_id": uuid.New(),
		"id":      uuid.New(),
	})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	got, err := repo.GetByID(context.Background(), tx, desk.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Topic != "Reshoring trends" {
		t.Errorf("topic = %q, want updated topic", got.Topic)
	}
	if got.UserID != userID {
		t.Errorf("user_id = %s, want unchanged %s", got.UserID, userID)
	}
}

func TestDeskRepoListByUserIDPaginates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := repos.NewDeskRepo(db, testutil.Logger(t))

	userID := uuid.New()
	for i := 0; i < 3; i++ {
		seedDesk(t, tx, userID)
	}
	seedDesk(t, tx, uuid.New())

	desks, total, err := repo.ListByUserID(context.Background(), tx, userID, 2, 0)
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(desks) != 2 {
		t.Errorf("page size = %d, want 2", len(desks))
	}

	rest, _, err := repo.ListByUserID(context.Background(), tx, userID, 2, 2)
	if err != nil {
		t.Fatalf("ListByUserID offset: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("second page size = %d, want 1", len(rest))
	}
}

func TestDeskRepoDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := repos.NewDeskRepo(db, testutil.Logger(t))

	desk := seedDesk(t, tx, uuid.New())
	if err := repo.Delete(context.Background(), tx, desk.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), tx, desk.ID); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("GetByID after delete error = %v, want ErrNotFound", err)
	}
}
