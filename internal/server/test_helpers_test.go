package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/doodledrop/backend/internal/doodles"
	"github.com/doodledrop/backend/internal/friends"
	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&doodles.Doodle{}, &friends.FriendRequest{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	doodleService, err := doodles.NewService(doodles.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to construct doodle service: %v", err)
	}
	friendService, err := friends.NewService(friends.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to construct friend request service: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		Doodles: doodleService,
		Friends: friendService,
	})
	if err != nil {
		t.Fatalf("failed to construct handler: %v", err)
	}

	return handler
}
