package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/logging"
	"github.com/plantcare/internal/metrics"
	"github.com/plantcare/internal/service"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"
)

type testEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type handlerFixture struct {
	api    *API
	router *gin.Engine
}

func setupHandlerTest(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(db.Options{
		Path:     fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano()),
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })

	tokens, err := service.NewTokens(service.TokenOptions{Secret: "handler-secret", AllowDevTokens: true})
	if err != nil {
		t.Fatalf("NewTokens returned error: %v", err)
	}
	log := logging.Discard()

	api := NewAPI(Options{
		Backend: BackendPostgres,
		Plants:  service.NewPlantService(db.NewPlantStore(gdb), log),
		Auth:    service.NewAuthService(db.NewUserStore(gdb), tokens).WithHashCost(bcrypt.MinCost),
		Metrics: metrics.New(),
		Logger:  log,
	})

	router := gin.New()
	router.Use(sessions.Sessions("plantcare_session", cookie.NewStore([]byte("test-secret"))))
	router.POST("/pg/auth/register", api.Register)
	router.POST("/pg/auth/login", api.Login)
	router.POST("/pg/auth/logout", api.Logout)
	router.GET("/pg/auth/me", api.AuthRequired(), api.Me)

	protected := router.Group("/pg", api.AuthRequired())
	protected.POST("/plants", api.CreatePlant)
	protected.GET("/plants", api.ListPlants)
	protected.GET("/plants/:id", api.GetPlant)
	protected.PUT("/plants/:id", api.UpdatePlant)
	protected.PATCH("/plants/:id/status", api.UpdatePlantStatus)
	protected.DELETE("/plants/:id", api.DeletePlant)
	protected.GET("/dashboard", api.Dashboard)

	router.POST("/test/pg/plants", api.CreatePlantUnauthenticated)
	router.GET("/test/pg/plants", api.ListPlantsUnauthenticated)

	return &handlerFixture{api: api, router: router}
}

func (f *handlerFixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %q", rec.Body.String())
	}
	return rec, env
}

func devToken(userID uuid.UUID) string {
	return "user_" + userID.String()
}
