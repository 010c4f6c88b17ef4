package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	issuer      *auth.TokenIssuer
	taskService *services.TaskService
}

func newRouterForDB(t *testing.T, db *gorm.DB, drafter services.TaskDrafter) testEnv {
	t.Helper()

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	userRepo := repository.NewUserRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo, issuer)
	registrationService := services.NewRegistrationService(regRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo, drafter)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r, Router{
		Issuer:       issuer,
		TaskLoader:   taskService,
		Auth:         NewAuthHandler(authService, userService),
		Users:        NewUserHandler(userService),
		Registration: NewRegistrationHandler(registrationService),
		Tasks:        NewTaskHandler(taskService),
	})

	return testEnv{
		db:          db,
		router:      r,
		issuer:      issuer,
		taskService: taskService,
	}
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))

	return newRouterForDB(t, db, nil)
}

// createUser stores an account whose password is "password123".
func (env testEnv) createUser(t *testing.T, name, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := env.issuer.Issue(*user)
	require.NoError(t, err)
	return token
}

func (env testEnv) createTask(t *testing.T, title string, creator *models.User, assignee *models.User) *models.Task {
	t.Helper()
	task := &models.Task{Title: title, Status: "Backlog", CreatedBy: creator.ID}
	if assignee != nil {
		id := assignee.ID
		task.AssigneeID = &id
	}
	require.NoError(t, repository.NewTaskRepository(env.db).Create(task))
	return task
}

// do sends a request through the full router. body may be nil, a string or
// any JSON-encodable value.
func (env testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// addCookies copies the cookies set by a previous response onto req.
func addCookies(req *http.Request, from *httptest.ResponseRecorder) {
	for _, c := range from.Result().Cookies() {
		req.AddCookie(c)
	}
}
