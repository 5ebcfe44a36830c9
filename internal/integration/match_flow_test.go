package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"resume-match/internal/config"
	"resume-match/internal/database"
	"resume-match/internal/database/migration"
	dbpostgres "resume-match/internal/database/postgres"
	"resume-match/internal/delivery/http/middleware"
	"resume-match/internal/delivery/http/routes"
	"resume-match/internal/infrastructure/cache"
	"resume-match/internal/infrastructure/pdftext"
	"resume-match/internal/infrastructure/rasterizer"
	"resume-match/internal/infrastructure/storage"
	"resume-match/internal/pkg/jwt"
	"resume-match/internal/pkg/logging"
	"resume-match/internal/repository"
	"resume-match/internal/testutil"
	"resume-match/internal/usecase"
	ucauth "resume-match/internal/usecase/auth"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type semanticResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type matchItem struct {
	ID              uuid.UUID `json:"id"`
	MatchScore      *float64  `json:"match_score"`
	Suggestions     string    `json:"suggestions"`
	MissingKeywords []string  `json:"missing_keywords"`
}

func TestIntegration_Signup_Login_Submit_History(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := connectTestDB(t, ctx)
	defer func() { _ = db.Close() }()

	runMigrations(t, ctx, db)

	username := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	defer cleanupUser(ctx, db, username)

	app := newTestFiberApp(t, db)

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username":  username,
		"email":     username + "@example.com",
		"password1": "correct-horse",
		"password2": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username":  strings.ToUpper(username),
		"email":     "other@example.com",
		"password1": "correct-horse",
		"password2": "correct-horse",
	})
	require.Equal(t, http.StatusConflict, status)

	status, data := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, status)
	var tok tokens
	require.NoError(t, json.Unmarshal(data, &tok))
	require.NotEmpty(t, tok.AccessToken)

	status, data = doRequest(t, app, http.MethodGet, "/api/v1/matches/latest", tok.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, status)
	var latest struct {
		HadPrevious bool `json:"had_previous"`
	}
	require.NoError(t, json.Unmarshal(data, &latest))
	require.False(t, latest.HadPrevious)

	body, contentType := multipartResume(t, "cv.pdf", testutil.PDF("Python Django developer"), "Senior Python Django Engineer")
	status, data = doRequest(t, app, http.MethodPost, "/api/v1/matches", tok.AccessToken, body, contentType)
	require.Equal(t, http.StatusCreated, status)
	var submitted struct {
		Match matchItem `json:"match"`
	}
	require.NoError(t, json.Unmarshal(data, &submitted))
	require.NotNil(t, submitted.Match.MatchScore)
	require.Greater(t, *submitted.Match.MatchScore, 0.0)
	require.Less(t, *submitted.Match.MatchScore, 100.0)
	require.Equal(t, []string{"engineer", "senior"}, submitted.Match.MissingKeywords)

	var count int
	require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM match_records WHERE id = $1`, submitted.Match.ID).Scan(&count))
	require.Equal(t, 1, count)

	status, data = doRequest(t, app, http.MethodGet, "/api/v1/matches?limit=5", tok.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, status)
	var history struct {
		Items []matchItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &history))
	require.Len(t, history.Items, 1)
	require.Equal(t, submitted.Match.ID, history.Items[0].ID)

	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/matches/"+submitted.Match.ID.String(), tok.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/matches/"+uuid.NewString(), tok.AccessToken, nil, "")
	require.Equal(t, http.StatusNotFound, status)
}

func connectTestDB(t *testing.T, ctx context.Context) database.DB {
	t.Helper()

	host := stringsOrDefault(os.Getenv("RESUMEMATCH_TEST_DB_HOST"), os.Getenv("DB_HOST"))
	port := stringsOrDefault(os.Getenv("RESUMEMATCH_TEST_DB_PORT"), os.Getenv("DB_PORT"))
	name := stringsOrDefault(os.Getenv("RESUMEMATCH_TEST_DB_NAME"), os.Getenv("DB_NAME"))
	user := stringsOrDefault(os.Getenv("RESUMEMATCH_TEST_DB_USER"), os.Getenv("DB_USER"))
	pass := stringsOrDefault(os.Getenv("RESUMEMATCH_TEST_DB_PASSWORD"), os.Getenv("DB_PASSWORD"))
	ssl := stringsOrDefault(os.Getenv("RESUMEMATCH_TEST_DB_SSL_MODE"), os.Getenv("DB_SSL_MODE"))

	if host == "" || port == "" || name == "" || user == "" {
		t.Skip("missing test DB env vars: set RESUMEMATCH_TEST_DB_HOST/PORT/NAME/USER/PASSWORD (or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD)")
	}
	if ssl == "" {
		ssl = "disable"
	}

	db, err := dbpostgres.Connect(ctx, config.DatabaseConfig{
		DBHost:     host,
		DBPort:     port,
		DBName:     name,
		DBUser:     user,
		DBPassword: pass,
		DBSSLMode:  ssl,
	})
	require.NoError(t, err, "connect db")
	return db
}

func runMigrations(t *testing.T, ctx context.Context, db database.DB) {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")

	// this file: internal/integration/match_flow_test.go
	migDir := filepath.Join(filepath.Dir(file), "..", "..", "migrations")

	r := migration.Runner{Dir: migDir, Logger: logging.Discard()}
	_, err := r.Run(ctx, db)
	require.NoError(t, err, "run migrations")
}

func cleanupUser(ctx context.Context, db database.DB, username string) {
	// match_records cascade with the owner
	_, _ = db.Exec(ctx, `DELETE FROM users WHERE lower(username) = lower($1)`, username)
}

func newTestFiberApp(t *testing.T, db database.DB) *fiber.App {
	t.Helper()

	logger := logging.Discard()

	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	jwtSvc := jwt.NewHMACService("it-access-secret", "it-refresh-secret", 15*time.Minute, time.Hour)
	revocations := cache.NewTokenRevocations(cache.NewRedis(config.RedisConfig{Host: "127.0.0.1", Port: "1"}, logger))
	authMw := middleware.NewAuthMiddleware(jwtSvc, revocations)

	users := repository.NewPostgresUserRepository(db)
	records := repository.NewPostgresMatchRecordRepository(db)

	matchUC := usecase.NewMatchUsecase(usecase.MatchDeps{
		Records:   records,
		Storage:   local,
		Extractor: pdftext.NewExtractor(logger),
		// no binary: previews stay empty
		Renderer: rasterizer.New(config.RasterizerConfig{OutputDir: t.TempDir()}, "", logger),
		Logger:   logger,
		Config:   config.MatchConfig{MaxUploadBytes: 1 << 20},
	})

	errMw := middleware.NewErrorMiddleware(logger)
	app := fiber.New(fiber.Config{ErrorHandler: errMw.Handle})
	app.Use(errMw.Middleware())

	routes.NewRegistry(routes.Deps{
		Auth:   usecase.NewAuthUsecase(ucauth.NewService(users).WithCost(bcrypt.MinCost), users, jwtSvc, revocations),
		Users:  usecase.NewUserUsecase(users),
		Match:  matchUC,
		AuthMw: authMw,
	}).Register(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, json.RawMessage) {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)
	return doRequest(t, app, method, path, token, bytes.NewReader(b), fiber.MIMEApplicationJSON)
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body io.Reader, contentType string) (int, json.RawMessage) {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	var sr semanticResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
	require.Equal(t, resp.StatusCode, sr.Status, "envelope status mirrors HTTP status (message=%s)", sr.Message)
	return resp.StatusCode, sr.Data
}

func multipartResume(t *testing.T, filename string, pdf []byte, jobDescription string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("resume_file", filename)
	require.NoError(t, err)
	_, err = fw.Write(pdf)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("job_description", jobDescription))
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func stringsOrDefault(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}
