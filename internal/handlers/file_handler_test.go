package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chat-files-api/internal/access"
	"chat-files-api/internal/faults"
	"chat-files-api/internal/handlers"
	"chat-files-api/internal/middleware"
	"chat-files-api/internal/models"
	"chat-files-api/internal/quota"
	"chat-files-api/internal/repository"
	"chat-files-api/internal/repository/repotest"
	"chat-files-api/internal/routes"
	"chat-files-api/internal/services"
	"chat-files-api/internal/storage"
	"chat-files-api/internal/validation"
)

const testSecret = "handler-test-secret"

// emptyChat answers every lookup with "nothing there". Sufficient for the
// public contexts exercised here.
type emptyChat struct{}

func (emptyChat) MessageByID(context.Context, uuid.UUID) (*models.Message, error) {
	return nil, faults.ErrNotFound
}
func (emptyChat) MessagesReferencingFile(context.Context, uuid.UUID) ([]models.Message, error) {
	return nil, nil
}
func (emptyChat) ChannelByID(context.Context, uuid.UUID) (*models.Channel, error) {
	return nil, faults.ErrNotFound
}
func (emptyChat) ClipByID(context.Context, uuid.UUID) (*models.Clip, error) {
	return nil, faults.ErrNotFound
}
func (emptyChat) IsCommunityMember(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}
func (emptyChat) IsChannelMember(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}
func (emptyChat) IsDMGroupMember(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

var _ repository.ChatDirectory = emptyChat{}

type httpFixture struct {
	app     *fiber.App
	service *services.FileService
	files   *repotest.MemFiles
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()

	backend, err := storage.NewLocalBackend(t.TempDir(), 0o644, 0o755)
	require.NoError(t, err)

	files := repotest.NewMemFiles()
	quotas := repotest.NewMemQuotas()
	logger := zap.NewNop()

	ledger := quota.NewLedger(quotas, files, logger)
	authorizer := access.NewAuthorizer(emptyChat{}, logger)
	service := services.NewFileService(
		files, ledger, validation.NewRegistry(), authorizer, backend, nil, logger,
	)

	app := fiber.New()
	routes.SetupRoutes(app, testSecret,
		handlers.NewFileHandler(service),
		handlers.NewStorageHandler(ledger, services.NewStatsService(files, quotas)),
	)
	return &httpFixture{app: app, service: service, files: files}
}

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		UserID: userID.String(),
		Role:   role,
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func authedRequest(t *testing.T, method, target string, body io.Reader, userID uuid.UUID, role string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, userID, role))
	return req
}

// uploadAvatar stores a public avatar through the service and returns its
// record, so the HTTP tests can target a known file id.
func uploadAvatar(t *testing.T, f *httpFixture, userID uuid.UUID, content []byte) *models.File {
	t.Helper()
	file, err := f.service.Upload(context.Background(), services.UploadInput{
		Reader:       bytes.NewReader(content),
		Filename:     "avatar.png",
		MimeType:     "image/png",
		Size:         int64(len(content)),
		UsageContext: models.ContextUserAvatar,
		UploaderID:   userID,
	})
	require.NoError(t, err)
	return file
}

func TestUploadEndpointCreatesFile(t *testing.T) {
	f := newHTTPFixture(t)
	userID := uuid.New()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="avatar.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("usageContext", string(models.ContextUserAvatar)))
	require.NoError(t, mw.Close())

	req := authedRequest(t, http.MethodPost, "/api/v1/files/", &body, userID, "user")
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestGetContentFullBody(t *testing.T) {
	f := newHTTPFixture(t)
	userID := uuid.New()
	file := uploadAvatar(t, f, userID, []byte("0123456789"))

	req := authedRequest(t, http.MethodGet, "/api/v1/files/"+file.ID.String()+"/content", nil, userID, "user")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "bytes", resp.Header.Get(fiber.HeaderAcceptRanges))
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="avatar.png"`)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(got))
}

func TestGetContentPartialRange(t *testing.T) {
	f := newHTTPFixture(t)
	userID := uuid.New()
	file := uploadAvatar(t, f, userID, []byte("0123456789"))

	req := authedRequest(t, http.MethodGet, "/api/v1/files/"+file.ID.String()+"/content", nil, userID, "user")
	req.Header.Set(fiber.HeaderRange, "bytes=2-5")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "bytes 2-5/10", resp.Header.Get(fiber.HeaderContentRange))
	assert.Empty(t, resp.Header.Get(fiber.HeaderContentDisposition))

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(got))
}

func TestGetContentUnsatisfiableRange(t *testing.T) {
	f := newHTTPFixture(t)
	userID := uuid.New()
	file := uploadAvatar(t, f, userID, []byte("0123456789"))

	req := authedRequest(t, http.MethodGet, "/api/v1/files/"+file.ID.String()+"/content", nil, userID, "user")
	req.Header.Set(fiber.HeaderRange, "bytes=100-")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusRequestedRangeNotSatisfiable, resp.StatusCode)
	assert.Equal(t, "bytes */10", resp.Header.Get(fiber.HeaderContentRange))
}

func TestDeleteThenGetReturnsNotFound(t *testing.T) {
	f := newHTTPFixture(t)
	userID := uuid.New()
	file := uploadAvatar(t, f, userID, []byte("0123456789"))

	del := authedRequest(t, http.MethodDelete, "/api/v1/files/"+file.ID.String(), nil, userID, "user")
	resp, err := f.app.Test(del, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	get := authedRequest(t, http.MethodGet, "/api/v1/files/"+file.ID.String(), nil, userID, "user")
	resp, err = f.app.Test(get, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteByNonOwnerForbidden(t *testing.T) {
	f := newHTTPFixture(t)
	owner := uuid.New()
	file := uploadAvatar(t, f, owner, []byte("0123456789"))

	req := authedRequest(t, http.MethodDelete, "/api/v1/files/"+file.ID.String(), nil, uuid.New(), "user")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestMissingTokenUnauthorized(t *testing.T) {
	f := newHTTPFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/", nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestStatsRequiresAdminRole(t *testing.T) {
	f := newHTTPFixture(t)
	userID := uuid.New()

	req := authedRequest(t, http.MethodGet, "/api/v1/storage/stats", nil, userID, "user")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = authedRequest(t, http.MethodGet, "/api/v1/storage/stats", nil, userID, "admin")
	resp, err = f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMyUsageEndpoint(t *testing.T) {
	f := newHTTPFixture(t)
	userID := uuid.New()
	uploadAvatar(t, f, userID, []byte("0123456789"))

	req := authedRequest(t, http.MethodGet, "/api/v1/storage/me", nil, userID, "user")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "10")
}
