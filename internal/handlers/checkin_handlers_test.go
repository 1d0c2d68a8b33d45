package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubCheckinService struct {
	scanResult *services.CheckinResult
	scanErr    error
	adjusted   *models.Member
	adjustErr  error
}

func (s *stubCheckinService) Scan(membershipID string) (*services.CheckinResult, error) {
	return s.scanResult, s.scanErr
}

func (s *stubCheckinService) ScanByID(memberID int64) (*services.CheckinResult, error) {
	return s.scanResult, s.scanErr
}

func (s *stubCheckinService) AdjustPoints(memberID int64, delta int, reason string) (*models.Member, error) {
	return s.adjusted, s.adjustErr
}

func (s *stubCheckinService) GetLedger(memberID int64) (*services.LedgerReport, error) {
	return &services.LedgerReport{Consistent: true}, nil
}

func newCheckinRouter(svc services.CheckinService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewCheckinHandler(svc)
	engine.POST("/checkin", h.Scan)
	engine.POST("/members/:id/points", h.AdjustPoints)
	return engine
}

func postJSON(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestScanHandlerReturnsResult(t *testing.T) {
	svc := &stubCheckinService{scanResult: &services.CheckinResult{
		Action:        "checkin",
		PointsAwarded: 10,
	}}
	rec := postJSON(newCheckinRouter(svc), "/checkin", `{"membership_id":"MEMABCDEF123456"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"checkin"`)
}

func TestScanHandlerRejectsEmptyLookup(t *testing.T) {
	rec := postJSON(newCheckinRouter(&stubCheckinService{}), "/checkin", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanHandlerAcceptsMemberID(t *testing.T) {
	svc := &stubCheckinService{scanResult: &services.CheckinResult{Action: "checkout"}}
	rec := postJSON(newCheckinRouter(svc), "/checkin", `{"member_id":1}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"checkout"`)
}

func TestScanHandlerMapsUnknownMemberTo404(t *testing.T) {
	svc := &stubCheckinService{scanErr: services.ErrMemberNotFound}
	rec := postJSON(newCheckinRouter(svc), "/checkin", `{"membership_id":"MEM000000000000"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScanHandlerMapsInactiveMemberTo403(t *testing.T) {
	svc := &stubCheckinService{scanErr: services.ErrMemberNotActive}
	rec := postJSON(newCheckinRouter(svc), "/checkin", `{"membership_id":"MEMABCDEF123456"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdjustPointsHandlerRejectsBadMemberID(t *testing.T) {
	rec := postJSON(newCheckinRouter(&stubCheckinService{}), "/members/abc/points", `{"delta":5}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjustPointsHandlerMapsValidationError(t *testing.T) {
	svc := &stubCheckinService{adjustErr: services.ErrPointsValidation}
	rec := postJSON(newCheckinRouter(svc), "/members/1/points", `{"delta":5}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
