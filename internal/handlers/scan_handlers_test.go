package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"webscout/internal/models"
	"webscout/internal/services"
	scouterrors "webscout/pkg/errors"
)

type MockScanService struct {
	mock.Mock
}

func (m *MockScanService) StartScan(req services.StartScanRequest) (string, error) {
	args := m.Called(req)
	return args.String(0), args.Error(1)
}

func (m *MockScanService) ListScans() ([]models.Scan, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Scan), args.Error(1)
}

func (m *MockScanService) ListScansWithPagination(page, limit int) ([]models.Scan, int64, error) {
	args := m.Called(page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Scan), args.Get(1).(int64), args.Error(2)
}

func (m *MockScanService) GetScanByUUID(id string) (*models.Scan, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Scan), args.Error(1)
}

func (m *MockScanService) DeleteScan(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockScanService) Progress(id string) (services.ScanProgress, bool) {
	args := m.Called(id)
	return args.Get(0).(services.ScanProgress), args.Bool(1)
}

func (m *MockScanService) QueueStatus() (int, int, int) {
	args := m.Called()
	return args.Int(0), args.Int(1), args.Int(2)
}

func TestStartScan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(*MockScanService)
		expectedStatus int
		expectedBody   string
		validateMock   func(*testing.T, *MockScanService)
	}{
		{
			name:        "Valid Request - Success",
			requestBody: `{"target":"https://example.com","mode":"full"}`,
			setupMock: func(m *MockScanService) {
				m.On("StartScan", mock.MatchedBy(func(req services.StartScanRequest) bool {
					return req.Target == "https://example.com" &&
						req.Mode == "full" &&
						req.UseBrowser && req.UseOnline
				})).Return("123e4567-e89b-12d3-a456-426614174000", nil)
			},
			expectedStatus: 200,
			expectedBody:   `{"scan_id":"123e4567-e89b-12d3-a456-426614174000"}`,
			validateMock: func(t *testing.T, m *MockScanService) {
				m.AssertNumberOfCalls(t, "StartScan", 1)
			},
		},
		{
			name:        "Toggles Inverted",
			requestBody: `{"target":"example.com","no_browser":true,"no_online":true}`,
			setupMock: func(m *MockScanService) {
				m.On("StartScan", mock.MatchedBy(func(req services.StartScanRequest) bool {
					return !req.UseBrowser && !req.UseOnline
				})).Return("id-1", nil)
			},
			expectedStatus: 200,
			expectedBody:   `{"scan_id":"id-1"}`,
		},
		{
			name:           "Invalid JSON - Malformed",
			requestBody:    `{"target":}`,
			setupMock:      func(m *MockScanService) {},
			expectedStatus: 400,
			expectedBody:   `{"error":"Invalid request payload"}`,
			validateMock: func(t *testing.T, m *MockScanService) {
				m.AssertNumberOfCalls(t, "StartScan", 0)
			},
		},
		{
			name:           "Missing Required Field - target",
			requestBody:    `{"mode":"recon"}`,
			setupMock:      func(m *MockScanService) {},
			expectedStatus: 400,
			expectedBody:   `{"error":"Invalid request payload"}`,
		},
		{
			name:        "Invalid Target - 400 With Reason",
			requestBody: `{"target":"https://"}`,
			setupMock: func(m *MockScanService) {
				m.On("StartScan", mock.AnythingOfType("services.StartScanRequest")).
					Return("", scouterrors.NewInvalidTargetError("https://", "malformed URL"))
			},
			expectedStatus: 400,
			expectedBody:   `{"error":"invalid target \"https://\": malformed URL"}`,
		},
		{
			name:        "Service Error - Internal Error",
			requestBody: `{"target":"https://example.com"}`,
			setupMock: func(m *MockScanService) {
				m.On("StartScan", mock.AnythingOfType("services.StartScanRequest")).
					Return("", errors.New("database connection failed"))
			},
			expectedStatus: 500,
			expectedBody:   `{"error":"Failed to start scan"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockScanService)
			tt.setupMock(mockService)

			handler := NewScanHandler(mockService)

			router := gin.New()
			router.POST("/api/scans", handler.StartScan)

			req, err := http.NewRequest("POST", "/api/scans", strings.NewReader(tt.requestBody))
			assert.NoError(t, err, "Failed to create request")
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code,
				"Expected status %d, got %d. Response: %s",
				tt.expectedStatus, w.Code, w.Body.String())

			assert.JSONEq(t, tt.expectedBody, w.Body.String(),
				"Response body doesn't match expected JSON")

			if tt.validateMock != nil {
				tt.validateMock(t, mockService)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestGetScanByUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		scanID         string
		setupMock      func(*MockScanService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "Valid ID - Scan Found",
			scanID: "123e4567-e89b-12d3-a456-426614174000",
			setupMock: func(m *MockScanService) {
				scan := &models.Scan{
					UUID:   "123e4567-e89b-12d3-a456-426614174000",
					Target: "https://example.com",
					Mode:   "full",
					Status: "running",
				}
				m.On("GetScanByUUID", "123e4567-e89b-12d3-a456-426614174000").
					Return(scan, nil)
			},
			expectedStatus: 200,
		},
		{
			name:   "Valid ID - Scan Not Found",
			scanID: "non-existent-id",
			setupMock: func(m *MockScanService) {
				m.On("GetScanByUUID", "non-existent-id").
					Return(nil, gorm.ErrRecordNotFound)
			},
			expectedStatus: 404,
			expectedBody:   `{"error":"Scan not found"}`,
		},
		{
			name:   "Service Returns Nil Scan",
			scanID: "some-id",
			setupMock: func(m *MockScanService) {
				m.On("GetScanByUUID", "some-id").
					Return((*models.Scan)(nil), nil)
			},
			expectedStatus: 404,
			expectedBody:   `{"error":"Scan not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockScanService)
			tt.setupMock(mockService)

			handler := NewScanHandler(mockService)
			router := gin.New()
			router.GET("/api/scans/:id", handler.GetScanByUUID)

			url := fmt.Sprintf("/api/scans/%s", tt.scanID)
			req, _ := http.NewRequest("GET", url, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestDeleteScan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		scanID         string
		setupMock      func(*MockScanService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "Successful Deletion",
			scanID: "uuid-123",
			setupMock: func(m *MockScanService) {
				m.On("DeleteScan", "uuid-123").Return(nil)
			},
			expectedStatus: 204,
			expectedBody:   "",
		},
		{
			name:   "Scan Not Found",
			scanID: "missing-id",
			setupMock: func(m *MockScanService) {
				m.On("DeleteScan", "missing-id").Return(gorm.ErrRecordNotFound)
			},
			expectedStatus: 404,
			expectedBody:   `{"error":"Scan not found"}`,
		},
		{
			name:   "Service Error",
			scanID: "uuid-987",
			setupMock: func(m *MockScanService) {
				m.On("DeleteScan", "uuid-987").Return(errors.New("db error"))
			},
			expectedStatus: 500,
			expectedBody:   `{"error":"Failed to delete scan"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockScanService)
			tt.setupMock(mockService)

			handler := NewScanHandler(mockService)
			router := gin.New()
			router.DELETE("/api/scans/:id", handler.DeleteScan)

			url := fmt.Sprintf("/api/scans/%s", tt.scanID)
			req, _ := http.NewRequest("DELETE", url, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			} else {
				assert.Equal(t, "", w.Body.String())
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestGetScanProgress(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Running Scan With Progress", func(t *testing.T) {
		mockService := new(MockScanService)
		mockService.On("GetScanByUUID", "uuid-1").
			Return(&models.Scan{UUID: "uuid-1", Status: "running"}, nil)
		mockService.On("Progress", "uuid-1").
			Return(services.ScanProgress{Completed: 3, Total: 10, LastProbe: "whatweb", LastStatus: "success"}, true)

		handler := NewScanHandler(mockService)
		router := gin.New()
		router.GET("/api/scans/:id/progress", handler.GetScanProgress)

		req, _ := http.NewRequest("GET", "/api/scans/uuid-1/progress", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.Contains(t, w.Body.String(), `"completed":3`)
		assert.Contains(t, w.Body.String(), `"last_probe":"whatweb"`)
	})

	t.Run("Finished Scan Without Live Progress", func(t *testing.T) {
		mockService := new(MockScanService)
		mockService.On("GetScanByUUID", "uuid-2").
			Return(&models.Scan{UUID: "uuid-2", Status: "completed"}, nil)
		mockService.On("Progress", "uuid-2").
			Return(services.ScanProgress{}, false)

		handler := NewScanHandler(mockService)
		router := gin.New()
		router.GET("/api/scans/:id/progress", handler.GetScanProgress)

		req, _ := http.NewRequest("GET", "/api/scans/uuid-2/progress", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `{"scan_id":"uuid-2","status":"completed"}`, w.Body.String())
	})
}
