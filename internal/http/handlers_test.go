package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/kerem-kaynak/hrportal/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIRequiresSession(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/time-off-req", "/api/employee-evals", "/api/documents?mode=labels", "/api/articles", "/api/auth/me"} {
		w := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := s.do(http.MethodGet, "/api/time-off-req", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPagesRedirectToSignIn(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/sign-in", w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/sign-in", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `id="sign-in"`)
}

func TestPageShellIsServed(t *testing.T) {
	s := newTestServer(t)
	user := s.createUser("Erin", "Employee", false, false)

	w := s.do(http.MethodGet, "/", s.token(user), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/auth/me")

	w = s.do(http.MethodGet, "/reset-password?token=abc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/auth/reset-password")

	w = s.do(http.MethodGet, "/static/app.css", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimeOffFlow(t *testing.T) {
	s := newTestServer(t)
	employee := s.createUser("Erin", "Employee", false, false)
	hr := s.createUser("Harper", "Reyes", true, false)
	employeeToken, hrToken := s.token(employee), s.token(hr)

	w := s.do(http.MethodPost, "/api/time-off-req", employeeToken, map[string]string{
		"leaveType": "VACATION",
		"startDate": "2024-01-01",
		"endDate":   "2024-01-05",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "PENDING", created["status"])
	requestID := created["id"].(string)

	w = s.do(http.MethodGet, "/api/time-off-req/balance", employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(20), decode(t, w)["daysAvailable"])

	w = s.do(http.MethodPut, "/api/time-off-req", employeeToken, map[string]string{"id": requestID, "status": "APPROVED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/time-off-req?type=pending", employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/time-off-req?type=pending", hrToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode(t, w)["requests"].([]interface{})
	require.Len(t, pending, 1)
	assert.Equal(t, "Erin Employee", pending[0].(map[string]interface{})["employeeName"])

	w = s.do(http.MethodPut, "/api/time-off-req", hrToken, map[string]string{"id": requestID, "status": "APPROVED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "APPROVED", decode(t, w)["status"])

	w = s.do(http.MethodGet, "/api/time-off-req/balance", employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(15), decode(t, w)["daysAvailable"])

	w = s.do(http.MethodGet, "/api/time-off-req/balance?employeeId="+employee.ID.String(), hrToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimeOffValidationIsReported(t *testing.T) {
	s := newTestServer(t)
	employee := s.createUser("Erin", "Employee", false, false)
	other := s.createUser("Sam", "Staff", false, false)
	token := s.token(employee)

	w := s.do(http.MethodPost, "/api/time-off-req", token, map[string]string{
		"leaveType": "VACATION",
		"startDate": "2023-12-31",
		"endDate":   "2024-01-02",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Start date must be in the future", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/time-off-req", token, map[string]string{
		"employeeId": other.ID.String(),
		"leaveType":  "VACATION",
		"startDate":  "2024-02-01",
		"endDate":    "2024-02-02",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/time-off-req?type=employee&employeeId="+other.ID.String(), token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTimeOffDatesKeepTheWrittenDay(t *testing.T) {
	s := newTestServer(t)
	employee := s.createUser("Erin", "Employee", false, false)

	w := s.do(http.MethodPost, "/api/time-off-req", s.token(employee), map[string]string{
		"leaveType": "VACATION",
		"startDate": "2024-01-01T00:00:00+05:00",
		"endDate":   "2024-01-02T00:00:00+05:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["startDate"], "2024-01-01")
}

func TestTimeOffRequestLookup(t *testing.T) {
	s := newTestServer(t)
	employee := s.createUser("Erin", "Employee", false, false)
	other := s.createUser("Sam", "Staff", false, false)
	hr := s.createUser("Harper", "Reyes", true, false)

	w := s.do(http.MethodPost, "/api/time-off-req", s.token(employee), map[string]string{
		"leaveType": "SICK",
		"startDate": "2024-01-10",
		"endDate":   "2024-01-10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	requestID := decode(t, w)["id"].(string)

	w = s.do(http.MethodGet, "/api/time-off-req?id="+requestID, s.token(employee), nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode(t, w)
	assert.Equal(t, requestID, found["id"])
	assert.Equal(t, "SICK", found["leaveType"])

	w = s.do(http.MethodGet, "/api/time-off-req?id="+requestID, s.token(hr), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/time-off-req?id="+requestID, s.token(other), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/time-off-req?id=nope", s.token(employee), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/time-off-req?id="+other.ID.String(), s.token(hr), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvaluationOrderingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	employee := s.createUser("Erin", "Employee", false, false)
	hr := s.createUser("Harper", "Reyes", true, false)

	review := map[string]interface{}{"employeeId": employee.ID.String(), "year": 2024, "overallRating": 4}

	w := s.do(http.MethodPost, "/api/employee-evals", s.token(hr), review)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.SelfEvaluationRequired, decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/employee-evals", s.token(employee), map[string]interface{}{"year": 2024, "overallRating": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/employee-evals", s.token(employee), map[string]interface{}{"year": 2024, "overallRating": 4})
	require.Equal(t, http.StatusOK, w.Code, "resubmission updates in place")

	w = s.do(http.MethodPost, "/api/employee-evals", s.token(hr), review)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/employee-evals?year=2024&employeeId="+employee.ID.String(), s.token(hr), nil)
	require.Equal(t, http.StatusOK, w.Code)
	reviewers := decode(t, w)["reviewers"].([]interface{})
	assert.Len(t, reviewers, 2)

	w = s.do(http.MethodGet, "/api/employee-evals?employeeId="+hr.ID.String(), s.token(employee), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDocumentAccessOverHTTP(t *testing.T) {
	s := newTestServer(t)
	owner := s.createUser("Olive", "Owner", false, false)
	viewer := s.createUser("Vic", "Viewer", false, false)
	stranger := s.createUser("Stan", "Stranger", false, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("viewers", `["`+viewer.ID.String()+`"]`))
	require.NoError(t, mw.WriteField("folderPath", "hr/offers"))
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="offer letter.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(owner))
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	fileID := decode(t, w)["id"].(string)
	assert.Len(t, s.store.objects, 1)

	w = s.do(http.MethodGet, "/api/documents?mode=view&fileId="+fileID, s.token(viewer), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(60), body["expiresIn"])
	assert.Contains(t, body["url"], "expires=60")

	w = s.do(http.MethodGet, "/api/documents?mode=view&fileId="+fileID, s.token(stranger), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/documents?mode=labels", s.token(viewer), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["documents"], 1)

	w = s.do(http.MethodGet, "/api/documents?mode=everything", s.token(viewer), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/documents?fileId="+fileID, s.token(viewer), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/api/documents?fileId="+fileID, s.token(owner), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.store.objects)
}

func TestUserAdministrationRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	hr := s.createUser("Harper", "Reyes", true, false)
	admin := s.createUser("Ada", "Admin", false, true)
	target := hr.ID.String()

	payload := map[string]interface{}{"employeeFirstName": "Harper", "employeeLastName": "Reyes", "isAdmin": true}

	w := s.do(http.MethodPut, "/api/users/"+target, s.token(hr), payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/users/"+target, s.token(admin), payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["is_admin"])
}

func TestArticlesOverHTTP(t *testing.T) {
	s := newTestServer(t)
	author := s.createUser("Alex", "Author", false, false)
	reader := s.createUser("Rita", "Reader", false, true)
	s.ctx.ArticleAuthorID = author.ID
	s.ctx.WireServices(func() time.Time { return testNow })

	w := s.do(http.MethodPost, "/api/articles", s.token(reader), map[string]string{"title": "Hi", "content": "There"})
	assert.Equal(t, http.StatusForbidden, w.Code, "admins are not authors")

	w = s.do(http.MethodPost, "/api/articles", s.token(author), map[string]string{"title": "Hi", "content": "There"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/articles", s.token(reader), nil)
	require.Equal(t, http.StatusOK, w.Code)
}
