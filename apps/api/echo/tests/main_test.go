package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/qwaszx001001/byzantium/apps/api/echo"
	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/enrollment"
	"github.com/qwaszx001001/byzantium/core/progress"
	"github.com/qwaszx001001/byzantium/core/user"
	"github.com/qwaszx001001/byzantium/services/email"
	"github.com/qwaszx001001/byzantium/services/logger"
	"github.com/qwaszx001001/byzantium/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	*Server
	conf       *core.Config
	usrRepo    user.Repository
	courseRepo course.Repository
}

func setup(t *testing.T) testApp {
	t.Helper()

	conf := core.NewConfig()
	conf.Server.DisableReqLogs = true
	conf.Learning.PageSize = 2
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	core.ParseEmailTemplates(conf, logger)
	emailsvc.ResetSentMessages()

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)

	// set up services
	usrSvc := user.NewService(usrRepo)
	courseSvc := course.NewService(courseRepo)
	progressSvc := progress.NewService(inmemdb.NewProgressRepository(db))
	enrollmentSvc := enrollment.NewService(
		conf,
		logger,
		inmemdb.NewEnrollmentRepository(db),
		courseSvc,
		usrSvc,
		progressSvc,
		emailsvc.NewConsoleServiceMock(conf, logger),
	)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up server
	srv := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       usrSvc,
		CourseSvc:     courseSvc,
		EnrollmentSvc: enrollmentSvc,
		ProgressSvc:   progressSvc,
		Validate:      validate,
		Translator:    translator,
	})
	return testApp{Server: srv, conf: conf, usrRepo: usrRepo, courseRepo: courseRepo}
}

func (app testApp) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshalBody() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func checkCode(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) bool {
	return assert.Equal(t, tt.wantCode, rec.Code, "%s: %s", tt.name, rec.Body.String())
}
