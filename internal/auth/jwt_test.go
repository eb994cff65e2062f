package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"campusevents/internal/domain"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "campusevents-test"
)

func TestIssueParseRoundTrip(t *testing.T) {
	id := domain.Identity{SubjectID: 42, Role: domain.RoleStudent, CollegeID: 3}

	token, exp, err := Issue(id, testIssuer, testKey, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) < 55*time.Minute {
		t.Fatalf("expiry too soon: %v", exp)
	}

	got, err := Parse(token, testKey, testIssuer)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != id {
		t.Fatalf("want %+v, got %+v", id, got)
	}
}

func TestParseRejections(t *testing.T) {
	id := domain.Identity{SubjectID: 1, Role: domain.RoleAdmin, CollegeID: 1}

	token, _, err := Issue(id, testIssuer, testKey, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(token, "other-key", testIssuer); err == nil {
		t.Fatal("wrong key accepted")
	}
	if _, err := Parse(token, testKey, "other-issuer"); err == nil {
		t.Fatal("wrong issuer accepted")
	}

	expired, _, err := Issue(id, testIssuer, testKey, -time.Minute)
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	if _, err := Parse(expired, testKey, testIssuer); err == nil {
		t.Fatal("expired token accepted")
	}

	bogus, _, err := Issue(domain.Identity{SubjectID: 1, Role: "superuser", CollegeID: 1}, testIssuer, testKey, time.Hour)
	if err != nil {
		t.Fatalf("issue bogus role: %v", err)
	}
	if _, err := Parse(bogus, testKey, testIssuer); err == nil {
		t.Fatal("unknown role accepted")
	}
}

func TestRequireMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/p", Require(testKey, testIssuer), func(c *gin.Context) {
		id := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"subject": id.SubjectID, "role": id.Role})
	})

	// no header
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no header: want 401, got %d", w.Code)
	}

	// garbage token
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: want 401, got %d", w.Code)
	}

	// valid token
	token, _, err := Issue(domain.Identity{SubjectID: 5, Role: domain.RoleStudent, CollegeID: 1}, testIssuer, testKey, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: want 200, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("password stored in the clear")
	}
	if !CheckPassword("hunter2", hash) {
		t.Fatal("correct password rejected")
	}
	if CheckPassword("hunter3", hash) {
		t.Fatal("wrong password accepted")
	}
}
