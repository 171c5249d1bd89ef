package build_test

import (
	"strings"
	"testing"

	. "github.com/pushcart/pushcart-deploy/internal/build"
)

func TestUserAgent(t *testing.T) {
	ua := UserAgent()

	if !strings.HasPrefix(ua, Name+"/") {
		t.Fatalf("Expected prefix: %v/; Received: %v", Name, ua)
	}

	if rev := GetGitRevision(); rev != "" && !strings.Contains(ua, rev) {
		t.Fatalf("Expected %q to contain revision %q", ua, rev)
	}
}
