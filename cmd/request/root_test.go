package request

import (
	"testing"

	"github.com/ValentinKolb/mocker/api/proto"
	"github.com/spf13/cobra"
)

func newTestCmd(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	// fresh flags so tests do not share parsed values
	cmd := &cobra.Command{Use: "request"}
	cmd.Flags().StringArrayP("header", "H", nil, "")
	cmd.Flags().StringP("body", "d", "", "")
	cmd.Flags().String("content-type", "", "")
	if err := cmd.Flags().Parse(flags); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return cmd
}

func TestBuildRequest(t *testing.T) {
	cmd := newTestCmd(t, "-H", "Accept: text/yaml", "--header", "X-Trace:1", "--content-type", "application/json", "-d", `{"id":1}`)
	req, err := buildRequest(cmd, []string{"post", "/users"})
	if err != nil {
		t.Fatalf("buildRequest failed: %v", err)
	}

	want := "POST /users HTTP/1.1\n" +
		"Accept: text/yaml\n" +
		"X-Trace: 1\n" +
		"Content-Type: application/json\n" +
		"Content-Length: 8\n" +
		"\n" +
		`{"id":1}`
	if got := req.String(); got != want {
		t.Errorf("Request =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildRequestErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		flags []string
	}{
		{"unknown method", []string{"FETCH", "/users"}, nil},
		{"header without colon", []string{"GET", "/users"}, []string{"-H", "Accept"}},
		{"header without name", []string{"GET", "/users"}, []string{"-H", ":x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildRequest(newTestCmd(t, tt.flags...), tt.args); err == nil {
				t.Error("Expected buildRequest to fail")
			}
		})
	}
}

func TestBuildRequestWithoutBody(t *testing.T) {
	req, err := buildRequest(newTestCmd(t), []string{"GET", "/users?id=1"})
	if err != nil {
		t.Fatalf("buildRequest failed: %v", err)
	}
	if req.Method() != proto.MethodGet || req.Path() != "/users" {
		t.Errorf("Unexpected request %q", req.String())
	}
	if _, ok := req.Header(proto.HeaderContentLength); ok {
		t.Error("Expected no Content-Length without body")
	}
}
