package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cruciblehq/kiln/internal/pipeline"
	"github.com/cruciblehq/kiln/internal/recipe"
)

func TestEncodeDecode(t *testing.T) {
	req := &BuildRequest{
		Recipes:  []RecipeFile{{Filename: "clawsec.hcl", Source: "recipe \"clawsec\" {}\n"}},
		Parallel: 2,
	}

	data, err := Encode(CmdBuild, req)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	env, payload, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if env.Command != CmdBuild || env.Version != Version {
		t.Errorf("envelope = %+v", env)
	}

	got, err := DecodePayload[BuildRequest](payload)
	if err != nil {
		t.Fatalf("DecodePayload() error: %v", err)
	}
	if diff := cmp.Diff(req, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeNilPayload(t *testing.T) {
	data, err := Encode(CmdShutdown, nil)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if want := `{"version":1,"command":"shutdown"}`; string(data) != want {
		t.Errorf("Encode() = %s, want %s", data, want)
	}

	_, payload, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	status, err := DecodePayload[StatusResult](payload)
	if err != nil {
		t.Fatalf("DecodePayload() error: %v", err)
	}
	if *status != (StatusResult{}) {
		t.Errorf("DecodePayload(empty) = %+v, want zero value", status)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", "build", ErrDecode},
		{"missing command", `{"version":1}`, ErrDecode},
		{"wrong version", `{"version":7,"command":"build"}`, ErrVersion},
		{"no version", `{"command":"build"}`, ErrVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode(%s) error = %v, want %v", tt.data, err, tt.want)
			}
		})
	}
}

func TestNewRunResult(t *testing.T) {
	rcp := &recipe.Recipe{Name: "clawsec", Version: "2.0.0"}

	ok := NewRunResult(&pipeline.Result{
		Recipe:    rcp,
		Stage:     pipeline.StageTested,
		Status:    pipeline.StatusSuccess,
		Stdout:    "usage: clawsec\n",
		Installed: []string{"/p/bin/clawsec"},
		Duration:  1500 * time.Millisecond,
	})
	want := RunResult{
		Recipe:    "clawsec 2.0.0",
		State:     "Tested(Pass)",
		Stage:     "Tested",
		Status:    "Success",
		Installed: []string{"/p/bin/clawsec"},
		Duration:  "1.5s",
	}
	if diff := cmp.Diff(want, ok); diff != "" {
		t.Errorf("success mismatch (-want +got):\n%s", diff)
	}
	if ok.Code() != 0 {
		t.Errorf("Code() = %d, want 0", ok.Code())
	}

	failed := NewRunResult(&pipeline.Result{
		Recipe:   rcp,
		Stage:    pipeline.StageBuilt,
		Status:   pipeline.StatusBuildFailed,
		Err:      errors.New("make exited with status 2"),
		Stderr:   "fatal error\n",
		ExitCode: 2,
	})
	if failed.State != "Aborted(BuildFailed)" || failed.Stderr != "fatal error\n" || failed.ExitCode != 2 {
		t.Errorf("failure = %+v", failed)
	}
	if failed.Code() != pipeline.ExitBuild {
		t.Errorf("Code() = %d, want %d", failed.Code(), pipeline.ExitBuild)
	}
}
