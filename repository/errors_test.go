package repository

import (
	"errors"
	"fmt"
	"testing"
)

func Test_classifyPushError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantProvisioned bool
	}{
		{"nil", nil, false},
		{"github-ssh", fmt.Errorf(`Run(git push --mirror backup): err:exit status 128 { stdout: "", stderr: "ERROR: Repository not found." }`), true},
		{"https", fmt.Errorf(`fatal: repository 'https://github.com/org/repo.git/' not found`), true},
		{"plain-ssh", fmt.Errorf(`fatal: '/srv/git/repo.git' does not appear to be a git repository`), true},
		{"gitolite", fmt.Errorf(`FATAL: R any repo.git: no such repository`), true},
		{"auth-failure", fmt.Errorf(`Permission denied (publickey)`), false},
		{"network", fmt.Errorf(`ssh: connect to host example.com port 22: Connection refused`), false},
		{"plain-error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyPushError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("classifyPushError(nil) = %v, want nil", got)
				}
				return
			}
			if errors.Is(got, ErrRemoteNotProvisioned) != tt.wantProvisioned {
				t.Errorf("classifyPushError() = %v, want not-provisioned=%v", got, tt.wantProvisioned)
			}
		})
	}
}
