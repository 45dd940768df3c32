package giturl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		want    *URL
		wantErr bool
	}{
		{"scp", "user@host.xz:path/to/repo.git",
			&URL{Scheme: "scp", User: "user", Host: "host.xz", Path: "path/to", Repo: "repo.git"}, false},
		{"scp-no-suffix", "git@github.com:org/repo",
			&URL{Scheme: "scp", User: "git", Host: "github.com", Path: "org", Repo: "repo"}, false},
		{"scp-port", "user@host.xz:2222:path/to/repo.git",
			&URL{Scheme: "scp", User: "user", Host: "host.xz:2222", Path: "path/to", Repo: "repo.git"}, false},
		{"ssh", "ssh://git@github.com/org/repo.git",
			&URL{Scheme: "ssh", User: "git", Host: "github.com", Path: "org", Repo: "repo.git"}, false},
		{"https", "https://github.com/org/repo.git",
			&URL{Scheme: "https", Host: "github.com", Path: "org", Repo: "repo.git"}, false},
		{"trailing-slash", "https://github.com/org/repo.git/",
			&URL{Scheme: "https", Host: "github.com", Path: "org", Repo: "repo.git"}, false},
		{"upper-case", "GIT@GitHub.com:Org/Repo.git",
			&URL{Scheme: "scp", User: "git", Host: "github.com", Path: "org", Repo: "repo.git"}, false},
		{"no-path", "git@github.com:repo.git", nil, true},
		{"local-path", "/home/user/projects/repo", nil, true},
		{"empty", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.rawURL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildSCP(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		host    string
		path    string
		repo    string
		want    string
		wantErr bool
	}{
		{"default-user", "", "github.com", "someone", "project", "git@github.com:someone/project.git", false},
		{"explicit-user", "backup", "backup.example.com", "mirrors", "project.git", "backup@backup.example.com:mirrors/project.git", false},
		// only the host is case-insensitive, hosting-side paths are not
		{"mixed-case", "", "GitHub.com", "Someone", "MyApp", "git@github.com:Someone/MyApp.git", false},
		{"missing-host", "", "", "someone", "project", "", true},
		{"missing-path", "", "github.com", "", "project", "", true},
		{"invalid-repo-name", "", "github.com", "someone", "pro ject", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSCP(tt.user, tt.host, tt.path, tt.repo)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildSCP() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("BuildSCP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameRawURL(t *testing.T) {
	tests := []struct {
		name  string
		lRepo string
		rRepo string
		want  bool
	}{
		{"same-scp", "git@github.com:org/repo.git", "git@github.com:org/repo.git", true},
		{"scp-vs-ssh", "git@github.com:org/repo.git", "ssh://git@github.com/org/repo.git", true},
		{"scp-vs-https", "git@github.com:org/repo.git", "https://github.com/org/repo.git", true},
		{"with-without-suffix", "git@github.com:org/repo", "git@github.com:org/repo.git", true},
		{"case-insensitive", "git@github.com:org/repo.git", "git@GITHUB.com:ORG/REPO.git", true},
		{"diff-host", "git@github.com:org/repo.git", "git@gitlab.com:org/repo.git", false},
		{"diff-path", "git@github.com:org1/repo.git", "git@github.com:org2/repo.git", false},
		{"diff-repo", "git@github.com:org/repo1.git", "git@github.com:org/repo2.git", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SameRawURL(tt.lRepo, tt.rRepo)
			if err != nil {
				t.Fatalf("SameRawURL() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SameRawURL() = %v, want %v", got, tt.want)
			}
		})
	}
}
