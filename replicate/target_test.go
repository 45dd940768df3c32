package replicate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/git-replica/git-replica/locator"
)

func TestResolve(t *testing.T) {
	localConf := Config{Mode: ModeLocal, Root: "/projects", Destination: "/backup/git-repositories"}
	remoteConf := Config{Mode: ModeRemote, Root: "/projects", Host: "github.com", User: "someone"}

	tests := []struct {
		name    string
		rec     locator.Record
		conf    Config
		want    Target
		wantErr error
	}{
		{"local", locator.Record{Path: "/projects/a", Name: "a", Kind: locator.KindWorkingCopy}, localConf,
			Target{Kind: TargetLocalPath, Locator: "/backup/git-repositories/a.git"}, nil},
		{"local-nested", locator.Record{Path: "/projects/x/b", Name: "b", Kind: locator.KindWorkingCopy}, localConf,
			Target{Kind: TargetLocalPath, Locator: "/backup/git-repositories/b.git"}, nil},
		{"remote", locator.Record{Path: "/projects/a", Name: "a", Kind: locator.KindWorkingCopy}, remoteConf,
			Target{Kind: TargetRemoteURL, Locator: "git@github.com:someone/a.git"}, nil},
		// repository and username case must survive into the target url,
		// hosting-side paths are case sensitive
		{"remote-mixed-case", locator.Record{Path: "/projects/MyApp", Name: "MyApp", Kind: locator.KindWorkingCopy},
			Config{Mode: ModeRemote, Root: "/projects", Host: "Backup.example.com", User: "Someone"},
			Target{Kind: TargetRemoteURL, Locator: "git@backup.example.com:Someone/MyApp.git"}, nil},
		{"remote-missing-host", locator.Record{Path: "/projects/a", Name: "a"}, Config{Mode: ModeRemote, User: "someone"},
			Target{}, ErrMissingCredential},
		{"remote-missing-user", locator.Record{Path: "/projects/a", Name: "a"}, Config{Mode: ModeRemote, Host: "github.com"},
			Target{}, ErrMissingCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.rec, tt.conf)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// two distinct source repositories sharing a basename must abort the run
// rather than silently overwrite one another
func Test_resolveTargets_collision(t *testing.T) {
	conf := Config{Mode: ModeLocal, Root: "/projects", Destination: "/backup"}
	records := []locator.Record{
		{Path: "/projects/a", Name: "a", Kind: locator.KindWorkingCopy},
		{Path: "/projects/work/api", Name: "api", Kind: locator.KindWorkingCopy},
		{Path: "/projects/personal/api", Name: "api", Kind: locator.KindWorkingCopy},
	}

	_, err := resolveTargets(records, conf)
	if !errors.Is(err, ErrTargetCollision) {
		t.Errorf("resolveTargets() error = %v, want ErrTargetCollision", err)
	}
}

func Test_resolveTargets(t *testing.T) {
	conf := Config{Mode: ModeLocal, Root: "/projects", Destination: "/backup"}
	records := []locator.Record{
		{Path: "/projects/a", Name: "a", Kind: locator.KindWorkingCopy},
		{Path: "/projects/work/b", Name: "b", Kind: locator.KindWorkingCopy},
	}

	got, err := resolveTargets(records, conf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]Target{
		"/projects/a":      {Kind: TargetLocalPath, Locator: "/backup/a.git"},
		"/projects/work/b": {Kind: TargetLocalPath, Locator: "/backup/b.git"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolveTargets() mismatch (-want +got):\n%s", diff)
	}
}
