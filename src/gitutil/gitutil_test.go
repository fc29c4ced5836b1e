package gitutil

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

func TestParseRemote(t *testing.T) {
	tests := []struct {
		remote  string
		want    string
		wantErr bool
	}{
		{"git@github.com:acme/widgets.git", "acme/widgets", false},
		{"git@github.com:acme/widgets", "acme/widgets", false},
		{"https://github.com/acme/widgets.git", "acme/widgets", false},
		{"https://github.com/acme/widgets/", "acme/widgets", false},
		{"ssh://git@github.com/acme/widgets.git", "acme/widgets", false},
		{"https://ghe.example.com/org/team/repo.git", "team/repo", false},
		{"", "", true},
		{"not-a-remote", "", true},
		{"https://github.com/solo", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			got, err := ParseRemote(tt.remote)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRemote(%q) = %q, want error", tt.remote, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRemote(%q) error = %v", tt.remote, err)
			}
			if got != tt.want {
				t.Errorf("ParseRemote(%q) = %q, want %q", tt.remote, got, tt.want)
			}
		})
	}
}

func initRepo(t *testing.T) Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(cmd.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q")
	run("checkout", "-q", "-b", "feature/login")
	run("commit", "-q", "--allow-empty", "-m", "init")
	run("remote", "add", "origin", "git@github.com:acme/widgets.git")
	return Repo{Dir: dir}
}

func TestRepo_CurrentBranchAndOrigin(t *testing.T) {
	repo := initRepo(t)
	ctx := context.Background()

	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		t.Fatalf("CurrentBranch() error = %v", err)
	}
	if branch != "feature/login" {
		t.Errorf("CurrentBranch() = %q, want feature/login", branch)
	}

	slug, err := repo.OriginRepository(ctx)
	if err != nil {
		t.Fatalf("OriginRepository() error = %v", err)
	}
	if slug != "acme/widgets" {
		t.Errorf("OriginRepository() = %q, want acme/widgets", slug)
	}
}

func TestRepo_DetachedHead(t *testing.T) {
	repo := initRepo(t)
	cmd := exec.Command("git", "checkout", "-q", "--detach")
	cmd.Dir = repo.Dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("detach: %v\n%s", err, out)
	}

	if _, err := repo.CurrentBranch(context.Background()); !errors.Is(err, ErrDetachedHead) {
		t.Errorf("CurrentBranch() error = %v, want ErrDetachedHead", err)
	}
}

func TestRepo_NotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	repo := Repo{Dir: t.TempDir()}
	if _, err := repo.CurrentBranch(context.Background()); err == nil {
		t.Error("CurrentBranch() outside a repository should fail")
	}
}
