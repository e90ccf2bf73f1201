package git

import (
	"time"
)

// AuthConfig selects and configures Git authentication for a policy
// repository clone.
type AuthConfig struct {
	Type             string // "none", "token", "ssh"
	Token            string
	SSHKeyPath       string
	SSHKeyPassphrase string
}

// CloneConfig controls how a policy repository is cloned locally.
type CloneConfig struct {
	LocalPath    string
	Depth        int
	CleanOnStart bool
}

// PollConfig holds polling settings for a policy repository. Repository
// reads only Timeout, which bounds how long a clone/pull may take;
// Enabled and Interval are not read by this package (a Watcher takes its
// poll interval as a NewWatcher argument).
type PollConfig struct {
	Enabled  bool
	Interval time.Duration
	Timeout  time.Duration
}

// RepoConfig configures a Repository: where to find it, how to
// authenticate, and where in the tree the policy files live.
type RepoConfig struct {
	Repository string
	Branch     string
	Path       string // subdirectory within the repo holding policy source
	Auth       AuthConfig
	Clone      CloneConfig
	Poll       PollConfig
}

// CommitInfo contains metadata about a Git commit.
type CommitInfo struct {
	SHA        string    `json:"sha"`
	Author     string    `json:"author"`
	Email      string    `json:"email"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
	Branch     string    `json:"branch"`
	Repository string    `json:"repository"`
}

// PullResult contains result of a pull operation.
type PullResult struct {
	FromSHA      string
	ToSHA        string
	ChangedFiles []string
	HadChanges   bool
}

// RepositoryMetrics tracks Git operation metrics.
type RepositoryMetrics struct {
	CloneDuration   time.Duration
	PullDuration    time.Duration
	LastCommitSHA   string
	LastPullTime    time.Time
	FailedPulls     int64
	SuccessfulPulls int64
}

// CommitHistory tracks policy version history.
type CommitHistory struct {
	Current  *CommitInfo   `json:"current"`
	Previous *CommitInfo   `json:"previous,omitempty"`
	History  []*CommitInfo `json:"history"` // Last N commits
}
