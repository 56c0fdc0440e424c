package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the owner/repo releases are fetched from. Release builds
// set it with -ldflags "-X hostrelay/cmd.githubRepoSlug=owner/repo".
var githubRepoSlug = "hostrelay/hostrelay"

// releaseInfo is the part of a published release self-update needs.
type releaseInfo struct {
	Version     string
	PublishedAt time.Time
	AssetURL    string
	AssetName   string
}

// For mocking in tests
var (
	findLatestRelease = func(ctx context.Context, slug string) (releaseInfo, bool, error) {
		rel, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(slug))
		if err != nil || !found {
			return releaseInfo{}, found, err
		}
		return releaseInfo{
			Version:     rel.Version(),
			PublishedAt: rel.PublishedAt,
			AssetURL:    rel.AssetURL,
			AssetName:   rel.AssetName,
		}, true, nil
	}
	applyRelease = func(ctx context.Context, rel releaseInfo, exe string) error {
		return selfupdate.UpdateTo(ctx, rel.AssetURL, rel.AssetName, exe)
	}
	executablePath = selfupdate.ExecutablePath
)

var selfUpdateRepo string

func newSelfUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update hostrelay to the latest version",
		Long: `Checks for the latest release of hostrelay on GitHub and
replaces the running binary when a newer version is published.

Stop a running relay (/shutdown_bot or its service manager) before updating.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
	cmd.Flags().StringVar(&selfUpdateRepo, "repo", "", "GitHub owner/repo to fetch releases from (default "+githubRepoSlug+")")
	return cmd
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	currentVersion := rootCmd.Version
	if currentVersion == "" || currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}
	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return fmt.Errorf("current version %q is not a release version: %w", currentVersion, err)
	}

	ctx := context.Background()
	var out io.Writer = os.Stdout
	if cmd != nil {
		out = cmd.OutOrStdout()
		if cmd.Context() != nil {
			ctx = cmd.Context()
		}
	}

	slug := selfUpdateRepo
	if slug == "" {
		slug = githubRepoSlug
	}

	fmt.Fprintf(out, "Current version: %s\n", current)
	fmt.Fprintf(out, "Checking %s for updates...\n", slug)

	rel, found, err := findLatestRelease(ctx, slug)
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s on %s", slug, runtime.GOOS+"/"+runtime.GOARCH)
	}
	latest, err := semver.NewVersion(rel.Version)
	if err != nil {
		return fmt.Errorf("latest release has an invalid version %q: %w", rel.Version, err)
	}

	if !latest.GreaterThan(current) {
		fmt.Fprintf(out, "Current version (%s) is the latest.\n", current)
		return nil
	}

	fmt.Fprintf(out, "Found newer version: %s (published %s)\n", latest, rel.PublishedAt.Format(time.DateOnly))

	exe, err := executablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	fmt.Fprintf(out, "Updating %s to version %s...\n", exe, latest)
	if err := applyRelease(ctx, rel, exe); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest)
	return nil
}
