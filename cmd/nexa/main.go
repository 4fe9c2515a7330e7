package main

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/nexapdf/nexa/internal/auth"
	"github.com/nexapdf/nexa/internal/browser"
	"github.com/nexapdf/nexa/internal/config"
	"github.com/nexapdf/nexa/internal/notify"
	"github.com/nexapdf/nexa/internal/quota"
	"github.com/nexapdf/nexa/internal/semver"
	"github.com/nexapdf/nexa/internal/store"
	"github.com/nexapdf/nexa/internal/tui"
	"github.com/nexapdf/nexa/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// session bundles everything built on top of the state directory.
type session struct {
	cfg     config.Config
	dir     string
	tokens  *store.TokenStore
	store   *store.SessionStore
	prefs   *store.PrefsStore
	bus     *notify.Bus
	auth    *auth.Coordinator
	tracker *quota.Tracker
}

// newSession wires the stores, the notifier, the coordinator, and the quota
// tracker for the configured state directory.
func newSession(cfg config.Config) (*session, error) {
	dir := cfg.StateDir
	if dir == "" {
		var err error
		dir, err = store.DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	tokens := store.NewTokenStore(dir)
	sess := store.NewSessionStore(dir)
	prefs := store.NewPrefsStore(dir)
	bus := notify.New().WithMarker(dir)
	coord := auth.NewCoordinator(cfg.APIURL, tokens, sess, bus)
	tracker := quota.NewTracker(sess, coord.Client())
	if err := tracker.Start(bus); err != nil {
		return nil, fmt.Errorf("start quota tracker: %w", err)
	}

	return &session{
		cfg:     cfg,
		dir:     dir,
		tokens:  tokens,
		store:   sess,
		prefs:   prefs,
		bus:     bus,
		auth:    coord,
		tracker: tracker,
	}, nil
}

func run() error {
	cfg := config.Load()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("nexa " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "terms":
			return openLegal(cfg, "terms")
		case "privacy":
			return openLegal(cfg, "privacy")
		case "support":
			return openLegal(cfg, "support")
		case "login":
			return runLogin(cfg)
		case "signup":
			return runSignup(cfg)
		case "logout":
			return runLogout(cfg)
		case "update":
			return runUpdate()
		case "--update-done":
			if len(os.Args) >= 4 {
				printUpdateSuccess(os.Args[2], os.Args[3])
			}
			return nil
		}
	}

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	return launchTUI(s)
}

func launchTUI(s *session) error {
	// Validate any stored token; a dead session silently degrades to guest.
	s.auth.Bootstrap(context.Background())

	// Pick up operations completed by other running instances.
	watcher, err := notify.WatchMarker(s.dir, s.bus)
	if err == nil {
		defer watcher.Close() //nolint:errcheck
	}

	app := tui.NewApp(tui.Deps{
		Auth:    s.auth,
		Quota:   s.tracker,
		Session: s.store,
		Prefs:   s.prefs,
		Bus:     s.bus,
		Version: version,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// promptLine reads one line of input with a label.
func promptLine(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echoing it.
func promptPassword(label string) (string, error) {
	fmt.Print(label)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(data), nil
}

func runLogin(cfg config.Config) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}

	username, err := promptLine("username: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("password: ")
	if err != nil {
		return err
	}

	user, err := s.auth.Login(context.Background(), username, password)
	if err != nil {
		if client.IsStatus(err, 401) || client.IsStatus(err, 400) {
			return fmt.Errorf("invalid credentials")
		}
		return err
	}
	fmt.Printf("Signed in as %s\n\n", user.Username)

	return launchTUI(s)
}

func runSignup(cfg config.Config) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}

	username, err := promptLine("username: ")
	if err != nil {
		return err
	}
	email, err := promptLine("email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	user, err := s.auth.Signup(context.Background(), client.SignupRequest{
		Username:  username,
		Email:     email,
		Password:  password,
		Password2: confirm,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Account created. Signed in as %s\n\n", user.Username)

	return launchTUI(s)
}

func runLogout(cfg config.Config) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	if s.tokens.AccessToken() == "" && s.tokens.RefreshToken() == "" {
		fmt.Println("Already signed out.")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.auth.Logout(ctx)
	fmt.Println("Signed out.")
	return nil
}

type ghRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

func runUpdate() error {
	if version == "dev" {
		fmt.Println("dev build — install a release to enable updates")
		return nil
	}

	// Resolve the real binary path (follow symlinks).
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("runUpdate: find executable: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("runUpdate: resolve symlinks: %w", err)
	}

	// Fetch latest release from GitHub.
	httpClient := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpClient.Get("https://api.github.com/repos/nexapdf/nexa/releases/latest")
	if err != nil {
		return fmt.Errorf("runUpdate: check for updates: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("runUpdate: GitHub API returned %s", resp.Status)
	}

	var release ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return fmt.Errorf("runUpdate: parse release: %w", err)
	}

	latestVersion := strings.TrimPrefix(release.TagName, "v")
	currentVersion := strings.TrimPrefix(version, "v")
	if !semver.IsNewer(latestVersion, currentVersion) {
		printAlreadyCurrent("v" + currentVersion)
		return nil
	}

	// Find the right asset for this platform.
	tarballName := fmt.Sprintf("nexa_%s_%s.tar.gz", runtime.GOOS, runtime.GOARCH)
	var tarballURL, checksumsURL string
	for _, a := range release.Assets {
		switch a.Name {
		case tarballName:
			tarballURL = a.BrowserDownloadURL
		case "checksums.txt":
			checksumsURL = a.BrowserDownloadURL
		}
	}
	if tarballURL == "" {
		return fmt.Errorf("runUpdate: no asset %s in release %s", tarballName, release.TagName)
	}

	// Download to temp dir.
	tmpDir, err := os.MkdirTemp("", "nexa-update-*")
	if err != nil {
		return fmt.Errorf("runUpdate: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	tarballPath := filepath.Join(tmpDir, tarballName)
	if err := downloadFile(httpClient, tarballURL, tarballPath); err != nil {
		return fmt.Errorf("runUpdate: download tarball: %w", err)
	}

	// Verify checksum (mandatory).
	if checksumsURL == "" {
		return fmt.Errorf("runUpdate: release missing checksums.txt — aborting update")
	}
	checksumsPath := filepath.Join(tmpDir, "checksums.txt")
	if err := downloadFile(httpClient, checksumsURL, checksumsPath); err != nil {
		return fmt.Errorf("runUpdate: download checksums: %w", err)
	}
	if err := verifyChecksum(tarballPath, checksumsPath, tarballName); err != nil {
		return fmt.Errorf("runUpdate: %w", err)
	}

	// Extract the nexa binary from the tarball.
	newBinaryPath := filepath.Join(tmpDir, "nexa")
	if err := extractBinary(tarballPath, newBinaryPath); err != nil {
		return fmt.Errorf("runUpdate: extract: %w", err)
	}

	// Atomic replace: write to .new, then rename over the original.
	stagePath := execPath + ".new"
	defer os.Remove(stagePath) //nolint:errcheck

	src, err := os.Open(newBinaryPath)
	if err != nil {
		return fmt.Errorf("runUpdate: open extracted binary: %w", err)
	}
	defer src.Close() //nolint:errcheck

	dst, err := os.OpenFile(stagePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied writing to %s — try with sudo", filepath.Dir(execPath))
		}
		return fmt.Errorf("runUpdate: create staged binary: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close() //nolint:errcheck
		return fmt.Errorf("runUpdate: write staged binary: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("runUpdate: close staged binary: %w", err)
	}

	if err := os.Rename(stagePath, execPath); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied replacing %s — try with sudo", execPath)
		}
		return fmt.Errorf("runUpdate: replace binary: %w", err)
	}

	// Re-exec into the NEW binary so its updated code renders the success
	// message. The running process still has the old code in memory.
	execErr := syscall.Exec(execPath, []string{"nexa", "--update-done", "v" + currentVersion, "v" + latestVersion}, os.Environ())
	if execErr != nil {
		// Fallback if exec fails (e.g., Windows).
		printUpdateSuccess("v"+currentVersion, "v"+latestVersion)
	}
	return nil
}

func downloadFile(client *http.Client, url, dest string) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %s from %s", resp.Status, url)
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()                   //nolint:errcheck
	const maxDownloadSize = 100 << 20 // 100 MB
	_, err = io.Copy(f, io.LimitReader(resp.Body, maxDownloadSize))
	return err
}

func verifyChecksum(filePath, checksumsPath, fileName string) error {
	data, err := os.ReadFile(checksumsPath)
	if err != nil {
		return fmt.Errorf("read checksums: %w", err)
	}
	var expected string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, fileName) {
			parts := strings.Fields(line)
			if len(parts) >= 1 {
				expected = parts[0]
				break
			}
		}
	}
	if expected == "" {
		return fmt.Errorf("no checksum found for %s", fileName)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash file: %w", err)
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expected {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}

func extractBinary(tarballPath, dest string) error {
	f, err := os.Open(tarballPath)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close() //nolint:errcheck

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}
		// Only extract the nexa binary; ignore everything else.
		if filepath.Base(hdr.Name) == "nexa" && hdr.Typeflag == tar.TypeReg {
			out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
			if err != nil {
				return err
			}
			const maxBinarySize = 200 << 20 // 200 MB
			if _, err := io.Copy(out, io.LimitReader(tr, maxBinarySize)); err != nil {
				out.Close() //nolint:errcheck
				return err
			}
			return out.Close()
		}
	}
	return fmt.Errorf("nexa binary not found in tarball")
}

func openLegal(cfg config.Config, page string) error {
	url := cfg.SiteURL + "/" + page
	if err := browser.Open(url); err != nil {
		fmt.Println(url)
	}
	return nil
}
