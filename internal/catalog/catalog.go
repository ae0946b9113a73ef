// Package catalog retrieves the list of installable runtime-bundle
// releases from upstream GitHub release repositories.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calebfourney/cellar/internal/bundle"
	"github.com/calebfourney/cellar/internal/platform"
)

const (
	// DefaultAPIBase is the GitHub REST API endpoint.
	DefaultAPIBase = "https://api.github.com"
	// DefaultCount is the number of releases fetched per repository
	// when the query does not specify one.
	DefaultCount = 15
	// requestTimeout bounds a single catalog request.
	requestTimeout = 30 * time.Second
)

// repository maps a bundle kind to its upstream GitHub repository.
type repository struct {
	owner string
	repo  string
}

var repositories = map[bundle.Kind]repository{
	bundle.KindWineGE:   {owner: "GloriousEggroll", repo: "wine-ge-custom"},
	bundle.KindProtonGE: {owner: "GloriousEggroll", repo: "proton-ge-custom"},
}

// Query selects which repositories to list and how many releases to
// take from each.
type Query struct {
	Kinds []bundle.Kind
	Count int
}

// Fetcher lists installable releases. A repository whose fetch fails is
// logged and excluded from the result rather than failing the whole
// query.
type Fetcher struct {
	client    *http.Client
	apiBase   string
	userAgent string
	plat      *platform.Info
	logger    bundle.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithAPIBase overrides the GitHub API endpoint (used by tests).
func WithAPIBase(base string) Option {
	return func(f *Fetcher) { f.apiBase = strings.TrimRight(base, "/") }
}

// WithPlatform supplies platform information used to pick the right
// archive asset when a release publishes more than one.
func WithPlatform(info *platform.Info) Option {
	return func(f *Fetcher) { f.plat = info }
}

// WithLogger supplies the logger that receives partial-failure reports.
func WithLogger(logger bundle.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// NewFetcher creates a catalog fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: requestTimeout},
		apiBase:   DefaultAPIBase,
		userAgent: bundle.DefaultUserAgent,
		logger:    &nopLogger{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch lists releases for every requested kind, newest first within
// each kind. Kinds appear in the order requested. Failing repositories
// are logged and skipped; Fetch only errors when the query itself is
// invalid.
func (f *Fetcher) Fetch(ctx context.Context, q Query) ([]bundle.Release, error) {
	if len(q.Kinds) == 0 {
		return nil, fmt.Errorf("no repository kinds requested")
	}
	count := q.Count
	if count <= 0 {
		count = DefaultCount
	}

	var mu sync.Mutex
	byKind := make(map[bundle.Kind][]bundle.Release, len(q.Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range q.Kinds {
		g.Go(func() error {
			releases, err := f.fetchKind(gctx, kind, count)
			if err != nil {
				// Partial failure: exclude this repository from the
				// result instead of failing the whole query.
				f.logger.Error("fetch release catalog", "kind", kind.String(), "error", err)
				return nil
			}
			mu.Lock()
			byKind[kind] = releases
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []bundle.Release
	for _, kind := range q.Kinds {
		out = append(out, byKind[kind]...)
	}
	return out, nil
}

// githubRelease mirrors the fields of the GitHub releases API response
// that the catalog consumes.
type githubRelease struct {
	TagName     string        `json:"tag_name"`
	Draft       bool          `json:"draft"`
	Prerelease  bool          `json:"prerelease"`
	PublishedAt time.Time     `json:"published_at"`
	Assets      []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

func (f *Fetcher) fetchKind(ctx context.Context, kind bundle.Kind, count int) ([]bundle.Release, error) {
	repo, ok := repositories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown repository kind: %s", kind)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d", f.apiBase, repo.owner, repo.repo, count)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var ghReleases []githubRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&ghReleases); err != nil {
		return nil, fmt.Errorf("decode releases: %w", err)
	}

	var releases []bundle.Release
	for _, gh := range ghReleases {
		if gh.Draft || gh.Prerelease {
			continue
		}
		rel, ok := f.toRelease(kind, gh)
		if !ok {
			continue
		}
		releases = append(releases, rel)
	}

	// The API returns newest first; keep that order deterministic even
	// if upstream changes it.
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].ReleasedAt.After(releases[j].ReleasedAt)
	})

	return releases, nil
}

// toRelease maps a GitHub release onto a bundle.Release by locating its
// archive, checksum, and signature assets. Releases without an archive
// asset are skipped.
func (f *Fetcher) toRelease(kind bundle.Kind, gh githubRelease) (bundle.Release, bool) {
	archive := pickArchiveAsset(gh.Assets, f.plat)
	if archive == nil {
		return bundle.Release{}, false
	}

	rel := bundle.Release{
		Version:     gh.TagName,
		Kind:        kind,
		DownloadURL: archive.BrowserDownloadURL,
		DiskSize:    archive.Size,
		ReleasedAt:  gh.PublishedAt,
	}

	if checksum := pickChecksumAsset(gh.Assets); checksum != nil {
		rel.ChecksumURL = checksum.BrowserDownloadURL
		if sig := pickSignatureAsset(gh.Assets, checksum.Name); sig != nil {
			rel.SignatureURL = sig.BrowserDownloadURL
		}
	}

	return rel, true
}

// pickArchiveAsset selects the release archive. When several archives
// exist, an asset matching the platform's architecture token wins.
func pickArchiveAsset(assets []githubAsset, plat *platform.Info) *githubAsset {
	var candidates []*githubAsset
	for i := range assets {
		name := strings.ToLower(assets[i].Name)
		if strings.HasSuffix(name, ".tar.xz") || strings.HasSuffix(name, ".tar.gz") ||
			strings.HasSuffix(name, ".txz") || strings.HasSuffix(name, ".tgz") {
			candidates = append(candidates, &assets[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	if plat != nil {
		for _, token := range platform.ArchTokens(plat.Arch) {
			for _, c := range candidates {
				if strings.Contains(strings.ToLower(c.Name), token) {
					return c
				}
			}
		}
	}

	return candidates[0]
}

// pickChecksumAsset selects the checksum manifest asset.
func pickChecksumAsset(assets []githubAsset) *githubAsset {
	for i := range assets {
		name := strings.ToLower(assets[i].Name)
		if strings.Contains(name, "sha512sum") || strings.HasSuffix(name, ".sha512") {
			return &assets[i]
		}
	}
	return nil
}

// pickSignatureAsset selects a detached signature over the checksum
// manifest, when the release publishes one.
func pickSignatureAsset(assets []githubAsset, checksumName string) *githubAsset {
	for i := range assets {
		name := strings.ToLower(assets[i].Name)
		if name == strings.ToLower(checksumName)+".sig" || name == strings.ToLower(checksumName)+".asc" {
			return &assets[i]
		}
	}
	return nil
}

// nopLogger keeps the Fetcher usable without a configured logger.
type nopLogger struct{}

func (*nopLogger) Debug(string, ...interface{}) {}
func (*nopLogger) Info(string, ...interface{})  {}
func (*nopLogger) Warn(string, ...interface{})  {}
func (*nopLogger) Error(string, ...interface{}) {}
