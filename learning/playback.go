/*
playback.go - Lesson asset playback normalization

Lesson assets reference external media. Before an asset reaches the
client it is normalized into a playback descriptor: YouTube references
become embed URLs, OneDrive references get a short-lived streaming link
from the Microsoft Graph API, and everything else plays from its stored
URL directly. Graph failures degrade to the stored web URL rather than
blocking the lesson.
*/
package learning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

var youtubeIDPattern = regexp.MustCompile(`^[\w-]{11}$`)

// Asset providers.
const (
	ProviderYouTube  = "youtube"
	ProviderOneDrive = "onedrive"
)

// OneDriveRef locates a file in OneDrive, by share id or drive/item pair.
type OneDriveRef struct {
	ShareID string `json:"shareId,omitempty"`
	DriveID string `json:"driveId,omitempty"`
	ItemID  string `json:"itemId,omitempty"`
	WebURL  string `json:"webUrl,omitempty"`
}

// YouTubeRef locates a YouTube video.
type YouTubeRef struct {
	VideoID string `json:"videoId,omitempty"`
}

// AssetMetadata is the provider-specific detail stored with an asset.
type AssetMetadata struct {
	OneDrive        *OneDriveRef `json:"oneDrive,omitempty"`
	YouTube         *YouTubeRef  `json:"youtube,omitempty"`
	MimeType        string       `json:"mimeType,omitempty"`
	FileName        string       `json:"fileName,omitempty"`
	FileSize        *int64       `json:"fileSize,omitempty"`
	DurationSeconds *int         `json:"durationSeconds,omitempty"`
	ThumbnailURL    string       `json:"thumbnailUrl,omitempty"`
}

// LessonAsset is a piece of media attached to a lesson.
type LessonAsset struct {
	ID          string        `json:"id"`
	LessonID    string        `json:"lessonId"`
	Provider    string        `json:"provider,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
	Required    bool          `json:"required"`
	Metadata    AssetMetadata `json:"metadata"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   *time.Time    `json:"updatedAt,omitempty"`
}

// NewLessonAsset validates and normalizes a submitted asset.
func NewLessonAsset(id string, a LessonAsset) (LessonAsset, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return LessonAsset{}, ErrTitleRequired
	}
	if strings.TrimSpace(a.LessonID) == "" {
		return LessonAsset{}, ErrLessonRequired
	}
	a.ID = id
	a.Provider = strings.ToLower(strings.TrimSpace(a.Provider))
	a.CreatedAt = time.Now()
	return a, nil
}

// Merge applies a partial update to an asset.
func (a *LessonAsset) Merge(updates LessonAsset) {
	if title := strings.TrimSpace(updates.Title); title != "" {
		a.Title = title
	}
	if updates.Description != "" {
		a.Description = updates.Description
	}
	if updates.URL != "" {
		a.URL = updates.URL
	}
	if updates.Provider != "" {
		a.Provider = strings.ToLower(strings.TrimSpace(updates.Provider))
	}
	if updates.Metadata.OneDrive != nil || updates.Metadata.YouTube != nil ||
		updates.Metadata.MimeType != "" || updates.Metadata.ThumbnailURL != "" {
		a.Metadata = updates.Metadata
	}
	now := time.Now()
	a.UpdatedAt = &now
}

// Playback is the client-facing descriptor of how to play an asset.
type Playback struct {
	Type         string  `json:"type"`
	URL          string  `json:"url,omitempty"`
	StreamURL    *string `json:"streamUrl,omitempty"`
	EmbedURL     string  `json:"embedUrl,omitempty"`
	VideoID      string  `json:"videoId,omitempty"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	ExpiresAt    *string `json:"expiresAt,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// PlayableAsset is an asset joined with its resolved playback descriptor.
type PlayableAsset struct {
	LessonAsset
	Playback Playback `json:"playback"`
}

// ParseYouTubeVideoID extracts the 11-character video id from any of the
// usual YouTube URL shapes, or from a bare id.
func ParseYouTubeVideoID(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	parsed, err := url.Parse(input)
	if err != nil || parsed.Host == "" {
		if youtubeIDPattern.MatchString(input) {
			return input
		}
		return ""
	}
	if strings.Contains(parsed.Host, "youtu.be") {
		parts := splitPath(parsed.Path)
		if len(parts) > 0 {
			return parts[0]
		}
		return ""
	}
	if strings.Contains(parsed.Host, "youtube.com") {
		if id := parsed.Query().Get("v"); id != "" {
			return strings.TrimSpace(id)
		}
		parts := splitPath(parsed.Path)
		for i, part := range parts {
			if part == "embed" && i+1 < len(parts) {
				return parts[i+1]
			}
		}
	}
	return ""
}

func splitPath(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func youtubePlayback(meta AssetMetadata) Playback {
	videoID := ""
	if meta.YouTube != nil {
		videoID = ParseYouTubeVideoID(meta.YouTube.VideoID)
	}
	if videoID == "" {
		return Playback{Type: ProviderYouTube, Error: "youtube_video_unavailable"}
	}
	thumbnail := meta.ThumbnailURL
	if thumbnail == "" {
		thumbnail = "https://img.youtube.com/vi/" + videoID + "/hqdefault.jpg"
	}
	return Playback{
		Type:         ProviderYouTube,
		VideoID:      videoID,
		EmbedURL:     "https://www.youtube.com/embed/" + videoID,
		ThumbnailURL: thumbnail,
	}
}

// =============================================================================
// ONEDRIVE STREAMING LINKS
// =============================================================================

// GraphLinker creates short-lived anonymous view links via Microsoft
// Graph. The zero value reads its token and knobs from the environment.
type GraphLinker struct {
	Token   string
	BaseURL string
	HTTP    *http.Client
}

// NewGraphLinkerFromEnv reads ONEDRIVE_GRAPH_TOKEN (or MS_GRAPH_TOKEN).
func NewGraphLinkerFromEnv() *GraphLinker {
	token := os.Getenv("ONEDRIVE_GRAPH_TOKEN")
	if token == "" {
		token = os.Getenv("MS_GRAPH_TOKEN")
	}
	return &GraphLinker{
		Token: token,
		HTTP:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *GraphLinker) endpoint(ref OneDriveRef) string {
	if shareID := strings.TrimSpace(ref.ShareID); shareID != "" {
		return "/shares/" + url.PathEscape(shareID) + "/driveItem/createLink"
	}
	driveID := strings.TrimSpace(ref.DriveID)
	itemID := strings.TrimSpace(ref.ItemID)
	if driveID != "" && itemID != "" {
		return "/drives/" + url.PathEscape(driveID) + "/items/" + url.PathEscape(itemID) + "/createLink"
	}
	return ""
}

// StreamLink asks Graph for an anonymous view link to the referenced
// file. Failures are reported in the playback error field, never as a
// Go error, so a broken link does not break the lesson response.
func (g *GraphLinker) StreamLink(ctx context.Context, ref OneDriveRef) (streamURL, expiresAt, errCode string) {
	if strings.EqualFold(os.Getenv("ONEDRIVE_SKIP_CREATE_LINK"), "true") {
		return "", "", "onedrive_stream_skipped"
	}
	endpoint := g.endpoint(ref)
	if endpoint == "" || g.Token == "" {
		return "", "", "onedrive_stream_unavailable"
	}

	ttl := 900
	if raw := os.Getenv("ONEDRIVE_STREAM_URL_TTL_SECONDS"); raw != "" {
		if sec, err := strconv.Atoi(raw); err == nil && sec > 0 {
			ttl = sec
		}
	}
	expiry := time.Now().Add(time.Duration(ttl) * time.Second).UTC().Format(time.RFC3339)

	body, err := json.Marshal(map[string]string{
		"type":               "view",
		"scope":              "anonymous",
		"expirationDateTime": expiry,
	})
	if err != nil {
		return "", "", "onedrive_stream_failed"
	}

	baseURL := g.BaseURL
	if baseURL == "" {
		baseURL = graphBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", "onedrive_stream_failed"
	}
	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Content-Type", "application/json")

	httpClient := g.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", "", "onedrive_stream_failed"
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", "", fmt.Sprintf("onedrive_stream_failed_%d", resp.StatusCode)
	}

	var payload struct {
		Link struct {
			WebURL string `json:"webUrl"`
		} `json:"link"`
		ExpirationDateTime string `json:"expirationDateTime"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", "onedrive_stream_failed"
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", "", "onedrive_stream_failed"
	}

	streamURL = strings.TrimSpace(payload.Link.WebURL)
	if streamURL == "" {
		return "", "", "onedrive_stream_missing_url"
	}
	if payload.ExpirationDateTime != "" {
		expiry = payload.ExpirationDateTime
	}
	return streamURL, expiry, ""
}

// ResolvePlayback builds the playback descriptor for one asset.
func ResolvePlayback(ctx context.Context, linker *GraphLinker, asset LessonAsset) PlayableAsset {
	out := PlayableAsset{LessonAsset: asset}

	switch asset.Provider {
	case ProviderOneDrive:
		ref := OneDriveRef{}
		if asset.Metadata.OneDrive != nil {
			ref = *asset.Metadata.OneDrive
		}
		streamURL, expiresAt, errCode := "", "", "onedrive_stream_unavailable"
		if linker != nil {
			streamURL, expiresAt, errCode = linker.StreamLink(ctx, ref)
		}
		playback := Playback{Type: ProviderOneDrive, URL: strings.TrimSpace(ref.WebURL)}
		if streamURL != "" {
			playback.StreamURL = &streamURL
			playback.ExpiresAt = &expiresAt
		} else if playback.URL == "" {
			playback.Error = errCode
		}
		out.Playback = playback
	case ProviderYouTube:
		out.Playback = youtubePlayback(asset.Metadata)
	default:
		out.Playback = Playback{Type: "direct", URL: strings.TrimSpace(asset.URL)}
	}
	return out
}
